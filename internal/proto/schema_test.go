package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inbound(t *testing.T, raw string) Inbound {
	t.Helper()
	var in Inbound
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

func TestDecode_Host(t *testing.T) {
	payload, err := Decode(inbound(t, `{"type":"host","content":{"MediaName":"ep1.mp4","RoomType":"public","IsPaused":true}}`))
	require.NoError(t, err)

	host, ok := payload.(HostData)
	require.True(t, ok)
	assert.Equal(t, "ep1.mp4", host.MediaName)
	assert.Equal(t, RoomTypePublic, host.RoomType)
	assert.True(t, host.IsPaused)
	assert.Nil(t, host.Capacity)
}

func TestDecode_HostWithCapacity(t *testing.T) {
	payload, err := Decode(inbound(t, `{"type":"host","content":{"MediaName":"a","RoomType":"private","IsPaused":false,"Capacity":4}}`))
	require.NoError(t, err)

	host := payload.(HostData)
	require.NotNil(t, host.Capacity)
	assert.Equal(t, 4, *host.Capacity)
}

func TestDecode_RejectsShapeMismatch(t *testing.T) {
	cases := map[string]string{
		"missing key":       `{"type":"join","content":{}}`,
		"extra key":         `{"type":"join","content":{"RoomID":"r","Extra":1}}`,
		"wrong kind":        `{"type":"join","content":{"RoomID":5}}`,
		"null field":        `{"type":"message","content":{"Text":null}}`,
		"content not obj":   `{"type":"pause","content":[true]}`,
		"missing content":   `{"type":"message"}`,
		"fractional cap":    `{"type":"host","content":{"MediaName":"a","RoomType":"public","IsPaused":true,"Capacity":2.5}}`,
		"bool as number":    `{"type":"sync","content":{"Timestamp":true}}`,
		"extra on nullary":  `{"type":"leave","content":{"x":1}}`,
		"string not object": `{"type":"upload","content":"movie.mp4"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(inbound(t, raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_NullaryTypesAcceptAbsentContent(t *testing.T) {
	for _, raw := range []string{
		`{"type":"leave"}`,
		`{"type":"query","content":null}`,
		`{"type":"adminLogout","content":{}}`,
	} {
		payload, err := Decode(inbound(t, raw))
		require.NoError(t, err, raw)
		assert.Equal(t, Empty{}, payload)
	}
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode(inbound(t, `{"type":"teleport","content":{}}`))
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Equal(t, "Unknown message type teleport.", DescribeError("teleport", err))
}

func TestValidate_NestedAndArrays(t *testing.T) {
	elem := Schema{Kind: KindObject, Fields: map[string]Field{"id": required(KindNumber)}}
	s := object(map[string]Field{
		"items": {Schema: Schema{Kind: KindArray, Elem: &elem}},
		"any":   {Schema: Schema{Kind: KindArray}},
	})

	ok, err := parse([]byte(`{"items":[{"id":1},{"id":2}],"any":["x",1,null]}`))
	require.NoError(t, err)
	assert.NoError(t, Validate(ok, s))

	bad, err := parse([]byte(`{"items":[{"id":1},{"id":"2"}],"any":[]}`))
	require.NoError(t, err)
	assert.ErrorContains(t, Validate(bad, s), "$.items[1].id")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNull, KindOf(nil))
	assert.Equal(t, KindBool, KindOf(true))
	assert.Equal(t, KindNumber, KindOf(json.Number("1")))
	assert.Equal(t, KindString, KindOf("s"))
	assert.Equal(t, KindArray, KindOf([]any{}))
	assert.Equal(t, KindObject, KindOf(map[string]any{}))
}

func TestEveryInboundTypeHasSchema(t *testing.T) {
	assert.Len(t, KnownTypes(), 15)
}
