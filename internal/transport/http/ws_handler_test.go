package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, testConfig(), createTestAuthService(t))
	dial(t, ts, "alice")

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Clients)
	assert.Equal(t, 0, body.Rooms)
}

func TestHostJoinAndChat(t *testing.T) {
	ts := startTestServer(t, testConfig(), createTestAuthService(t))
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")

	roomID := alice.host(proto.RoomTypePublic)

	bob.send(proto.InboundTypeJoin, proto.JoinData{RoomID: roomID})
	var snap proto.InitContent
	bob.expect(proto.OutboundTypeInit, &snap)
	require.Len(t, snap.Members, 2)
	assert.Equal(t, alice.id, snap.Host)
	assert.Equal(t, alice.id, snap.Members[0].UserID)
	assert.Equal(t, bob.id, snap.Members[1].UserID)
	assert.True(t, snap.IsPaused)

	var joined proto.JoinContent
	alice.expect(proto.OutboundTypeJoin, &joined)
	assert.Equal(t, bob.id, joined.UserID)
	assert.Equal(t, "bob", joined.UserName)

	bob.send(proto.InboundTypeMessage, proto.MessageData{Text: "hi there"})
	for _, p := range []*wsPeer{alice, bob} {
		var msg proto.ChatMessage
		p.expect(proto.OutboundTypeMessage, &msg)
		assert.Equal(t, bob.id, msg.UserID)
		assert.Equal(t, "hi there", msg.Text)
	}
}

func TestElectionRepeatRejected(t *testing.T) {
	ts := startTestServer(t, testConfig(), createTestAuthService(t))
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")
	roomID := alice.host(proto.RoomTypePublic)
	bob.send(proto.InboundTypeJoin, proto.JoinData{RoomID: roomID})
	bob.expect(proto.OutboundTypeInit, nil)

	alice.send(proto.InboundTypeElection, proto.TargetData{Target: bob.id})
	var elected proto.MemberContent
	bob.expect(proto.OutboundTypeElection, &elected)
	assert.Equal(t, bob.id, elected.UserID)

	alice.send(proto.InboundTypeElection, proto.TargetData{Target: bob.id})
	alice.expectError("Member " + bob.id + " is already a moderator.")
}

func TestPausePermissionByRoomType(t *testing.T) {
	ts := startTestServer(t, testConfig(), createTestAuthService(t))
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")

	public := alice.host(proto.RoomTypePublic)
	bob.send(proto.InboundTypeJoin, proto.JoinData{RoomID: public})
	bob.expect(proto.OutboundTypeInit, nil)

	bob.send(proto.InboundTypePause, proto.PauseData{IsPaused: true})
	perr := bob.expectError("Insufficient permission.")
	assert.Equal(t, proto.InboundTypePause, perr.Source)

	bob.send(proto.InboundTypeLeave, nil)
	alice.expect(proto.OutboundTypeLeave, nil)
	alice.send(proto.InboundTypeLeave, nil)
	alice.expect(proto.OutboundTypeEnd, nil)

	carol := dial(t, ts, "carol")
	private := carol.host(proto.RoomTypePrivate)
	bob.send(proto.InboundTypeJoin, proto.JoinData{RoomID: private})
	var pending proto.InfoContent
	bob.expect(proto.OutboundTypeInfo, &pending)
	assert.True(t, pending.Pending)

	carol.expect(proto.OutboundTypeJoin, nil)
	carol.send(proto.InboundTypeApprove, proto.ApproveData{MemberID: bob.id})
	bob.expect(proto.OutboundTypeInit, nil)

	bob.send(proto.InboundTypePause, proto.PauseData{IsPaused: false})
	var relayed proto.PauseData
	carol.expect(proto.OutboundTypePause, &relayed)
	assert.False(t, relayed.IsPaused)
}

func TestHostDisconnectEndsRoom(t *testing.T) {
	ts := startTestServer(t, testConfig(), createTestAuthService(t))
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")
	roomID := alice.host(proto.RoomTypePublic)
	bob.send(proto.InboundTypeJoin, proto.JoinData{RoomID: roomID})
	bob.expect(proto.OutboundTypeInit, nil)

	require.NoError(t, alice.conn.Close(websocket.StatusNormalClosure, "bye"))

	var ended proto.EndContent
	bob.expect(proto.OutboundTypeEnd, &ended)
	assert.Equal(t, roomID, ended.RoomID)

	bob.send(proto.InboundTypeJoin, proto.JoinData{RoomID: roomID})
	bob.expectError("Unknown room " + roomID + ".")
}

func TestMalformedAndUnknownFrames(t *testing.T) {
	ts := startTestServer(t, testConfig(), createTestAuthService(t))
	alice := dial(t, ts, "alice")

	alice.sendRaw("{not json")
	alice.expectError("Malformed message.")

	alice.sendRaw(`{"type":"teleport"}`)
	perr := alice.expectError("Unknown message type teleport.")
	assert.Equal(t, "unknown_type", perr.Code)

	alice.sendRaw(`{"type":"host","content":{"MediaName":"x","RoomType":"public","IsPaused":true,"Extra":1}}`)
	var bad proto.Error
	alice.expect(proto.OutboundTypeError, &bad)
	assert.Equal(t, "malformed_message", bad.Code)
	assert.Contains(t, bad.Message, "Malformed host message")

	// The connection survives every rejection.
	roomID := alice.host(proto.RoomTypePublic)
	assert.NotEmpty(t, roomID)
}

func TestBinaryRelayFromHostOnly(t *testing.T) {
	ts := startTestServer(t, testConfig(), createTestAuthService(t))
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")
	roomID := alice.host(proto.RoomTypePublic)
	bob.send(proto.InboundTypeJoin, proto.JoinData{RoomID: roomID})
	bob.expect(proto.OutboundTypeInit, nil)
	alice.expect(proto.OutboundTypeJoin, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	frame := []byte{0x00, 0x01, 0xfe, 0xff}
	require.NoError(t, alice.conn.Write(ctx, websocket.MessageBinary, frame))

	typ, data, err := bob.conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, typ)
	assert.Equal(t, frame, data)
}

func TestRateLimitKeepsConnectionOpen(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Capacity = 2
	cfg.RateLimit.RefillInterval = time.Hour
	ts := startTestServer(t, cfg, createTestAuthService(t))
	alice := dial(t, ts, "alice")

	alice.send(proto.InboundTypeQuery, nil)
	alice.expect(proto.OutboundTypeQueryResult, nil)
	alice.send(proto.InboundTypeQuery, nil)
	alice.expect(proto.OutboundTypeQueryResult, nil)

	alice.send(proto.InboundTypeQuery, nil)
	perr := alice.expectError("Rate limit exceeded.")
	assert.Equal(t, "rate_limited", perr.Code)

	alice.send(proto.InboundTypeQuery, nil)
	alice.expectError("Rate limit exceeded.")
}
