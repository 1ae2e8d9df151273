package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	// ErrUnknownType is returned for message types without a schema.
	ErrUnknownType = errors.New("unknown message type")
	// ErrMalformed is returned when content does not match the declared shape.
	ErrMalformed = errors.New("malformed message")
)

// Kind is the JSON category of a value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Schema describes the shape a JSON value must have.
// Object schemas require an exact key set; array schemas check every element
// against Elem, and a nil Elem accepts any contents.
type Schema struct {
	Kind   Kind
	Fields map[string]Field
	Elem   *Schema
}

// Field is an object member schema.
type Field struct {
	Schema
	Optional bool
}

func object(fields map[string]Field) Schema {
	return Schema{Kind: KindObject, Fields: fields}
}

func required(k Kind) Field { return Field{Schema: Schema{Kind: k}} }

func optional(k Kind) Field { return Field{Schema: Schema{Kind: k}, Optional: true} }

var noContent = object(map[string]Field{})

var schemas = map[string]Schema{
	InboundTypeHost: object(map[string]Field{
		"MediaName": required(KindString),
		"RoomType":  required(KindString),
		"IsPaused":  required(KindBool),
		"Capacity":  optional(KindNumber),
	}),
	InboundTypeJoin:        object(map[string]Field{"RoomID": required(KindString)}),
	InboundTypeLeave:       noContent,
	InboundTypeMessage:     object(map[string]Field{"Text": required(KindString)}),
	InboundTypeElection:    object(map[string]Field{"Target": required(KindString)}),
	InboundTypeDemotion:    object(map[string]Field{"Target": required(KindString)}),
	InboundTypePause:       object(map[string]Field{"IsPaused": required(KindBool)}),
	InboundTypeSync:        object(map[string]Field{"Timestamp": required(KindNumber)}),
	InboundTypeUpload:      object(map[string]Field{"MediaName": required(KindString)}),
	InboundTypeQuery:       noContent,
	InboundTypeApprove:     object(map[string]Field{"MemberID": required(KindString)}),
	InboundTypeRegister:    object(map[string]Field{"UserName": required(KindString), "Avatar": required(KindString)}),
	InboundTypeAdminLogin:  object(map[string]Field{"UserName": required(KindString), "Password": required(KindString)}),
	InboundTypeAdminLogout: noContent,
	InboundTypeShutdown:    noContent,
}

// Decode validates the content of an inbound message against its schema and
// decodes it into the typed payload for that message type.
func Decode(in Inbound) (any, error) {
	schema, ok := schemas[in.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}

	content := bytes.TrimSpace(in.Content)
	if len(content) == 0 || bytes.Equal(content, []byte("null")) {
		if hasRequired(schema) {
			return nil, fmt.Errorf("%w: %s: content is required", ErrMalformed, in.Type)
		}
		content = []byte("{}")
	}

	value, err := parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, in.Type, err)
	}
	if err := Validate(value, schema); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, in.Type, err)
	}

	payload := payloadFor(in.Type)
	if _, empty := payload.(*Empty); empty {
		return Empty{}, nil
	}
	if err := json.Unmarshal(content, payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, in.Type, err)
	}
	return deref(payload), nil
}

// Validate checks a decoded JSON value (as produced by a json.Decoder with
// UseNumber) against a schema.
func Validate(value any, s Schema) error {
	return validate(value, s, "$")
}

func validate(value any, s Schema, path string) error {
	got := KindOf(value)
	if got != s.Kind {
		return fmt.Errorf("%s: expected %s, got %s", path, s.Kind, got)
	}

	switch s.Kind {
	case KindObject:
		obj := value.(map[string]any)
		for key := range obj {
			if _, ok := s.Fields[key]; !ok {
				return fmt.Errorf("%s: unexpected key %q", path, key)
			}
		}
		for _, key := range sortedKeys(s.Fields) {
			field := s.Fields[key]
			v, ok := obj[key]
			if !ok {
				if field.Optional {
					continue
				}
				return fmt.Errorf("%s: missing key %q", path, key)
			}
			if err := validate(v, field.Schema, path+"."+key); err != nil {
				return err
			}
		}
	case KindArray:
		if s.Elem == nil {
			return nil
		}
		for i, el := range value.([]any) {
			if err := validate(el, *s.Elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// KindOf reports the JSON category of a decoded value.
func KindOf(value any) Kind {
	switch value.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number, float64, int, int64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return Kind(-1)
	}
}

func parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after content")
	}
	return v, nil
}

func hasRequired(s Schema) bool {
	for _, f := range s.Fields {
		if !f.Optional {
			return true
		}
	}
	return false
}

func sortedKeys(fields map[string]Field) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func payloadFor(msgType string) any {
	switch msgType {
	case InboundTypeHost:
		return &HostData{}
	case InboundTypeJoin:
		return &JoinData{}
	case InboundTypeMessage:
		return &MessageData{}
	case InboundTypeElection, InboundTypeDemotion:
		return &TargetData{}
	case InboundTypePause:
		return &PauseData{}
	case InboundTypeSync:
		return &SyncData{}
	case InboundTypeUpload:
		return &UploadData{}
	case InboundTypeApprove:
		return &ApproveData{}
	case InboundTypeRegister:
		return &RegisterData{}
	case InboundTypeAdminLogin:
		return &AdminLoginData{}
	default:
		return &Empty{}
	}
}

func deref(payload any) any {
	switch p := payload.(type) {
	case *HostData:
		return *p
	case *JoinData:
		return *p
	case *MessageData:
		return *p
	case *TargetData:
		return *p
	case *PauseData:
		return *p
	case *SyncData:
		return *p
	case *UploadData:
		return *p
	case *ApproveData:
		return *p
	case *RegisterData:
		return *p
	case *AdminLoginData:
		return *p
	default:
		return payload
	}
}

// KnownTypes lists every inbound message type with a schema, sorted.
func KnownTypes() []string {
	out := make([]string, 0, len(schemas))
	for t := range schemas {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DescribeError renders a decode error as a human-readable reply.
func DescribeError(msgType string, err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return fmt.Sprintf("Unknown message type %s.", msgType)
	case errors.Is(err, ErrMalformed):
		if msgType == "" {
			return "Malformed message."
		}
		return fmt.Sprintf("Malformed %s message: %s.", msgType, strings.TrimPrefix(err.Error(), ErrMalformed.Error()+": "+msgType+": "))
	default:
		return "Malformed message."
	}
}
