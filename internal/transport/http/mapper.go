package http

import (
	"encoding/json"
	"errors"

	"github.com/vovakirdan/syncwatch-server/internal/core"
	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

// inboundToCommand turns a text frame into a validated command. Frames that
// fail parsing or validation yield a protocol error for the sender instead.
func inboundToCommand(data []byte) (*core.Command, *proto.Error) {
	var inbound proto.Inbound
	if err := json.Unmarshal(data, &inbound); err != nil || inbound.Type == "" {
		return nil, &proto.Error{Code: core.ErrCodeMalformed, Message: "Malformed message."}
	}

	payload, err := proto.Decode(inbound)
	if err != nil {
		code := core.ErrCodeMalformed
		if errors.Is(err, proto.ErrUnknownType) {
			code = core.ErrCodeUnknownType
		}
		return nil, &proto.Error{Code: code, Source: inbound.Type, Message: proto.DescribeError(inbound.Type, err)}
	}

	kind, ok := core.CommandKindFor(inbound.Type)
	if !ok {
		return nil, &proto.Error{
			Code:    core.ErrCodeUnknownType,
			Source:  inbound.Type,
			Message: proto.DescribeError(inbound.Type, proto.ErrUnknownType),
		}
	}
	return &core.Command{Kind: kind, Payload: payload, Raw: inbound.Content}, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	return proto.Outbound{Type: event.Type, Content: event.Content}
}

func errorEvent(perr *proto.Error) *core.Event {
	return &core.Event{Type: proto.OutboundTypeError, Content: *perr}
}
