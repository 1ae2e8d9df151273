package core

import (
	"encoding/json"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	CommandHost CommandKind = iota
	CommandJoin
	CommandLeave
	CommandMessage
	CommandElection
	CommandDemotion
	CommandPause
	CommandSync
	CommandUpload
	CommandQuery
	CommandApprove
	CommandRegister
	CommandAdminLogin
	CommandAdminLogout
	CommandShutdown
	// CommandBinary relays an opaque media frame from the room host.
	CommandBinary
	// CommandDisconnect is queued by the transport after the connection closed.
	CommandDisconnect
)

var commandNames = map[CommandKind]string{
	CommandHost:        proto.InboundTypeHost,
	CommandJoin:        proto.InboundTypeJoin,
	CommandLeave:       proto.InboundTypeLeave,
	CommandMessage:     proto.InboundTypeMessage,
	CommandElection:    proto.InboundTypeElection,
	CommandDemotion:    proto.InboundTypeDemotion,
	CommandPause:       proto.InboundTypePause,
	CommandSync:        proto.InboundTypeSync,
	CommandUpload:      proto.InboundTypeUpload,
	CommandQuery:       proto.InboundTypeQuery,
	CommandApprove:     proto.InboundTypeApprove,
	CommandRegister:    proto.InboundTypeRegister,
	CommandAdminLogin:  proto.InboundTypeAdminLogin,
	CommandAdminLogout: proto.InboundTypeAdminLogout,
	CommandShutdown:    proto.InboundTypeShutdown,
	CommandBinary:      "binary",
	CommandDisconnect:  "disconnect",
}

// String returns the wire name of the command.
func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// CommandKindFor maps an inbound message type to its command kind.
func CommandKindFor(msgType string) (CommandKind, bool) {
	for kind, name := range commandNames {
		if name == msgType && kind != CommandBinary && kind != CommandDisconnect {
			return kind, true
		}
	}
	return 0, false
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	// Payload holds the decoded proto content (proto.HostData, proto.JoinData, ...).
	Payload any
	// Raw is the validated content as received; pause, sync and upload relay it unchanged.
	Raw json.RawMessage
	// Binary is the media frame for CommandBinary.
	Binary []byte
}
