package core

import (
	"fmt"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

// dispatch runs one client command on the hub goroutine.
func (h *Hub) dispatch(c *Client, cmd *Command) {
	if cmd.Kind == CommandDisconnect {
		h.disconnect(c)
		return
	}
	if _, ok := h.sessions[c.ID]; !ok {
		return
	}

	var err *CoreError
	switch cmd.Kind {
	case CommandHost:
		err = withPayload(cmd, func(p proto.HostData) *CoreError { return h.host(c, p) })
	case CommandJoin:
		err = withPayload(cmd, func(p proto.JoinData) *CoreError { return h.join(c, p.RoomID) })
	case CommandApprove:
		err = withPayload(cmd, func(p proto.ApproveData) *CoreError { return h.approve(c, p.MemberID) })
	case CommandLeave:
		err = h.leave(c)
	case CommandMessage:
		err = withPayload(cmd, func(p proto.MessageData) *CoreError { return h.message(c, p.Text) })
	case CommandElection:
		err = withPayload(cmd, func(p proto.TargetData) *CoreError { return h.election(c, p.Target) })
	case CommandDemotion:
		err = withPayload(cmd, func(p proto.TargetData) *CoreError { return h.demotion(c, p.Target) })
	case CommandPause:
		err = withPayload(cmd, func(p proto.PauseData) *CoreError { return h.pause(c, p, cmd.Raw) })
	case CommandSync:
		err = withPayload(cmd, func(p proto.SyncData) *CoreError { return h.sync(c, cmd.Raw) })
	case CommandUpload:
		err = withPayload(cmd, func(p proto.UploadData) *CoreError { return h.upload(c, p.MediaName, cmd.Raw) })
	case CommandQuery:
		h.query(c)
	case CommandRegister:
		err = withPayload(cmd, func(p proto.RegisterData) *CoreError { return h.updateProfile(c, p) })
	case CommandAdminLogin:
		err = withPayload(cmd, func(p proto.AdminLoginData) *CoreError { return h.adminLogin(c, p) })
	case CommandAdminLogout:
		err = h.adminLogout(c)
	case CommandShutdown:
		err = h.shutdown(c)
	case CommandBinary:
		err = h.relayBinary(c, cmd.Binary)
	default:
		err = coreError(ErrCodeUnknownType, fmt.Sprintf("Unknown message type %s.", cmd.Kind))
	}

	if err != nil {
		h.log.Debug().Str("client_id", c.ID).Str("type", cmd.Kind.String()).Str("error", err.Message).Msg("command rejected")
		h.sendError(c, cmd.Kind.String(), err)
	}
}

func withPayload[T any](cmd *Command, fn func(T) *CoreError) *CoreError {
	p, ok := cmd.Payload.(T)
	if !ok {
		return coreError(ErrCodeMalformed, fmt.Sprintf("Malformed %s message.", cmd.Kind))
	}
	return fn(p)
}
