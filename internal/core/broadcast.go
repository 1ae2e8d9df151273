package core

import (
	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

// send delivers to one session. Delivery is best effort: a full queue drops.
func (h *Hub) send(c *Client, eventType string, content any) {
	if !c.Deliver(&Event{Type: eventType, Content: content}) {
		h.log.Warn().Str("client_id", c.ID).Str("type", eventType).Msg("dropping event for slow client")
	}
}

func (h *Hub) sendError(c *Client, source string, err *CoreError) {
	h.send(c, proto.OutboundTypeError, proto.Error{Code: err.Code, Source: source, Message: err.Message})
}

// broadcastToRoom sends to every live member of the room not listed in except.
func (h *Hub) broadcastToRoom(room *Room, eventType string, content any, except ...string) {
	h.fanOut(room, &Event{Type: eventType, Content: content}, except)
}

func (h *Hub) fanOut(room *Room, ev *Event, except []string) {
	for _, id := range room.Members() {
		if contains(except, id) {
			continue
		}
		member, ok := h.sessions[id]
		if !ok {
			continue
		}
		if !member.Deliver(ev) {
			h.log.Warn().Str("client_id", id).Str("room", room.ID).Str("type", ev.Type).Msg("dropping event for slow client")
		}
	}
}

// broadcastToAdmins sends to the admin audience.
func (h *Hub) broadcastToAdmins(eventType string, content any) {
	if len(h.admins) == 0 {
		return
	}
	ev := &Event{Type: eventType, Content: content}
	for _, admin := range h.admins {
		admin.Deliver(ev)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
