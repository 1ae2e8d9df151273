package core

import (
	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

// snapshot is the init payload for a newly admitted member.
func (h *Hub) snapshot(room *Room) proto.InitContent {
	members := make([]proto.Profile, 0, len(room.Members()))
	for _, id := range room.Members() {
		if c, ok := h.sessions[id]; ok {
			members = append(members, profileOf(c))
		}
	}
	history := room.History()
	messages := make([]proto.ChatMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, chatMessage(msg))
	}

	return proto.InitContent{
		RoomID:     room.ID,
		Host:       room.Host,
		RoomType:   room.Type,
		MediaName:  room.MediaName,
		IsPaused:   room.IsPaused,
		Moderators: room.Moderators(),
		Members:    members,
		Messages:   messages,
	}
}

func (h *Hub) summary(room *Room) proto.RoomSummary {
	s := proto.RoomSummary{
		RoomID:     room.ID,
		Host:       room.Host,
		RoomType:   room.Type,
		MediaName:  room.MediaName,
		IsPaused:   room.IsPaused,
		Capacity:   room.Capacity,
		Members:    room.Members(),
		Pending:    room.Pending(),
		Moderators: room.Moderators(),
	}
	if host, ok := h.sessions[room.Host]; ok {
		s.HostName = host.Name
	}
	return s
}

// roomSummaries lists rooms in creation order, optionally only public ones.
func (h *Hub) roomSummaries(publicOnly bool) []proto.RoomSummary {
	out := make([]proto.RoomSummary, 0, len(h.rooms))
	for _, room := range h.sortedRooms() {
		if publicOnly && room.IsPrivate() {
			continue
		}
		s := h.summary(room)
		if publicOnly {
			s.Pending = nil
		}
		out = append(out, s)
	}
	return out
}

func chatMessage(msg Message) proto.ChatMessage {
	return proto.ChatMessage{
		MessageID: msg.ID,
		UserID:    msg.From,
		Text:      msg.Text,
		Timestamp: msg.CreatedAt.UnixMilli(),
	}
}
