package core

import (
	"encoding/json"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

func (h *Hub) host(c *Client, p proto.HostData) *CoreError {
	if err := h.requireNoRoom(c); err != nil {
		return err
	}
	if p.RoomType != proto.RoomTypePublic && p.RoomType != proto.RoomTypePrivate {
		return invalidState("Invalid room type %s.", p.RoomType)
	}
	capacity := h.opts.MaxRoomCapacity
	if p.Capacity != nil {
		capacity = *p.Capacity
	}
	if capacity < 2 {
		return invalidState("Room capacity must be at least 2.")
	}
	if capacity > h.opts.MaxRoomCapacity {
		return invalidState("Room capacity cannot exceed %d.", h.opts.MaxRoomCapacity)
	}

	id := h.opts.NewRoomID()
	for _, taken := h.rooms[id]; taken; _, taken = h.rooms[id] {
		id = h.opts.NewRoomID()
	}
	room := NewRoom(id, c.ID, p.RoomType, capacity, p.MediaName, p.IsPaused)
	room.CreatedAt = h.opts.Now()
	h.seq++
	room.seq = h.seq
	h.rooms[id] = room
	c.Room = id

	h.log.Info().Str("room", id).Str("host", c.ID).Str("type", p.RoomType).Int("capacity", capacity).Msg("room created")
	h.send(c, proto.OutboundTypeInfo, proto.InfoContent{RoomID: id})
	h.broadcastToAdmins(proto.AdminTypeUserHost, h.summary(room))
	return nil
}

func (h *Hub) join(c *Client, roomID string) *CoreError {
	if err := h.requireNoRoom(c); err != nil {
		return err
	}
	room, ok := h.rooms[roomID]
	if !ok {
		return invalidState("Unknown room %s.", roomID)
	}
	if room.Full() {
		return invalidState("Room %s is full.", roomID)
	}

	if !room.IsPrivate() {
		h.admit(room, c)
		return nil
	}

	room.AddPending(c.ID)
	c.PendingRoom = room.ID
	h.log.Info().Str("room", room.ID).Str("client_id", c.ID).Msg("join request queued")
	if host, ok := h.sessions[room.Host]; ok {
		h.send(host, proto.OutboundTypeJoin, proto.JoinContent{Profile: profileOf(c), RoomID: room.ID, Pending: true})
	}
	h.send(c, proto.OutboundTypeInfo, proto.InfoContent{RoomID: room.ID, Pending: true})
	return nil
}

func (h *Hub) approve(c *Client, memberID string) *CoreError {
	room, err := h.roomOf(c)
	if err != nil {
		return err
	}
	if !room.CanApprove(c.ID) {
		return permissionDenied()
	}
	if !room.IsPending(memberID) {
		return invalidState("No pending request from %s.", memberID)
	}
	if len(room.Members()) >= room.Capacity {
		return invalidState("Room %s is full.", room.ID)
	}
	target, ok := h.sessions[memberID]
	if !ok {
		room.RemovePending(memberID)
		return invalidState("Unknown member %s.", memberID)
	}

	room.RemovePending(memberID)
	h.admit(room, target)
	return nil
}

// admit makes c a member and sends the join notifications.
func (h *Hub) admit(room *Room, c *Client) {
	room.AddMember(c.ID)
	c.Room = room.ID
	c.PendingRoom = ""

	h.log.Info().Str("room", room.ID).Str("client_id", c.ID).Msg("member joined")
	h.send(c, proto.OutboundTypeInit, h.snapshot(room))
	h.broadcastToRoom(room, proto.OutboundTypeJoin, proto.JoinContent{Profile: profileOf(c), RoomID: room.ID}, c.ID)
	h.broadcastToAdmins(proto.AdminTypeUserJoin, proto.UserRoomContent{RoomID: room.ID, UserID: c.ID})
}

func (h *Hub) leave(c *Client) *CoreError {
	if c.PendingRoom != "" {
		h.cancelPending(c)
		return nil
	}
	room, err := h.roomOf(c)
	if err != nil {
		return err
	}
	if room.Host == c.ID {
		h.endRoom(room)
		return nil
	}
	h.removeMember(room, c)
	return nil
}

// endRoom tears the room down: everyone is told and cleared before deletion.
func (h *Hub) endRoom(room *Room) {
	end := &Event{Type: proto.OutboundTypeEnd, Content: proto.EndContent{RoomID: room.ID}}
	h.fanOut(room, end, nil)
	for _, id := range room.Members() {
		if member, ok := h.sessions[id]; ok {
			member.Room = ""
		}
	}
	for _, id := range room.Pending() {
		if waiting, ok := h.sessions[id]; ok {
			waiting.PendingRoom = ""
			waiting.Deliver(end)
		}
	}
	delete(h.rooms, room.ID)

	h.log.Info().Str("room", room.ID).Msg("room ended")
	h.broadcastToAdmins(proto.AdminTypeRoomEnd, proto.EndContent{RoomID: room.ID})
}

func (h *Hub) removeMember(room *Room, c *Client) {
	room.RemoveMember(c.ID)
	c.Room = ""

	h.log.Info().Str("room", room.ID).Str("client_id", c.ID).Msg("member left")
	left := proto.MemberContent{RoomID: room.ID, UserID: c.ID}
	h.broadcastToRoom(room, proto.OutboundTypeLeave, left)
	h.broadcastToAdmins(proto.AdminTypeMemberLeave, proto.UserRoomContent{RoomID: room.ID, UserID: c.ID})
}

func (h *Hub) cancelPending(c *Client) {
	if c.PendingRoom == "" {
		return
	}
	room, ok := h.rooms[c.PendingRoom]
	c.PendingRoom = ""
	if !ok || !room.RemovePending(c.ID) {
		return
	}
	if host, ok := h.sessions[room.Host]; ok {
		h.send(host, proto.OutboundTypeLeave, proto.MemberContent{RoomID: room.ID, UserID: c.ID})
	}
}

func (h *Hub) message(c *Client, text string) *CoreError {
	room, err := h.roomOf(c)
	if err != nil {
		return err
	}
	msg := room.AppendMessage(c.ID, text, h.opts.Now())
	h.broadcastToRoom(room, proto.OutboundTypeMessage, chatMessage(msg))
	return nil
}

// election and demotion check permission, then moderator status, then membership.
func (h *Hub) election(c *Client, target string) *CoreError {
	room, err := h.roomOf(c)
	if err != nil {
		return err
	}
	if room.Host != c.ID {
		return permissionDenied()
	}
	if room.IsModerator(target) {
		return invalidState("Member %s is already a moderator.", target)
	}
	if !room.IsMember(target) {
		return invalidState("Unknown member %s.", target)
	}

	room.AddModerator(target)
	content := proto.MemberContent{RoomID: room.ID, UserID: target}
	h.broadcastToRoom(room, proto.OutboundTypeElection, content)
	h.broadcastToAdmins(proto.AdminTypeUserElection, proto.UserRoomContent(content))
	return nil
}

func (h *Hub) demotion(c *Client, target string) *CoreError {
	room, err := h.roomOf(c)
	if err != nil {
		return err
	}
	if room.Host != c.ID {
		return permissionDenied()
	}
	if !room.IsModerator(target) {
		return invalidState("Member %s is not a moderator.", target)
	}
	if !room.IsMember(target) {
		return invalidState("Unknown member %s.", target)
	}

	room.RemoveModerator(target)
	content := proto.MemberContent{RoomID: room.ID, UserID: target}
	h.broadcastToRoom(room, proto.OutboundTypeDemotion, content)
	h.broadcastToAdmins(proto.AdminTypeUserDemotion, proto.UserRoomContent(content))
	return nil
}

func (h *Hub) pause(c *Client, p proto.PauseData, raw json.RawMessage) *CoreError {
	room, err := h.playbackRoom(c)
	if err != nil {
		return err
	}
	room.IsPaused = p.IsPaused
	h.broadcastToRoom(room, proto.OutboundTypePause, raw)
	return nil
}

func (h *Hub) sync(c *Client, raw json.RawMessage) *CoreError {
	room, err := h.playbackRoom(c)
	if err != nil {
		return err
	}
	h.broadcastToRoom(room, proto.OutboundTypeSync, raw)
	return nil
}

func (h *Hub) upload(c *Client, media string, raw json.RawMessage) *CoreError {
	room, err := h.roomOf(c)
	if err != nil {
		return err
	}
	if room.Host != c.ID {
		return permissionDenied()
	}
	room.MediaName = media
	h.log.Info().Str("room", room.ID).Str("media", media).Msg("media changed")
	h.broadcastToRoom(room, proto.OutboundTypeUpload, raw)
	return nil
}

func (h *Hub) query(c *Client) {
	h.send(c, proto.OutboundTypeQueryResult, proto.QueryResultContent{Rooms: h.roomSummaries(true)})
}

// relayBinary forwards a host media frame verbatim to the other members.
func (h *Hub) relayBinary(c *Client, frame []byte) *CoreError {
	room, err := h.roomOf(c)
	if err != nil {
		return err
	}
	if room.Host != c.ID {
		return permissionDenied()
	}
	if frame == nil {
		frame = []byte{}
	}
	h.fanOut(room, &Event{Binary: frame}, []string{c.ID})
	return nil
}

func (h *Hub) updateProfile(c *Client, p proto.RegisterData) *CoreError {
	if c.Room != "" || c.PendingRoom != "" {
		return invalidState("Cannot change profile while in a room.")
	}
	if p.UserName != "" {
		c.Name = p.UserName
	}
	c.Avatar = p.Avatar
	h.send(c, proto.OutboundTypeInfo, proto.InfoContent{UserID: c.ID, UserName: c.Name, Avatar: c.Avatar})
	h.broadcastToAdmins(proto.AdminTypeConnection, proto.ConnectionContent{Profile: profileOf(c), Connected: true})
	return nil
}

func (h *Hub) requireNoRoom(c *Client) *CoreError {
	if c.Room != "" {
		return errAlreadyInRoom()
	}
	if c.PendingRoom != "" {
		return invalidState("You already have a pending request for room %s.", c.PendingRoom)
	}
	return nil
}

func (h *Hub) roomOf(c *Client) (*Room, *CoreError) {
	room, ok := h.rooms[c.Room]
	if !ok || !room.IsMember(c.ID) {
		return nil, errNotInRoom()
	}
	return room, nil
}

func (h *Hub) playbackRoom(c *Client) (*Room, *CoreError) {
	room, err := h.roomOf(c)
	if err != nil {
		return nil, err
	}
	if !room.CanControlPlayback(c.ID) {
		return nil, permissionDenied()
	}
	return room, nil
}
