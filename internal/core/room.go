package core

import (
	"time"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

// orderedSet keeps insertion order for session IDs.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.items = append(s.items, id)
	return true
}

func (s *orderedSet) remove(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, item := range s.items {
		if item == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *orderedSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *orderedSet) len() int { return len(s.items) }

func (s *orderedSet) list() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Room is a watch party: shared media state, members and chat history.
// Members are session IDs resolved through the hub at send time.
type Room struct {
	ID        string
	Host      string
	Type      string
	Capacity  int
	MediaName string
	IsPaused  bool
	CreatedAt time.Time

	seq        uint64
	members    *orderedSet
	pending    *orderedSet
	moderators *orderedSet
	messages   []Message
	nextMsgID  int64
}

// NewRoom constructs a room whose only member is the host.
func NewRoom(id, host, roomType string, capacity int, media string, paused bool) *Room {
	r := &Room{
		ID:         id,
		Host:       host,
		Type:       roomType,
		Capacity:   capacity,
		MediaName:  media,
		IsPaused:   paused,
		CreatedAt:  time.Now(),
		members:    newOrderedSet(),
		pending:    newOrderedSet(),
		moderators: newOrderedSet(),
	}
	r.members.add(host)
	return r
}

// IsPrivate reports whether joins go through the pending queue.
func (r *Room) IsPrivate() bool {
	return r.Type == proto.RoomTypePrivate
}

// Full reports whether members plus pending requests reached capacity.
func (r *Room) Full() bool {
	return r.members.len()+r.pending.len() >= r.Capacity
}

// AddMember inserts a member. Returns true if newly added.
func (r *Room) AddMember(id string) bool {
	return r.members.add(id)
}

// RemoveMember deletes a member and any moderator role it held.
func (r *Room) RemoveMember(id string) bool {
	r.moderators.remove(id)
	return r.members.remove(id)
}

// IsMember reports membership.
func (r *Room) IsMember(id string) bool { return r.members.has(id) }

// Members returns member IDs in join order.
func (r *Room) Members() []string { return r.members.list() }

// AddPending queues a join request.
func (r *Room) AddPending(id string) bool { return r.pending.add(id) }

// RemovePending drops a join request.
func (r *Room) RemovePending(id string) bool { return r.pending.remove(id) }

// IsPending reports whether id waits for approval.
func (r *Room) IsPending(id string) bool { return r.pending.has(id) }

// Pending returns queued requester IDs in arrival order.
func (r *Room) Pending() []string { return r.pending.list() }

// AddModerator grants the moderator role to a member.
func (r *Room) AddModerator(id string) bool {
	if !r.members.has(id) {
		return false
	}
	return r.moderators.add(id)
}

// RemoveModerator revokes the moderator role.
func (r *Room) RemoveModerator(id string) bool { return r.moderators.remove(id) }

// IsModerator reports whether id holds the moderator role.
func (r *Room) IsModerator(id string) bool { return r.moderators.has(id) }

// Moderators returns moderator IDs in election order.
func (r *Room) Moderators() []string { return r.moderators.list() }

// CanApprove reports whether id may admit pending members.
func (r *Room) CanApprove(id string) bool {
	return id == r.Host || r.moderators.has(id)
}

// CanControlPlayback reports whether id may pause or sync.
// Private rooms trust every member; public rooms only the host.
func (r *Room) CanControlPlayback(id string) bool {
	if r.IsPrivate() {
		return r.members.has(id)
	}
	return id == r.Host
}

// AppendMessage stores a chat message under a fresh room-unique ID.
func (r *Room) AppendMessage(from, text string, at time.Time) Message {
	r.nextMsgID++
	msg := Message{
		ID:        r.nextMsgID,
		Room:      r.ID,
		From:      from,
		Text:      text,
		CreatedAt: at,
	}
	r.messages = append(r.messages, msg)
	return msg
}

// History returns a copy of the chat history.
func (r *Room) History() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
