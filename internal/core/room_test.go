package core

import (
	"slices"
	"testing"
	"time"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

func TestRoomMembershipOrderAndModerators(t *testing.T) {
	room := NewRoom("r1", "host", proto.RoomTypePublic, 4, "ep1.mp4", false)

	room.AddMember("b")
	room.AddMember("a")
	if room.AddMember("a") {
		t.Fatal("duplicate member added")
	}
	if got := room.Members(); !slices.Equal(got, []string{"host", "b", "a"}) {
		t.Fatalf("members out of join order: %v", got)
	}

	if room.AddModerator("stranger") {
		t.Fatal("non-member became moderator")
	}
	room.AddModerator("a")
	room.RemoveMember("a")
	if room.IsModerator("a") {
		t.Fatal("moderator role survived leaving the room")
	}

	room.AddMember("a")
	if got := room.Members(); !slices.Equal(got, []string{"host", "b", "a"}) {
		t.Fatalf("rejoin should append: %v", got)
	}
}

func TestRoomFullCountsPending(t *testing.T) {
	room := NewRoom("r1", "host", proto.RoomTypePrivate, 3, "", true)
	room.AddPending("x")
	if room.Full() {
		t.Fatal("room full too early")
	}
	room.AddPending("y")
	if !room.Full() {
		t.Fatal("members + pending at capacity must be full")
	}
	room.RemovePending("x")
	if room.Full() {
		t.Fatal("cancelled request still counted")
	}
}

func TestRoomPlaybackAndApprovalRights(t *testing.T) {
	public := NewRoom("p", "host", proto.RoomTypePublic, 4, "", false)
	public.AddMember("m")
	if public.CanControlPlayback("m") || !public.CanControlPlayback("host") {
		t.Fatal("public playback must be host only")
	}

	private := NewRoom("q", "host", proto.RoomTypePrivate, 4, "", false)
	private.AddMember("m")
	if !private.CanControlPlayback("m") || private.CanControlPlayback("outsider") {
		t.Fatal("private playback must be open to members only")
	}
	if private.CanApprove("m") {
		t.Fatal("plain member cannot approve")
	}
	private.AddModerator("m")
	if !private.CanApprove("m") {
		t.Fatal("moderator can approve")
	}
}

func TestRoomMessageIDsAreSequential(t *testing.T) {
	room := NewRoom("r1", "host", proto.RoomTypePublic, 2, "", false)
	now := time.Now()

	first := room.AppendMessage("host", "one", now)
	second := room.AppendMessage("host", "two", now)
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("unexpected ids: %d %d", first.ID, second.ID)
	}

	history := room.History()
	history[0].Text = "mutated"
	if room.History()[0].Text != "one" {
		t.Fatal("history must be a copy")
	}
}
