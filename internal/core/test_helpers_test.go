package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

func mustEvent(t *testing.T, ch <-chan *Event, eventType string) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Type == eventType {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event type %q not received", eventType)
	return nil
}

func mustBinary(t *testing.T, ch <-chan *Event) []byte {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.IsBinary() {
				return ev.Binary
			}
		case <-deadline:
			t.Fatal("binary frame not received")
			return nil
		}
	}
}

func mustError(t *testing.T, c *Client, want string) *proto.Error {
	t.Helper()

	ev := mustEvent(t, c.Events, proto.OutboundTypeError)
	perr, ok := ev.Content.(proto.Error)
	if !ok {
		t.Fatalf("unexpected error content: %#v", ev.Content)
	}
	if perr.Message != want {
		t.Fatalf("expected error %q, got %q", want, perr.Message)
	}
	return &perr
}

// noEvent drains the channel for d and fails if an event of the type shows up.
func noEvent(t *testing.T, ch <-chan *Event, eventType string, d time.Duration) {
	t.Helper()

	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Type == eventType {
				t.Fatalf("unexpected %q event: %+v", eventType, ev)
			}
		case <-timer.C:
			return
		}
	}
}

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(opts)
	go hub.Run(ctx)
	return hub
}

// connect registers a client and waits for its welcome info.
func connect(t *testing.T, hub *Hub, id, name string) *Client {
	t.Helper()

	c := NewClient(id, name, name+".png")
	hub.RegisterClient(c)
	mustEvent(t, c.Events, proto.OutboundTypeInfo)
	return c
}

func hostRoom(t *testing.T, c *Client, roomType string) string {
	t.Helper()

	c.Commands <- &Command{Kind: CommandHost, Payload: proto.HostData{MediaName: "ep1.mp4", RoomType: roomType, IsPaused: true}}
	ev := mustEvent(t, c.Events, proto.OutboundTypeInfo)
	info := ev.Content.(proto.InfoContent)
	if info.RoomID == "" {
		t.Fatalf("expected room id in info, got %+v", info)
	}
	return info.RoomID
}

func joinRoom(t *testing.T, c *Client, roomID string) proto.InitContent {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoin, Payload: proto.JoinData{RoomID: roomID}}
	ev := mustEvent(t, c.Events, proto.OutboundTypeInit)
	return ev.Content.(proto.InitContent)
}

func raw(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

type fakeCredentials struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount
	calls    int
}

type fakeAccount struct {
	password string
	approved bool
}

func (f *fakeCredentials) CheckAdmin(_ context.Context, username, password string) (AdminCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	acc, ok := f.accounts[username]
	if !ok {
		return AdminCheck{}, nil
	}
	return AdminCheck{Exists: true, Approved: acc.approved, PasswordMatch: acc.password == password}, nil
}

type staticLogs string

func (s staticLogs) Snapshot() string { return string(s) }
