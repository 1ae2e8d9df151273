package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
	"github.com/vovakirdan/syncwatch-server/internal/utils"
)

const inboxSize = 256

// AdminCheck is the result of looking up admin credentials.
type AdminCheck struct {
	Exists        bool
	Approved      bool
	PasswordMatch bool
}

// CredentialStore verifies admin accounts. Implementations may block.
type CredentialStore interface {
	CheckAdmin(ctx context.Context, username, password string) (AdminCheck, error)
}

// TokenIssuer mints a bearer token for a freshly authenticated admin.
type TokenIssuer interface {
	IssueAdminToken(username string) (string, error)
}

// LogSource exposes the accumulated server log.
type LogSource interface {
	Snapshot() string
}

// Options configures a Hub. Zero values fall back to defaults.
type Options struct {
	MaxRoomCapacity       int
	MaxAdminLoginAttempts int
	Credentials           CredentialStore
	Tokens                TokenIssuer
	Logs                  LogSource
	// OnShutdown is called from the hub goroutine when an admin requests
	// shutdown (nil error) or a handler fault ends the server.
	OnShutdown func(err error)
	Logger     *zerolog.Logger
	NewRoomID  func() string
	Now        func() time.Time
}

// Hub owns every session, room and the admin audience. All mutation happens
// on the goroutine running Run; other goroutines talk to it through inbox.
type Hub struct {
	inbox chan func()
	done  chan struct{}
	ctx   context.Context

	sessions map[string]*Client
	rooms    map[string]*Room
	admins   map[string]*Client

	opts    Options
	log     *zerolog.Logger
	started time.Time
	seq     uint64
}

// NewHub creates a new hub instance.
func NewHub(opts Options) *Hub {
	if opts.MaxRoomCapacity <= 0 {
		opts.MaxRoomCapacity = 16
	}
	if opts.MaxAdminLoginAttempts <= 0 {
		opts.MaxAdminLoginAttempts = 5
	}
	if opts.NewRoomID == nil {
		opts.NewRoomID = utils.NewRoomID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Hub{
		inbox:    make(chan func(), inboxSize),
		done:     make(chan struct{}),
		ctx:      context.Background(),
		sessions: make(map[string]*Client),
		rooms:    make(map[string]*Room),
		admins:   make(map[string]*Client),
		opts:     opts,
		log:      logger,
		started:  opts.Now(),
	}
}

// Run processes hub operations one at a time until ctx is cancelled or a
// handler faults.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.ctx = ctx

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-h.inbox:
			if err := h.step(fn); err != nil {
				h.fatal(err)
				return
			}
		}
	}
}

func (h *Hub) step(fn func()) error {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		return r.AsError()
	}
	return nil
}

// fatal ends the server after a handler fault. Rooms share one hub, so there is
// no way to isolate the damage.
func (h *Hub) fatal(err error) {
	h.log.Error().Err(err).Msg("hub handler fault, shutting down")
	h.notifyAll("The server encountered an internal error and is shutting down.")
	if h.opts.OnShutdown != nil {
		h.opts.OnShutdown(fmt.Errorf("hub fault: %w", err))
	}
}

func (h *Hub) submit(fn func()) bool {
	select {
	case h.inbox <- fn:
		return true
	case <-h.done:
		return false
	}
}

// RegisterClient adds a session and starts forwarding its commands in order.
func (h *Hub) RegisterClient(c *Client) {
	if !h.submit(func() { h.register(c) }) {
		return
	}
	go h.pump(c)
}

// UnregisterClient queues the disconnect behind every command the client
// already sent.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case c.Commands <- &Command{Kind: CommandDisconnect}:
	case <-h.done:
	}
}

func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if !h.submit(func() { h.dispatch(c, cmd) }) {
				return
			}
			if cmd.Kind == CommandDisconnect {
				return
			}
		case <-h.done:
			return
		}
	}
}

// PublishLog forwards a log line to the admin audience. Lines are dropped
// when the hub is saturated.
func (h *Hub) PublishLog(line string) {
	select {
	case h.inbox <- func() { h.broadcastToAdmins(proto.AdminTypeLog, proto.LogContent{Text: line}) }:
	default:
	}
}

// RoomTable returns the admin room table.
func (h *Hub) RoomTable(ctx context.Context) ([]proto.RoomSummary, error) {
	return query(ctx, h, func() []proto.RoomSummary { return h.roomSummaries(false) })
}

// Stats returns the number of live rooms and sessions.
func (h *Hub) Stats(ctx context.Context) (rooms, clients int, err error) {
	counts, err := query(ctx, h, func() [2]int { return [2]int{len(h.rooms), len(h.sessions)} })
	return counts[0], counts[1], err
}

// AdminActive reports whether account is logged in on a live session.
// Admin API tokens are only honored while this holds.
func (h *Hub) AdminActive(ctx context.Context, account string) (bool, error) {
	return query(ctx, h, func() bool {
		for _, c := range h.admins {
			if c.adminAccount == account {
				return true
			}
		}
		return false
	})
}

func query[T any](ctx context.Context, h *Hub, fn func() T) (T, error) {
	var zero T
	reply := make(chan T, 1)
	select {
	case h.inbox <- func() { reply <- fn() }:
	case <-h.done:
		return zero, ErrHubStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-h.done:
		return zero, ErrHubStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (h *Hub) register(c *Client) {
	for _, taken := h.sessions[c.ID]; taken || c.ID == ""; _, taken = h.sessions[c.ID] {
		c.ID = utils.NewSessionID()
	}
	h.seq++
	c.seq = h.seq
	h.sessions[c.ID] = c

	h.log.Info().Str("client_id", c.ID).Str("name", c.Name).Msg("client connected")
	h.send(c, proto.OutboundTypeInfo, proto.InfoContent{UserID: c.ID, UserName: c.Name, Avatar: c.Avatar})
	h.broadcastToAdmins(proto.AdminTypeConnection, proto.ConnectionContent{Profile: profileOf(c), Connected: true})
}

// disconnect applies every effect of a closed connection in one step.
func (h *Hub) disconnect(c *Client) {
	if _, ok := h.sessions[c.ID]; !ok {
		return
	}

	h.cancelPending(c)
	if room, ok := h.rooms[c.Room]; ok {
		if room.Host == c.ID {
			h.endRoom(room)
		} else {
			h.removeMember(room, c)
		}
	}
	c.Room = ""

	delete(h.admins, c.ID)
	c.IsAdmin = false
	c.adminAccount = ""
	delete(h.sessions, c.ID)
	close(c.Events)

	h.log.Info().Str("client_id", c.ID).Msg("client disconnected")
	h.broadcastToAdmins(proto.AdminTypeConnection, proto.ConnectionContent{Profile: profileOf(c), Connected: false})
}

func (h *Hub) notifyAll(msg string) {
	for _, c := range h.sortedSessions() {
		h.send(c, proto.OutboundTypeInfo, proto.InfoContent{Message: msg})
	}
}

func (h *Hub) sortedSessions() []*Client {
	out := make([]*Client, 0, len(h.sessions))
	for _, c := range h.sessions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (h *Hub) sortedRooms() []*Room {
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func profileOf(c *Client) proto.Profile {
	return proto.Profile{UserID: c.ID, UserName: c.Name, Avatar: c.Avatar}
}
