package core

// Client is a connected session as seen by the core layer.
//
// Room, PendingRoom, IsAdmin and AdminAttempts are owned by the hub goroutine
// and must not be touched from transport code once the client is registered.
type Client struct {
	ID       string
	Name     string
	Avatar   string
	Commands chan *Command
	Events   chan *Event

	Room          string
	PendingRoom   string
	IsAdmin       bool
	AdminAttempts int

	seq          uint64
	loginPending bool
	// adminAccount is the credential name behind IsAdmin.
	adminAccount string
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name, avatar string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:       id,
		Name:     name,
		Avatar:   avatar,
		Commands: make(chan *Command, 32),
		Events:   make(chan *Event, 64),
	}
}

// Deliver enqueues an event without blocking. It reports false when the
// client's queue is full and the event was dropped.
func (c *Client) Deliver(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
