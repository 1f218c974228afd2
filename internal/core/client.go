package core

import "sync"

// Client is one live authenticated connection as seen by the core layer.
// Identity fields are set once from the verified token claims at handshake
// and never change for the lifetime of the session.
type Client struct {
	SessionID string
	UserID    int64
	Name      string

	Commands chan *Command
	Events   chan *Event

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(sessionID string, userID int64, name string) *Client {
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		Name:      name,
		Commands:  make(chan *Command, 8),
		Events:    make(chan *Event, 32),
		done:      make(chan struct{}),
	}
}

// Done is closed when the session has been torn down. Transports select on it
// so they never block feeding Commands to a dead session.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// deliver queues an event without blocking. Slow consumers drop events; the
// live channel is best-effort by design, history is the durable record.
func (c *Client) deliver(ev *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// close tears the session down exactly once. Events is closed so transport
// write loops terminate; Commands stays open since transports own that side.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	close(c.Events)
}
