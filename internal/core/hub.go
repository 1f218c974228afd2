package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

const historySeedTimeout = 5 * time.Second

// Hub coordinates live sessions: it owns the room registry and the message
// pipeline, dispatches client commands, and seeds history on join. One hub
// per process; room authority is single-process by design.
type Hub struct {
	registry *Registry
	pipeline *Pipeline
	history  *History
	log      *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Client
	wg       sync.WaitGroup
}

// NewHub constructs a hub with its own registry and pipeline.
func NewHub(st store.MessageStore, history *History, logger *zerolog.Logger) *Hub {
	registry := NewRegistry()
	return &Hub{
		registry: registry,
		pipeline: NewPipeline(st, registry, logger),
		history:  history,
		log:      logger,
		sessions: make(map[string]*Client),
	}
}

// Registry exposes the membership table, mainly so transports and tests can
// assert on it.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// RegisterClient admits an authenticated session and starts serving its
// commands. The transport must pair this with UnregisterClient on disconnect.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	h.sessions[c.SessionID] = c
	total := len(h.sessions)
	h.mu.Unlock()

	h.log.Info().Str("session_id", c.SessionID).Str("user", c.Name).Int("sessions", total).Msg("session registered")

	h.wg.Add(1)
	go h.serveClient(c)
}

// UnregisterClient tears a session down: membership is removed, remaining
// room members are notified, and the session's event channel is closed.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.sessions[c.SessionID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, c.SessionID)
	total := len(h.sessions)
	h.mu.Unlock()

	if room, ok := h.registry.Disconnect(c.SessionID); ok {
		h.broadcast(room, &Event{Kind: EventUserLeft, Room: room, User: c.Name})
	}
	c.close()

	h.log.Info().Str("session_id", c.SessionID).Str("user", c.Name).Int("sessions", total).Msg("session unregistered")
}

// Run blocks until the context is cancelled, then shuts the hub down.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.Shutdown()
}

// Shutdown disconnects every session and stops the pipeline workers.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Client, 0, len(h.sessions))
	for _, c := range h.sessions {
		sessions = append(sessions, c)
	}
	h.mu.Unlock()

	for _, c := range sessions {
		h.UnregisterClient(c)
	}
	h.wg.Wait()
	h.pipeline.Close()
}

func (h *Hub) serveClient(c *Client) {
	defer h.wg.Done()

	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			h.dispatch(c, cmd)
		case <-c.Done():
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd.Room)
	case CommandLeaveRoom:
		h.handleLeave(c, cmd.Room)
	case CommandSendRoomMessage:
		if cerr := h.pipeline.Submit(c, cmd.Room, cmd.Content, cmd.CorrelationID); cerr != nil {
			c.deliver(&Event{Kind: EventError, Room: cmd.Room, Error: cerr})
		}
	default:
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) handleJoin(c *Client, room string) {
	if room == "" {
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "room is required")})
		return
	}

	prev, joined := h.registry.Join(c, room)
	if joined {
		if prev != "" {
			// Single-active-room policy: switching rooms leaves the old one.
			h.broadcast(prev, &Event{Kind: EventUserLeft, Room: prev, User: c.Name})
		}
		h.broadcast(room, &Event{Kind: EventUserJoined, Room: room, User: c.Name})
		h.log.Debug().Str("session_id", c.SessionID).Str("user", c.Name).Str("room", room).Msg("joined room")
	}

	// Seed the client's view, also on an idempotent re-join (reconnects).
	ctx, cancel := context.WithTimeout(context.Background(), historySeedTimeout)
	defer cancel()
	messages, err := h.history.Load(ctx, room, 0, nil)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to load history for join")
		return
	}
	c.deliver(&Event{Kind: EventHistory, Room: room, Messages: messages})
}

func (h *Hub) handleLeave(c *Client, room string) {
	if !h.registry.Leave(c.SessionID, room) {
		// Leaving a room you are not in is a no-op.
		return
	}
	h.broadcast(room, &Event{Kind: EventUserLeft, Room: room, User: c.Name})
	h.log.Debug().Str("session_id", c.SessionID).Str("user", c.Name).Str("room", room).Msg("left room")
}

func (h *Hub) broadcast(room string, ev *Event) {
	for _, member := range h.registry.Members(room) {
		member.deliver(ev)
	}
}
