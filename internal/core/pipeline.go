package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

const (
	submitQueueSize = 128
	persistTimeout  = 5 * time.Second
)

type submission struct {
	client        *Client
	content       string
	correlationID string
}

// Pipeline is the persist-then-broadcast hot path. Each room gets its own
// worker goroutine, so messages within a room are persisted and fanned out
// in the exact order they were accepted, while rooms never stall each other.
type Pipeline struct {
	store    store.MessageStore
	registry *Registry
	log      *zerolog.Logger

	mu         sync.Mutex
	queues     map[string]chan submission
	closed     bool
	submitters sync.WaitGroup
	wg         sync.WaitGroup
}

// NewPipeline constructs a pipeline over the given message store and registry.
func NewPipeline(st store.MessageStore, registry *Registry, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    st,
		registry: registry,
		log:      logger,
		queues:   make(map[string]chan submission),
	}
}

// Submit validates and accepts a message for the given room. Validation
// failures are returned synchronously and surface only to the submitter;
// nothing is persisted. Acceptance order defines broadcast order per room.
func (p *Pipeline) Submit(c *Client, room, content, correlationID string) *CoreError {
	if room == "" {
		return coreError(ErrCodeBadRequest, "room is required")
	}
	if strings.TrimSpace(content) == "" {
		return coreError(ErrCodeBadRequest, "content is required")
	}
	if current, ok := p.registry.RoomOf(c.SessionID); !ok || current != room {
		return coreError(ErrCodeNotInRoom, "join the room before sending")
	}

	queue, err := p.acquire(room)
	if err != nil {
		return err
	}
	defer p.submitters.Done()

	select {
	case queue <- submission{client: c, content: content, correlationID: correlationID}:
		return nil
	case <-c.Done():
		// Session died before acceptance; nothing was persisted.
		return coreError(ErrCodeBadRequest, "session closed")
	}
}

// acquire returns the room's worker queue, starting the worker on first use,
// and registers the caller as an in-flight submitter so Close never closes a
// queue a send is racing toward.
func (p *Pipeline) acquire(room string) (chan submission, *CoreError) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, coreError(ErrCodeBadRequest, "pipeline closed")
	}
	queue, ok := p.queues[room]
	if !ok {
		queue = make(chan submission, submitQueueSize)
		p.queues[room] = queue
		p.wg.Add(1)
		go p.worker(room, queue)
	}
	p.submitters.Add(1)
	return queue, nil
}

func (p *Pipeline) worker(room string, queue chan submission) {
	defer p.wg.Done()

	for sub := range queue {
		p.process(room, sub)
	}
}

func (p *Pipeline) process(room string, sub submission) {
	// Persistence is deliberately detached from the submitter's lifetime: a
	// client disconnecting mid-submission does not roll the message back.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rec := &store.Message{
		Room:      room,
		Sender:    sub.client.Name,
		Content:   sub.content,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.SaveMessage(ctx, rec); err != nil {
		// No broadcast on persistence failure: clients must never see a
		// message the server did not confirm.
		p.log.Error().Err(err).Str("room", room).Str("sender", sub.client.Name).Msg("failed to persist message")
		return
	}

	ev := &Event{
		Kind: EventRoomMessage,
		Room: room,
		Message: Message{
			ID:        rec.ID,
			Room:      rec.Room,
			Sender:    rec.Sender,
			Content:   rec.Content,
			CreatedAt: rec.CreatedAt,
		},
		CorrelationID: sub.correlationID,
	}

	// Fan out to the current membership snapshot, the sender included; its
	// own copy carries the correlation id it needs for reconciliation.
	for _, member := range p.registry.Members(room) {
		if !member.deliver(ev) {
			p.log.Debug().Str("room", room).Str("session_id", member.SessionID).Msg("dropped event for slow session")
		}
	}
}

// Close drains and stops all room workers. Submit fails afterwards.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	queues := make([]chan submission, 0, len(p.queues))
	for _, queue := range p.queues {
		queues = append(queues, queue)
	}
	p.mu.Unlock()

	// Let in-flight sends land before closing; the workers keep draining
	// until then.
	p.submitters.Wait()
	for _, queue := range queues {
		close(queue)
	}
	p.wg.Wait()
}
