package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newTestHub(st store.MessageStore) *Hub {
	return NewHub(st, NewHistory(st, 0, 0), testLogger())
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// memStore is an in-memory MessageStore for hub and pipeline tests.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	msgs   []*store.Message
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) SaveMessage(_ context.Context, msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.ID = m.nextID
	m.nextID++
	saved := *msg
	m.msgs = append(m.msgs, &saved)
	return nil
}

func (m *memStore) ListMessages(_ context.Context, room string, limit int, before *time.Time) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*store.Message
	for _, msg := range m.msgs {
		if msg.Room != room {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, msg)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memStore) saved() []*store.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*store.Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// failStore refuses every write, simulating an unavailable message store.
type failStore struct{}

func (failStore) SaveMessage(context.Context, *store.Message) error {
	return errors.New("store unavailable")
}

func (failStore) ListMessages(context.Context, string, int, *time.Time) ([]*store.Message, error) {
	return nil, nil
}
