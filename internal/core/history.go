package core

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// History serves bounded, chronological slices of past messages. Read-only.
type History struct {
	store        store.MessageStore
	defaultLimit int
	maxLimit     int
}

// NewHistory constructs a history loader. Zero limits fall back to the
// built-in defaults (50, capped at 200).
func NewHistory(st store.MessageStore, defaultLimit, maxLimit int) *History {
	if defaultLimit <= 0 {
		defaultLimit = defaultHistoryLimit
	}
	if maxLimit <= 0 {
		maxLimit = maxHistoryLimit
	}
	return &History{
		store:        st,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Load returns up to limit messages for the room, oldest first. A zero or
// negative limit means the default; requests above the cap are clamped.
// When before is set, only messages created strictly earlier are returned.
func (h *History) Load(ctx context.Context, room string, limit int, before *time.Time) ([]Message, error) {
	if limit <= 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	records, err := h.store.ListMessages(ctx, room, limit, before)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, Message{
			ID:        rec.ID,
			Room:      rec.Room,
			Sender:    rec.Sender,
			Content:   rec.Content,
			CreatedAt: rec.CreatedAt,
		})
	}
	return messages, nil
}
