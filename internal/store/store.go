package store

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message is the persisted chat message record. Rooms have no table of their
// own; the room name is a partition key on messages.
type Message struct {
	ID        int64
	Room      string
	Sender    string
	Content   string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its server-assigned ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages returns up to limit messages for a room in chronological
	// order. When before is non-nil only messages created strictly earlier
	// are returned.
	ListMessages(ctx context.Context, room string, limit int, before *time.Time) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
