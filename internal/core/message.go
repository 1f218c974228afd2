package core

import "time"

// Message is the domain model for a chat message. Once persisted it is
// immutable; ID and CreatedAt are assigned by the store at persistence time.
type Message struct {
	ID        int64
	Room      string
	Sender    string
	Content   string
	CreatedAt time.Time
}
