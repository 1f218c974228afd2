package client

import (
	"sync"
	"time"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

// EntryStatus tracks whether a view entry has been acknowledged by the server.
type EntryStatus int

const (
	// StatusPending marks an optimistic local entry awaiting its broadcast.
	StatusPending EntryStatus = iota
	// StatusConfirmed marks an entry backed by a persisted server record.
	StatusConfirmed
)

// Entry is one message in the client's room view.
type Entry struct {
	ClientID  string
	ID        int64
	Room      string
	Sender    string
	Content   string
	CreatedAt time.Time
	Status    EntryStatus
}

// View is the client-side message list for the active room. Sending appends a
// pending entry keyed by its correlation id; when the broadcast comes back the
// pending entry is confirmed in place, so a message never shows up twice no
// matter how similar its text is to others.
type View struct {
	mu      sync.Mutex
	room    string
	entries []Entry
	pending map[string]int // clientID -> position in entries
}

// NewView creates an empty view.
func NewView() *View {
	return &View{pending: make(map[string]int)}
}

// Room returns the room the view currently tracks.
func (v *View) Room() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.room
}

// Reset replaces the whole view with a history page. Pending entries are
// discarded; this runs when (re)joining a room, where the server reseeds the
// authoritative record.
func (v *View) Reset(room string, messages []proto.MessageData) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.room = room
	v.entries = make([]Entry, 0, len(messages))
	v.pending = make(map[string]int)
	for _, m := range messages {
		v.entries = append(v.entries, Entry{
			ID:        m.ID,
			Room:      m.Room,
			Sender:    m.Sender,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			Status:    StatusConfirmed,
		})
	}
}

// AppendPending adds an optimistic entry for a just-sent message.
func (v *View) AppendPending(clientID, sender, content string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.pending[clientID] = len(v.entries)
	v.entries = append(v.entries, Entry{
		ClientID:  clientID,
		Room:      v.room,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
		Status:    StatusPending,
	})
}

// Apply folds a broadcast message into the view. A broadcast carrying the
// clientId of a pending entry confirms that entry in place, taking the
// server's id and timestamp; anything else is appended as a new confirmed
// entry.
func (v *View) Apply(msg proto.MessageData) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if msg.Room != v.room {
		return
	}

	confirmed := Entry{
		ClientID:  msg.ClientID,
		ID:        msg.ID,
		Room:      msg.Room,
		Sender:    msg.Sender,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		Status:    StatusConfirmed,
	}

	if msg.ClientID != "" {
		if pos, ok := v.pending[msg.ClientID]; ok {
			v.entries[pos] = confirmed
			delete(v.pending, msg.ClientID)
			return
		}
	}
	v.entries = append(v.entries, confirmed)
}

// Entries returns a snapshot of the view in display order.
func (v *View) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}
