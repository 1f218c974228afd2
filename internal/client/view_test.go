package client

import (
	"testing"
	"time"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func TestViewConfirmsPendingInPlace(t *testing.T) {
	v := NewView()
	v.Reset("general", nil)
	v.AppendPending("c-1", "alice", "hello")

	entries := v.Entries()
	if len(entries) != 1 || entries[0].Status != StatusPending {
		t.Fatalf("expected one pending entry, got %+v", entries)
	}

	serverTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v.Apply(proto.MessageData{
		ID:        42,
		Room:      "general",
		Sender:    "alice",
		Content:   "hello",
		CreatedAt: serverTime,
		ClientID:  "c-1",
	})

	entries = v.Entries()
	if len(entries) != 1 {
		t.Fatalf("echo must not duplicate the entry, got %d entries", len(entries))
	}
	got := entries[0]
	if got.Status != StatusConfirmed {
		t.Fatal("entry not confirmed")
	}
	if got.ID != 42 {
		t.Fatalf("server id not taken: %d", got.ID)
	}
	if !got.CreatedAt.Equal(serverTime) {
		t.Fatalf("server timestamp must replace the local one, got %v", got.CreatedAt)
	}
}

func TestViewDuplicateTextStaysSeparate(t *testing.T) {
	v := NewView()
	v.Reset("general", nil)
	v.AppendPending("c-1", "alice", "same text")
	v.AppendPending("c-2", "alice", "same text")

	// Echoes arrive out of order; each must confirm its own entry.
	v.Apply(proto.MessageData{ID: 2, Room: "general", Sender: "alice", Content: "same text", ClientID: "c-2"})
	v.Apply(proto.MessageData{ID: 1, Room: "general", Sender: "alice", Content: "same text", ClientID: "c-1"})

	entries := v.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != 1 || entries[1].ID != 2 {
		t.Fatalf("entries confirmed against the wrong pending: %+v", entries)
	}
	for _, e := range entries {
		if e.Status != StatusConfirmed {
			t.Fatalf("entry not confirmed: %+v", e)
		}
	}
}

func TestViewForeignMessageAppends(t *testing.T) {
	v := NewView()
	v.Reset("general", nil)
	v.AppendPending("c-1", "alice", "mine")

	v.Apply(proto.MessageData{ID: 5, Room: "general", Sender: "bob", Content: "theirs", ClientID: "b-9"})

	entries := v.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != StatusPending || entries[1].Sender != "bob" {
		t.Fatalf("unexpected view: %+v", entries)
	}
}

func TestViewIgnoresOtherRooms(t *testing.T) {
	v := NewView()
	v.Reset("general", nil)

	v.Apply(proto.MessageData{ID: 1, Room: "random", Sender: "bob", Content: "elsewhere"})

	if entries := v.Entries(); len(entries) != 0 {
		t.Fatalf("message for another room leaked into the view: %+v", entries)
	}
}

func TestViewResetDropsPending(t *testing.T) {
	v := NewView()
	v.Reset("general", nil)
	v.AppendPending("c-1", "alice", "in flight")

	v.Reset("general", []proto.MessageData{
		{ID: 1, Room: "general", Sender: "bob", Content: "from history"},
	})

	entries := v.Entries()
	if len(entries) != 1 || entries[0].Content != "from history" {
		t.Fatalf("reset must replace the view, got %+v", entries)
	}

	// A late echo for the dropped pending entry appends instead of indexing
	// into the discarded slice.
	v.Apply(proto.MessageData{ID: 2, Room: "general", Sender: "alice", Content: "in flight", ClientID: "c-1"})
	entries = v.Entries()
	if len(entries) != 2 || entries[1].ID != 2 {
		t.Fatalf("late echo handled wrong: %+v", entries)
	}
}
