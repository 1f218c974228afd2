package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoinRoom    = "join-room"
	InboundTypeLeaveRoom   = "leave-room"
	InboundTypeSendMessage = "send-message"

	OutboundTypeNewMessage = "new-message"
	OutboundTypeHistory    = "history"
	OutboundTypeUserJoined = "user-joined"
	OutboundTypeUserLeft   = "user-left"
	OutboundTypeError      = "error"
)

// RoomData identifies the room for join and leave requests.
type RoomData struct {
	Room string `json:"room"`
}

// SendMessageData is a chat message submission from the client.
// Sender is accepted for wire compatibility but always ignored: authorship
// comes from the session's verified identity, never from the payload.
type SendMessageData struct {
	Room     string `json:"room"`
	Content  string `json:"content"`
	Sender   string `json:"sender,omitempty"`
	ClientID string `json:"clientId,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Envelope is the client-side counterpart of Outbound with the payload left
// raw for type-dependent decoding.
type Envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// MessageData mirrors the persisted record {id, room, sender, content,
// createdAt}. ClientID is only ever set on broadcast payloads so the
// originating client can reconcile its optimistic entry; it is not part of
// the stored record.
type MessageData struct {
	ID        int64     `json:"id"`
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	ClientID  string    `json:"clientId,omitempty"`
}

// HistoryData delivers a chronological page of past messages for a room.
type HistoryData struct {
	Room     string        `json:"room"`
	Messages []MessageData `json:"messages"`
}

// PresenceData notifies that a user joined or left a room.
type PresenceData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
