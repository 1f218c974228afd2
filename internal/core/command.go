package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendRoomMessage delivers a chat message to room participants.
	CommandSendRoomMessage CommandKind = iota
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
)

// Command represents an action requested by a client. The sender identity is
// never part of a command; it always comes from the client's verified claims.
type Command struct {
	Kind    CommandKind
	Room    string
	Content string
	// CorrelationID is the client-generated id echoed back on the broadcast
	// so the sender can reconcile its optimistic entry. Never persisted.
	CorrelationID string
}
