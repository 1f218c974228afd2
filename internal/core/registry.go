package core

import "sync"

// Registry tracks which live session belongs to which room. It is an
// explicit, owned structure: every hub (and every test) constructs its own.
// A session is a member of at most one room at any instant; joining a new
// room implicitly leaves the previous one.
//
// Rooms exist here only while they have members. History for a memberless
// room lives in the message store, keyed by name.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]*Client // room name -> session id -> client
	bySession map[string]string             // session id -> room name
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:     make(map[string]map[string]*Client),
		bySession: make(map[string]string),
	}
}

// Join adds the client to the room's member set, leaving any previously
// joined room first. It returns the previous room name ("" if none) and
// whether membership actually changed; re-joining the current room is a
// no-op.
func (r *Registry) Join(c *Client, room string) (prev string, joined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev = r.bySession[c.SessionID]
	if prev == room {
		return "", false
	}
	if prev != "" {
		r.removeLocked(c.SessionID, prev)
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[room] = members
	}
	members[c.SessionID] = c
	r.bySession[c.SessionID] = room

	return prev, true
}

// Leave removes the membership. It is a no-op for non-members.
func (r *Registry) Leave(sessionID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bySession[sessionID] != room {
		return false
	}
	r.removeLocked(sessionID, room)
	delete(r.bySession, sessionID)
	return true
}

// Disconnect removes the session from whatever room it belongs to. The
// transport layer must call this on every disconnect so no stale membership
// leaks.
func (r *Registry) Disconnect(sessionID string) (room string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok = r.bySession[sessionID]
	if !ok {
		return "", false
	}
	r.removeLocked(sessionID, room)
	delete(r.bySession, sessionID)
	return room, true
}

// RoomOf reports the room the session currently belongs to.
func (r *Registry) RoomOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.bySession[sessionID]
	return room, ok
}

// Members returns a snapshot of the room's current members, so a broadcast
// never iterates a set that join/leave is mutating.
func (r *Registry) Members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]*Client, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

func (r *Registry) removeLocked(sessionID, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}
