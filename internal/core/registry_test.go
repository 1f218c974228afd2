package core

import "testing"

func TestRegistrySingleActiveRoom(t *testing.T) {
	r := NewRegistry()
	alice := NewClient("a", 1, "alice")

	prev, joined := r.Join(alice, "general")
	if prev != "" || !joined {
		t.Fatalf("first join: prev=%q joined=%v", prev, joined)
	}

	prev, joined = r.Join(alice, "random")
	if prev != "general" || !joined {
		t.Fatalf("room switch: prev=%q joined=%v", prev, joined)
	}

	// After the switch, membership exists in the new room only.
	if len(r.Members("general")) != 0 {
		t.Fatalf("still a member of general after switching")
	}
	members := r.Members("random")
	if len(members) != 1 || members[0].SessionID != "a" {
		t.Fatalf("unexpected random members: %+v", members)
	}
	if room, ok := r.RoomOf("a"); !ok || room != "random" {
		t.Fatalf("RoomOf: %q %v", room, ok)
	}
}

func TestRegistryJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	alice := NewClient("a", 1, "alice")

	r.Join(alice, "general")
	prev, joined := r.Join(alice, "general")
	if prev != "" || joined {
		t.Fatalf("re-join: prev=%q joined=%v", prev, joined)
	}
	if len(r.Members("general")) != 1 {
		t.Fatalf("duplicate membership after re-join")
	}
}

func TestRegistryLeaveIsNoOpForNonMembers(t *testing.T) {
	r := NewRegistry()
	alice := NewClient("a", 1, "alice")

	if r.Leave("a", "general") {
		t.Fatalf("leave without membership reported true")
	}

	r.Join(alice, "general")
	if r.Leave("a", "other") {
		t.Fatalf("leaving a different room must be a no-op")
	}
	if room, ok := r.RoomOf("a"); !ok || room != "general" {
		t.Fatalf("membership lost by no-op leave: %q %v", room, ok)
	}

	if !r.Leave("a", "general") {
		t.Fatalf("real leave reported false")
	}
	if _, ok := r.RoomOf("a"); ok {
		t.Fatalf("membership survived leave")
	}
}

func TestRegistryDisconnect(t *testing.T) {
	r := NewRegistry()
	alice := NewClient("a", 1, "alice")
	bob := NewClient("b", 2, "bob")

	r.Join(alice, "general")
	r.Join(bob, "general")

	room, ok := r.Disconnect("a")
	if !ok || room != "general" {
		t.Fatalf("disconnect: room=%q ok=%v", room, ok)
	}
	if _, ok := r.Disconnect("a"); ok {
		t.Fatalf("second disconnect reported a membership")
	}

	members := r.Members("general")
	if len(members) != 1 || members[0].SessionID != "b" {
		t.Fatalf("unexpected members after disconnect: %+v", members)
	}
}

func TestRegistryMembersReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	alice := NewClient("a", 1, "alice")
	bob := NewClient("b", 2, "bob")

	r.Join(alice, "general")
	snapshot := r.Members("general")
	r.Join(bob, "general")

	if len(snapshot) != 1 {
		t.Fatalf("snapshot mutated by later join: %+v", snapshot)
	}
}
