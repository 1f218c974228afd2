package http

import (
	"testing"
	"time"
)

func TestRateLimiterCapsWithinWindow(t *testing.T) {
	rl := newRateLimiter(3)
	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("request %d unexpectedly limited", i)
		}
	}
	if rl.allow() {
		t.Fatal("expected the fourth request to be limited")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := newRateLimiter(1)
	rl.window = 10 * time.Millisecond

	if !rl.allow() {
		t.Fatal("first request limited")
	}
	if rl.allow() {
		t.Fatal("second request allowed within window")
	}

	time.Sleep(15 * time.Millisecond)
	if !rl.allow() {
		t.Fatal("window rollover did not reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0)
	for i := 0; i < 100; i++ {
		if !rl.allow() {
			t.Fatal("disabled limiter must always allow")
		}
	}
}
