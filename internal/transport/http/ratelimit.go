package http

import "time"

// rateLimiter is a fixed-window counter for one connection. It is used from
// the connection's read loop only, so no locking is needed.
type rateLimiter struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
}

// newRateLimiter caps events per minute. A zero or negative limit disables
// limiting.
func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limit:  perMinute,
		window: time.Minute,
	}
}

func (r *rateLimiter) allow() bool {
	if r.limit <= 0 {
		return true
	}
	now := time.Now()
	if now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}
	if r.count >= r.limit {
		return false
	}
	r.count++
	return true
}
