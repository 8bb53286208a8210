package generation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// window is one user's fixed-window request counter.
type window struct {
	start time.Time
	count int
}

// rateLimiter enforces a per-user fixed-window request quota. The window
// length and limit come from the caller's tier on every call, so a tier
// upgrade takes effect on the next request without any state migration.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[uuid.UUID]*window

	// now is swappable for tests.
	now func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		windows: make(map[uuid.UUID]*window),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// allow consumes one request from the user's window if the quota permits.
// The check and the decrement are one critical section, so concurrent
// requests cannot overdraw the quota.
func (l *rateLimiter) allow(userID uuid.UUID, limit int, period time.Duration) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[userID]
	if !ok || now.Sub(w.start) >= period {
		l.windows[userID] = &window{start: now, count: 1}
		return true
	}

	if w.count >= limit {
		return false
	}

	w.count++
	return true
}
