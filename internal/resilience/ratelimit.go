package resilience

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RateLimiter admits at most maxRequests calls per sliding window.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clock       clockwork.Clock

	mu         sync.Mutex
	timestamps []time.Time
}

// NewRateLimiter creates a limiter. Non-positive arguments select 60
// requests per minute; a nil clock selects real time.
func NewRateLimiter(maxRequests int, window time.Duration, clock clockwork.Clock) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{maxRequests: maxRequests, window: window, clock: clock}
}

// Allow prunes expired timestamps, then admits and records the call if the
// window has room. Rejected calls are not recorded.
func (l *RateLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	if len(l.timestamps) >= l.maxRequests {
		return false
	}
	l.timestamps = append(l.timestamps, l.clock.Now())
	return true
}

// Remaining reports how many calls the current window still admits.
func (l *RateLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	return l.maxRequests - len(l.timestamps)
}

// TimeUntilReset reports how long until the oldest recorded call leaves the
// window: zero when the window is empty, floored at zero otherwise.
func (l *RateLimiter) TimeUntilReset() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	if len(l.timestamps) == 0 {
		return 0
	}
	until := l.window - l.clock.Since(l.timestamps[0])
	if until < 0 {
		return 0
	}
	return until
}

// prune drops timestamps older than the window. Callers hold the lock.
func (l *RateLimiter) prune() {
	cutoff := l.clock.Now().Add(-l.window)
	keep := 0
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			break
		}
		keep++
	}
	l.timestamps = l.timestamps[keep:]
}
