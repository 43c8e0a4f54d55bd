package resilience

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type cacheEntry[V any] struct {
	value      V
	insertedAt time.Time
	ttl        time.Duration
}

func (e cacheEntry[V]) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// FallbackCache is a keyed TTL cache whose expired entries remain readable
// through GetStale, so a fetch failure can still be answered with the most
// recent known value.
type FallbackCache[V any] struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]cacheEntry[V]
}

// NewFallbackCache creates an empty cache. A nil clock selects real time.
func NewFallbackCache[V any](clock clockwork.Clock) *FallbackCache[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FallbackCache[V]{clock: clock, entries: make(map[string]cacheEntry[V])}
}

// Set stores value under key with its own TTL.
func (c *FallbackCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, insertedAt: c.clock.Now(), ttl: ttl}
}

// Get returns the value if it is still fresh. Expired entries are evicted
// and reported absent.
func (c *FallbackCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if entry.expired(c.clock.Now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// GetStale returns the value regardless of freshness, reporting whether it
// has expired. The fallback path uses this after an upstream failure.
func (c *FallbackCache[V]) GetStale(key string) (value V, ok bool, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		var zero V
		return zero, false, false
	}
	return entry.value, true, entry.expired(c.clock.Now())
}

// Cleanup purges all expired entries and returns how many were removed.
func (c *FallbackCache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries, fresh or stale.
func (c *FallbackCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
