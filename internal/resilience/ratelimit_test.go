package resilience

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("admits up to the capacity", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		l := NewRateLimiter(3, time.Minute, clock)

		assert.True(t, l.Allow())
		assert.True(t, l.Allow())
		assert.True(t, l.Allow())
		assert.False(t, l.Allow())
	})

	t.Run("rejections do not consume capacity", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		l := NewRateLimiter(2, time.Minute, clock)

		require.True(t, l.Allow())
		clock.Advance(30 * time.Second)
		require.True(t, l.Allow())
		require.False(t, l.Allow())

		// The first admit expires at the minute mark; the rejection above
		// must not have pushed the reset out.
		clock.Advance(31 * time.Second)
		assert.True(t, l.Allow())
	})

	t.Run("window slides", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		l := NewRateLimiter(1, time.Minute, clock)

		require.True(t, l.Allow())
		require.False(t, l.Allow())

		clock.Advance(time.Minute + time.Millisecond)
		assert.True(t, l.Allow())
	})

	t.Run("remaining tracks the open slots", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		l := NewRateLimiter(3, time.Minute, clock)

		assert.Equal(t, 3, l.Remaining())
		l.Allow()
		assert.Equal(t, 2, l.Remaining())
		l.Allow()
		l.Allow()
		assert.Equal(t, 0, l.Remaining())

		clock.Advance(time.Minute + time.Millisecond)
		assert.Equal(t, 3, l.Remaining())
	})

	t.Run("time until reset", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		l := NewRateLimiter(2, time.Minute, clock)

		assert.Equal(t, time.Duration(0), l.TimeUntilReset())

		l.Allow()
		clock.Advance(20 * time.Second)
		assert.Equal(t, 40*time.Second, l.TimeUntilReset())

		clock.Advance(time.Minute)
		assert.Equal(t, time.Duration(0), l.TimeUntilReset())
	})

	t.Run("defaults apply for non positive arguments", func(t *testing.T) {
		l := NewRateLimiter(0, 0, clockwork.NewFakeClock())
		assert.Equal(t, 60, l.Remaining())
	})
}
