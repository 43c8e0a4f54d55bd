package resilience

import (
	"context"
	"log/slog"
	"time"
)

// Hooks receives notifications from a Shield so callers can wire metrics
// without the resilience layer depending on any metrics library. All
// fields are optional.
type Hooks struct {
	OnCacheHit    func(stale bool)
	OnCacheMiss   func()
	OnRateLimited func()
	OnAttempt     func()
}

// Shield composes the four primitives in front of a fetch: fresh cache
// read, rate-limit check, breaker-wrapped retrying call, cache write on
// success, and stale-cache fallback on any failure before the error
// propagates.
//
// The fresh-read and fallback paths both go through GetStale so an expired
// entry survives until a successful fetch replaces it.
type Shield[T any] struct {
	Limiter *RateLimiter
	Breaker *CircuitBreaker
	Retrier *Retrier
	Cache   *FallbackCache[T]
	TTL     time.Duration
	Logger  *slog.Logger
	Hooks   Hooks
}

// Do fetches the value for key through the full resilience chain.
func (s *Shield[T]) Do(ctx context.Context, key string, op Operation[T]) (T, error) {
	if value, ok, stale := s.Cache.GetStale(key); ok && !stale {
		s.notifyCacheHit(false)
		return value, nil
	}
	s.notifyCacheMiss()

	if !s.Limiter.Allow() {
		if s.Hooks.OnRateLimited != nil {
			s.Hooks.OnRateLimited()
		}
		return s.fallback(key, ErrRateLimited)
	}

	var value T
	err := s.Breaker.Execute(ctx, func(ctx context.Context) error {
		result, retryErr := Retry(ctx, s.Retrier, func(ctx context.Context) (T, error) {
			if s.Hooks.OnAttempt != nil {
				s.Hooks.OnAttempt()
			}
			return op(ctx)
		})
		if retryErr != nil {
			return retryErr
		}
		value = result.Value
		return nil
	})
	if err != nil {
		return s.fallback(key, err)
	}

	s.Cache.Set(key, value, s.TTL)
	return value, nil
}

// fallback serves the most recent cached value, even expired, before
// propagating cause.
func (s *Shield[T]) fallback(key string, cause error) (T, error) {
	if value, ok, stale := s.Cache.GetStale(key); ok {
		s.notifyCacheHit(stale)
		s.Logger.Warn("serving cached value after fetch failure",
			"key", key,
			"stale", stale,
			"error", cause,
		)
		return value, nil
	}
	var zero T
	return zero, cause
}

func (s *Shield[T]) notifyCacheHit(stale bool) {
	if s.Hooks.OnCacheHit != nil {
		s.Hooks.OnCacheHit(stale)
	}
}

func (s *Shield[T]) notifyCacheMiss() {
	if s.Hooks.OnCacheMiss != nil {
		s.Hooks.OnCacheMiss()
	}
}
