package resilience

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
)

// Operation is a cancellable unit of work producing a value.
type Operation[T any] func(ctx context.Context) (T, error)

// RetryResult carries the final value and how many attempts it took.
type RetryResult[T any] struct {
	Value    T
	Attempts int
}

// RetryConfig tunes the backoff schedule.
type RetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
	ShouldRetry func(error) bool
}

// DefaultRetryConfig returns the stock schedule: 5 attempts, 1s base delay
// doubling to a 16s cap, with jitter, retrying transient failures only.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  5,
		BaseDelay:   time.Second,
		MaxDelay:    16 * time.Second,
		Jitter:      true,
		ShouldRetry: DefaultShouldRetry,
	}
}

// Retrier re-runs failing operations with exponential backoff. Retries for
// one logical operation are strictly sequential.
type Retrier struct {
	cfg    RetryConfig
	clock  clockwork.Clock
	logger *slog.Logger
	rand   func() float64
}

// NewRetrier creates a Retrier. Zero-valued config fields take the stock
// defaults; a nil clock selects real time.
func NewRetrier(cfg RetryConfig, clock clockwork.Clock, logger *slog.Logger) *Retrier {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 16 * time.Second
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = DefaultShouldRetry
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{cfg: cfg, clock: clock, logger: logger, rand: rand.Float64}
}

// Retry runs op until it succeeds, the predicate rejects its error, the
// context is cancelled, or the attempt budget is spent. Non-retryable
// errors propagate immediately; exhaustion returns a [RetryExhaustedError]
// wrapping the last failure.
func Retry[T any](ctx context.Context, r *Retrier, op Operation[T]) (RetryResult[T], error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < r.cfg.MaxRetries; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return RetryResult[T]{Value: value, Attempts: attempt + 1}, nil
		}
		lastErr = err

		if !r.cfg.ShouldRetry(err) {
			return RetryResult[T]{Attempts: attempt + 1}, err
		}
		if attempt == r.cfg.MaxRetries-1 {
			break
		}

		delay := r.delayFor(attempt)
		r.logger.Warn("operation failed, retrying",
			"attempt", attempt+1,
			"max_attempts", r.cfg.MaxRetries,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return RetryResult[T]{Value: zero, Attempts: attempt + 1}, ctx.Err()
		case <-r.clock.After(delay):
		}
	}

	return RetryResult[T]{Attempts: r.cfg.MaxRetries},
		&RetryExhaustedError{Attempts: r.cfg.MaxRetries, LastErr: lastErr}
}

// delayFor computes min(base*2^attempt, max), with up to 25% symmetric
// random jitter when enabled, floored at zero.
func (r *Retrier) delayFor(attempt int) time.Duration {
	delay := r.cfg.BaseDelay << uint(attempt)
	if delay > r.cfg.MaxDelay || delay <= 0 {
		delay = r.cfg.MaxDelay
	}
	if r.cfg.Jitter {
		jitter := (r.rand() - 0.5) * 0.5 * float64(delay)
		delay += time.Duration(jitter)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}
