package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// BreakerState is the circuit breaker's position.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// CircuitBreaker isolates a failing upstream. Closed executes normally and
// counts consecutive failures; at the threshold it opens and fast-fails.
// After the recovery timeout one call is let through as a half-open probe:
// success closes the circuit, failure re-opens it.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	clock            clockwork.Clock
	logger           *slog.Logger

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
}

// NewCircuitBreaker creates a closed breaker. Non-positive arguments select
// a threshold of 5 and a 30s recovery timeout; a nil clock selects real
// time.
func NewCircuitBreaker(name string, failureThreshold int, recoveryTimeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 30 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		clock:            clock,
		logger:           logger,
		state:            StateClosed,
	}
}

// Execute runs op under the breaker. While open it returns [ErrCircuitOpen]
// without invoking op.
func (b *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	if opErr := op(ctx); opErr != nil {
		b.onFailure(probe)
		return opErr
	}
	b.onSuccess()
	return nil
}

// admit decides whether a call may proceed and whether it is the half-open
// probe.
func (b *CircuitBreaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil
	case StateHalfOpen:
		// A probe is already in flight; only one at a time.
		return false, ErrCircuitOpen
	default: // StateOpen
		if b.clock.Since(b.lastFailure) < b.recoveryTimeout {
			return false, ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.logger.Info("circuit breaker probing", "name", b.name)
		return true, nil
	}
}

func (b *CircuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		b.logger.Info("circuit breaker closed", "name", b.name, "from", b.state)
	}
	b.state = StateClosed
	b.failures = 0
}

func (b *CircuitBreaker) onFailure(probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.clock.Now()

	if probe {
		b.state = StateOpen
		b.logger.Warn("circuit breaker probe failed, reopening", "name", b.name)
		return
	}

	b.failures++
	if b.state == StateClosed && b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.logger.Error("circuit breaker opened",
			"name", b.name,
			"failures", b.failures,
			"threshold", b.failureThreshold,
		)
	}
}

// State returns the current position for metrics and tests.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
