package usno

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
	"github.com/couchcryptid/lunar-crime-service/internal/observability"
	"github.com/couchcryptid/lunar-crime-service/internal/resilience"
)

const source = "usno"

// Fetcher wraps the client with the full resilience chain and metrics.
// It implements analysis.MoonFetcher.
type Fetcher struct {
	client  *Client
	shield  *resilience.Shield[[]domain.MoonPhaseData]
	breaker *resilience.CircuitBreaker
	metrics *observability.Metrics
}

// NewFetcher builds the resilient moon phase fetcher with its own isolated
// resilience instances.
func NewFetcher(client *Client, limiter *resilience.RateLimiter, breaker *resilience.CircuitBreaker, retrier *resilience.Retrier, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	client.Dropped = func(count int) {
		metrics.RecordsDropped.WithLabelValues(source).Add(float64(count))
	}

	shield := &resilience.Shield[[]domain.MoonPhaseData]{
		Limiter: limiter,
		Breaker: breaker,
		Retrier: retrier,
		Cache:   resilience.NewFallbackCache[[]domain.MoonPhaseData](nil),
		TTL:     ttl,
		Logger:  logger,
		Hooks: resilience.Hooks{
			OnCacheHit: func(stale bool) {
				result := "fresh"
				if stale {
					result = "stale"
				}
				metrics.CacheLookups.WithLabelValues(source, result).Inc()
			},
			OnCacheMiss: func() {
				metrics.CacheLookups.WithLabelValues(source, "miss").Inc()
			},
			OnRateLimited: func() {
				metrics.RateLimitRejections.WithLabelValues(source).Inc()
			},
			OnAttempt: func() {
				metrics.RetryAttempts.WithLabelValues(source).Inc()
			},
		},
	}

	return &Fetcher{client: client, shield: shield, breaker: breaker, metrics: metrics}
}

// FetchPhases fetches through the resilience chain and records metrics.
func (f *Fetcher) FetchPhases(ctx context.Context, location domain.GeographicCoordinate, dateRange domain.TimeRange) ([]domain.MoonPhaseData, error) {
	key := fmt.Sprintf("%.4f,%.4f|%s|%s",
		location.Latitude, location.Longitude,
		dateRange.Start.UTC().Format(time.RFC3339),
		dateRange.End.UTC().Format(time.RFC3339))
	start := time.Now()

	phases, err := f.shield.Do(ctx, key, func(ctx context.Context) ([]domain.MoonPhaseData, error) {
		return f.client.FetchPhases(ctx, location, dateRange)
	})

	f.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	f.metrics.BreakerState.WithLabelValues(source).Set(breakerStateValue(f.breaker.State()))
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	f.metrics.FetchRequests.WithLabelValues(source, outcome).Inc()

	return phases, err
}

func breakerStateValue(state resilience.BreakerState) float64 {
	switch state {
	case resilience.StateOpen:
		return 1
	case resilience.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
