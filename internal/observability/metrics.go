package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// correlation service.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec // labels: outcome={success,error}
	AnalysisDuration prometheus.Histogram
	CrimesAnalyzed   prometheus.Counter
	ServiceReady     prometheus.Gauge

	// Upstream fetch metrics.
	FetchRequests  *prometheus.CounterVec   // labels: source={socrata,usno}, outcome={success,error}
	FetchDuration  *prometheus.HistogramVec // labels: source
	RecordsDropped *prometheus.CounterVec   // labels: source

	// Resilience metrics.
	RetryAttempts       *prometheus.CounterVec // labels: source
	BreakerState        *prometheus.GaugeVec   // labels: source; 0=closed 1=open 2=half_open
	RateLimitRejections *prometheus.CounterVec // labels: source
	CacheLookups        *prometheus.CounterVec // labels: source, result={fresh,stale,miss}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.CrimesAnalyzed,
		m.ServiceReady,
		m.FetchRequests,
		m.FetchDuration,
		m.RecordsDropped,
		m.RetryAttempts,
		m.BreakerState,
		m.RateLimitRejections,
		m.CacheLookups,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunacorr",
			Name:      "analyses_total",
			Help:      "Completed analysis requests by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lunacorr",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete align-validate-correlate pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		CrimesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lunacorr",
			Name:      "crimes_analyzed_total",
			Help:      "Total crime incidents passed through analysis.",
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lunacorr",
			Name:      "service_ready",
			Help:      "1 once the service has completed an analysis.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunacorr",
			Name:      "fetch_requests_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lunacorr",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunacorr",
			Name:      "records_dropped_total",
			Help:      "Upstream records dropped by schema validation.",
		}, []string{"source"}),
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunacorr",
			Name:      "retry_attempts_total",
			Help:      "Retry attempts spent on upstream fetches.",
		}, []string{"source"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lunacorr",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"source"}),
		RateLimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunacorr",
			Name:      "rate_limit_rejections_total",
			Help:      "Fetches rejected by the sliding-window rate limiter.",
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunacorr",
			Name:      "cache_lookups_total",
			Help:      "Fallback cache lookups by source and result.",
		}, []string{"source", "result"}),
	}
}
