// Package analysis orchestrates one correlation request end to end: fetch
// both datasets, align, validate integrity, correlate, and aggregate.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/lunar-crime-service/internal/align"
	"github.com/couchcryptid/lunar-crime-service/internal/correlate"
	"github.com/couchcryptid/lunar-crime-service/internal/domain"
	"github.com/couchcryptid/lunar-crime-service/internal/integrity"
	"github.com/couchcryptid/lunar-crime-service/internal/observability"
)

// CrimeFetcher produces validated crime incidents for a location and range.
type CrimeFetcher interface {
	FetchIncidents(ctx context.Context, location domain.GeographicCoordinate, dateRange domain.TimeRange) ([]domain.CrimeIncident, error)
}

// MoonFetcher produces validated lunar observations for a location and range.
type MoonFetcher interface {
	FetchPhases(ctx context.Context, location domain.GeographicCoordinate, dateRange domain.TimeRange) ([]domain.MoonPhaseData, error)
}

// RecordSink optionally persists validated records (insert-only). A nil
// sink disables persistence.
type RecordSink interface {
	PublishRecords(ctx context.Context, crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData) error
}

// Request identifies the jurisdiction and window to analyze.
type Request struct {
	Location  domain.GeographicCoordinate `json:"location"`
	DateRange domain.TimeRange            `json:"date_range"`
}

// Result is the full analysis response serialized by the route layer.
type Result struct {
	Alignment          align.Result           `json:"alignment"`
	AlignmentIntegrity align.IntegrityCheck   `json:"alignment_integrity"`
	AlignmentStats     align.Statistics       `json:"alignment_statistics"`
	IntegrityReport    integrity.Report       `json:"integrity_report"`
	Correlations       []correlate.Result     `json:"correlations"`
	Summary            correlate.Summary      `json:"summary"`
	Trends             []correlate.Trend      `json:"trends"`
	Pattern            correlate.Pattern      `json:"pattern"`
	Anomalies          []correlate.Result     `json:"anomalies"`
}

// Service wires the fetchers to the analysis engines.
type Service struct {
	crimes    CrimeFetcher
	phases    MoonFetcher
	sink      RecordSink
	aligner   *align.Aligner
	validator *integrity.Validator
	engine    *correlate.Engine
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Service. sink may be nil.
func New(crimes CrimeFetcher, phases MoonFetcher, sink RecordSink, aligner *align.Aligner, validator *integrity.Validator, engine *correlate.Engine, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		crimes:    crimes,
		phases:    phases,
		sink:      sink,
		aligner:   aligner,
		validator: validator,
		engine:    engine,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the service has completed at least one
// analysis.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("service has not completed any analysis yet")
	}
	return nil
}

// Run fetches both datasets and performs the complete analysis. Fetch
// failures propagate; empty datasets do not, they produce well-defined
// empty results.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	crimes, err := s.crimes.FetchIncidents(ctx, req.Location, req.DateRange)
	if err != nil {
		s.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("fetch crime incidents: %w", err)
	}
	moonPhases, err := s.phases.FetchPhases(ctx, req.Location, req.DateRange)
	if err != nil {
		s.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("fetch moon phases: %w", err)
	}

	if s.sink != nil {
		// Best-effort: persistence failures never block the analysis.
		if sinkErr := s.sink.PublishRecords(ctx, crimes, moonPhases); sinkErr != nil {
			s.logger.Warn("record sink publish failed", "error", sinkErr)
		}
	}

	result := s.Analyze(crimes, moonPhases, req.Location, req.DateRange)

	s.logger.Info("analysis complete",
		"crimes", len(crimes),
		"moon_phases", len(moonPhases),
		"correlations", len(result.Correlations),
		"significant", len(result.Summary.SignificantResults),
		"alignment_accuracy", result.Alignment.AlignmentAccuracy,
	)
	return result, nil
}

// Analyze runs the pure computation over already-fetched collections. The
// aligner and validator work independently over the same inputs; neither
// feeds the correlation engine, which does its own nearest-phase matching.
func (s *Service) Analyze(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData, location domain.GeographicCoordinate, dateRange domain.TimeRange) Result {
	start := time.Now()

	alignment := s.aligner.Align(crimes, moonPhases)
	correlations := s.engine.Correlate(crimes, moonPhases)
	trends := s.engine.AnalyzeTrends(crimes, moonPhases)

	result := Result{
		Alignment:          alignment,
		AlignmentIntegrity: s.aligner.ValidateIntegrity(alignment),
		AlignmentStats:     s.aligner.Statistics(alignment),
		IntegrityReport:    s.validator.GenerateReport(crimes, moonPhases, dateRange),
		Correlations:       correlations,
		Summary:            s.engine.Summarize(correlations, crimes, location, dateRange),
		Trends:             trends,
		Pattern:            s.engine.DetectPatterns(trends),
		Anomalies:          s.engine.DetectAnomalies(correlations, 0),
	}

	s.metrics.AnalysesTotal.WithLabelValues("success").Inc()
	s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	s.metrics.CrimesAnalyzed.Add(float64(len(crimes)))
	s.metrics.ServiceReady.Set(1)
	s.ready.Store(true)

	return result
}
