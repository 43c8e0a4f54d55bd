package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/lunar-crime-service/internal/analysis"
	"github.com/couchcryptid/lunar-crime-service/internal/domain"
	"github.com/couchcryptid/lunar-crime-service/internal/resilience"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Analyzer runs one correlation analysis request.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (analysis.Result, error)
}

// Server exposes health, readiness, metrics, and the analysis route.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /api/v1/analysis routes.
func NewServer(addr string, analyzer Analyzer, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/v1/analysis", s.handleAnalysis)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// analysisRequest is the route-level request body.
type analysisRequest struct {
	Jurisdiction string  `json:"jurisdiction"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	StartDate    string  `json:"start_date"` // RFC 3339
	EndDate      string  `json:"end_date"`   // RFC 3339
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req, err := body.toRequest()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.analyzer.Run(r.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		var exhausted *resilience.RetryExhaustedError
		switch {
		case errors.As(err, &exhausted),
			errors.Is(err, resilience.ErrCircuitOpen):
			// Upstream exhausted; 502 distinguishes it from our own faults.
		case errors.Is(err, resilience.ErrRateLimited):
			status = http.StatusTooManyRequests
		case errors.Is(err, context.Canceled):
			return
		default:
			status = http.StatusInternalServerError
		}
		s.logger.Error("analysis request failed", "status", status, "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (b analysisRequest) toRequest() (analysis.Request, error) {
	start, err := time.Parse(time.RFC3339, b.StartDate)
	if err != nil {
		return analysis.Request{}, errors.New("start_date must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, b.EndDate)
	if err != nil {
		return analysis.Request{}, errors.New("end_date must be RFC 3339")
	}
	if end.Before(start) {
		return analysis.Request{}, errors.New("end_date precedes start_date")
	}

	location := domain.GeographicCoordinate{
		Latitude:     b.Latitude,
		Longitude:    b.Longitude,
		Jurisdiction: b.Jurisdiction,
	}
	if err := domain.ValidateCoordinate(location); err != nil {
		return analysis.Request{}, err
	}

	return analysis.Request{
		Location:  location,
		DateRange: domain.TimeRange{Start: start, End: end},
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
