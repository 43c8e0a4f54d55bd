// Package usno fetches lunar phase observations in the US Naval
// Observatory data shape and hands only schema-valid records to the
// analysis core.
package usno

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
	"github.com/couchcryptid/lunar-crime-service/internal/resilience"
)

// Client talks to a USNO-style moon phase endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	Dropped func(count int)
}

// NewClient creates a moon phase client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchPhases queries observations for the location and window, drops
// records failing schema validation, and returns the rest.
func (c *Client) FetchPhases(ctx context.Context, location domain.GeographicCoordinate, dateRange domain.TimeRange) ([]domain.MoonPhaseData, error) {
	params := url.Values{
		"coords": {fmt.Sprintf("%.4f,%.4f", location.Latitude, location.Longitude)},
		"date":   {dateRange.Start.UTC().Format(time.DateOnly)},
		"nump":   {fmt.Sprintf("%d", observationCount(dateRange))},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moon phase request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &resilience.HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	phases := make([]domain.MoonPhaseData, 0, len(payload.PhaseData))
	dropped := 0
	for _, rec := range payload.PhaseData {
		phase, err := rec.toPhase(location)
		if err == nil {
			err = domain.ValidateMoonPhase(phase)
		}
		if err != nil {
			dropped++
			c.logger.Debug("dropping invalid phase record", "time", rec.Time, "error", err)
			continue
		}
		// Discard observations outside the requested window; the API
		// returns a fixed count forward from the start date.
		if !dateRange.Contains(phase.Timestamp) {
			continue
		}
		phases = append(phases, phase)
	}
	if dropped > 0 {
		c.logger.Warn("dropped invalid phase records", "dropped", dropped, "kept", len(phases))
		if c.Dropped != nil {
			c.Dropped(dropped)
		}
	}
	return phases, nil
}

// observationCount asks for one observation per day of the window.
func observationCount(dateRange domain.TimeRange) int {
	days := int(dateRange.End.Sub(dateRange.Start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// USNO API response types.

type response struct {
	PhaseData []phaseRecord `json:"phasedata"`
}

type phaseRecord struct {
	Time         string  `json:"time"` // RFC 3339
	Phase        string  `json:"phase"`
	Illumination float64 `json:"fracillum_pct"`
	PhaseAngle   float64 `json:"phase_angle"`
	DistanceKm   float64 `json:"distance_km"`
}

func (r phaseRecord) toPhase(location domain.GeographicCoordinate) (domain.MoonPhaseData, error) {
	ts, err := time.Parse(time.RFC3339, r.Time)
	if err != nil {
		return domain.MoonPhaseData{}, fmt.Errorf("parse time %q: %w", r.Time, err)
	}
	return domain.MoonPhaseData{
		Timestamp:           ts,
		Phase:               domain.MoonPhaseName(r.Phase),
		IlluminationPercent: r.Illumination,
		PhaseAngle:          r.PhaseAngle,
		DistanceKm:          r.DistanceKm,
		Location:            location,
	}, nil
}
