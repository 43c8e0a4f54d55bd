// Package socrata fetches crime incidents from a Socrata-style open data
// portal and hands only schema-valid records to the analysis core.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
	"github.com/couchcryptid/lunar-crime-service/internal/resilience"
)

// Client talks to a Socrata incident endpoint.
type Client struct {
	baseURL    string
	appToken   string
	httpClient *http.Client
	logger     *slog.Logger

	// dropped counts records rejected by schema validation, reported to
	// the caller through the Dropped hook when set.
	Dropped func(count int)
}

// NewClient creates a Socrata crime incident client.
func NewClient(baseURL, appToken string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		appToken: appToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchIncidents queries the portal for incidents in the jurisdiction and
// window, drops rows failing schema validation, and returns the rest.
func (c *Client) FetchIncidents(ctx context.Context, location domain.GeographicCoordinate, dateRange domain.TimeRange) ([]domain.CrimeIncident, error) {
	params := url.Values{
		"$where": {fmt.Sprintf("date between '%s' and '%s'",
			dateRange.Start.UTC().Format(time.RFC3339),
			dateRange.End.UTC().Format(time.RFC3339))},
		"$order": {"date ASC"},
		"$limit": {"50000"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crime incident request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &resilience.HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var rows []incidentRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	incidents := make([]domain.CrimeIncident, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		incident, err := row.toIncident(location.Jurisdiction)
		if err == nil {
			err = domain.ValidateIncident(incident)
		}
		if err != nil {
			dropped++
			c.logger.Debug("dropping invalid incident row", "row_id", row.ID, "error", err)
			continue
		}
		incidents = append(incidents, incident)
	}
	if dropped > 0 {
		c.logger.Warn("dropped invalid incident rows", "dropped", dropped, "kept", len(incidents))
		if c.Dropped != nil {
			c.Dropped(dropped)
		}
	}
	return incidents, nil
}

// Socrata API row. Socrata serializes numbers as strings.

type incidentRow struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	UCRCode     string `json:"ucr_code"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	CaseNumber  string `json:"case_number"`
	Arrest      bool   `json:"arrest"`
}

func (r incidentRow) toIncident(jurisdiction string) (domain.CrimeIncident, error) {
	ts, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return domain.CrimeIncident{}, fmt.Errorf("parse date %q: %w", r.Date, err)
	}
	lat, err := strconv.ParseFloat(r.Latitude, 64)
	if err != nil {
		return domain.CrimeIncident{}, fmt.Errorf("parse latitude %q: %w", r.Latitude, err)
	}
	lon, err := strconv.ParseFloat(r.Longitude, 64)
	if err != nil {
		return domain.CrimeIncident{}, fmt.Errorf("parse longitude %q: %w", r.Longitude, err)
	}

	return domain.CrimeIncident{
		ID:        r.ID,
		Timestamp: ts,
		Location: domain.GeographicCoordinate{
			Latitude:     lat,
			Longitude:    lon,
			Jurisdiction: jurisdiction,
		},
		CrimeType: domain.CrimeType{
			Category:    domain.CrimeCategory(r.Category),
			Subcategory: r.Subcategory,
			UCRCode:     r.UCRCode,
		},
		Severity:    domain.Severity(r.Severity),
		Description: r.Description,
		CaseNumber:  r.CaseNumber,
		Resolved:    r.Arrest,
	}, nil
}
