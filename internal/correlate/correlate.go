// Package correlate computes statistical relationships between crime
// incidence and lunar phase.
//
// For every (crime category, subcategory) group and each of the 8 canonical
// phases it builds a daily series of (moon illumination, crime count) pairs
// and computes the Pearson correlation, a significance estimate, and a
// Fisher-transform confidence interval. The phase matching here is an
// independent nearest-neighbor search with a 24-hour window and no
// exclusivity constraint; it is deliberately a separate policy from the
// one-to-one aligner in the align package.
package correlate

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
)

const (
	// DefaultMatchWindow bounds the crime-to-observation distance for the
	// non-exclusive nearest-phase search.
	DefaultMatchWindow = 24 * time.Hour

	// DefaultMinSampleDays is the fewest distinct days of data required
	// before a (crime type, phase) pair is correlated at all.
	DefaultMinSampleDays = 3

	// DefaultConfidenceLevel selects the critical value for confidence
	// intervals.
	DefaultConfidenceLevel = 0.95
)

// Result is one (crime type, moon phase) correlation.
type Result struct {
	CrimeType          domain.CrimeType     `json:"crime_type"`
	MoonPhase          domain.MoonPhaseName `json:"moon_phase"`
	Coefficient        float64              `json:"correlation_coefficient"`
	PValue             float64              `json:"p_value"`
	ConfidenceInterval [2]float64           `json:"confidence_interval"`
	SampleSize         int                  `json:"sample_size"`
	SignificanceLevel  float64              `json:"significance_level"`
}

// Summary aggregates all correlation results for one analysis request.
type Summary struct {
	SignificantResults  []Result                    `json:"significant_results"`
	OverallCorrelation  float64                     `json:"overall_correlation"`
	OverallSignificance float64                     `json:"overall_significance"`
	TotalSampleSize     int                         `json:"total_sample_size"`
	TotalCrimes         int                         `json:"total_crimes"`
	ConfidenceLevel     float64                     `json:"confidence_level"`
	Location            domain.GeographicCoordinate `json:"location"`
	DateRange           domain.TimeRange            `json:"date_range"`
}

// crimeTypeKey is the composite grouping key. Using a comparable struct as
// the map key avoids linear scan-and-compare group lookups.
type crimeTypeKey struct {
	category    domain.CrimeCategory
	subcategory string
}

// Engine computes correlations, trends, patterns, and anomalies.
type Engine struct {
	matchWindow     time.Duration
	minSampleDays   int
	confidenceLevel float64
	logger          *slog.Logger
}

// New creates an Engine. Non-positive arguments select the defaults
// (24-hour window, 3 sample days, 0.95 confidence).
func New(matchWindow time.Duration, minSampleDays int, confidenceLevel float64, logger *slog.Logger) *Engine {
	if matchWindow <= 0 {
		matchWindow = DefaultMatchWindow
	}
	if minSampleDays <= 0 {
		minSampleDays = DefaultMinSampleDays
	}
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = DefaultConfidenceLevel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		matchWindow:     matchWindow,
		minSampleDays:   minSampleDays,
		confidenceLevel: confidenceLevel,
		logger:          logger,
	}
}

// Correlate computes one Result per (crime type, phase) pair with enough
// data. Pairs with fewer distinct days than the minimum are skipped, as is
// any pair whose arithmetic degenerates (§ zero-variance series); one bad
// group never aborts the rest.
func (e *Engine) Correlate(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData) []Result {
	if len(crimes) == 0 || len(moonPhases) == 0 {
		return nil
	}

	groups := make(map[crimeTypeKey][]domain.CrimeIncident)
	var keys []crimeTypeKey
	for _, crime := range crimes {
		key := crimeTypeKey{crime.CrimeType.Category, crime.CrimeType.Subcategory}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], crime)
	}
	// Stable output order regardless of input ordering.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].subcategory < keys[j].subcategory
	})

	var results []Result
	for _, key := range keys {
		group := groups[key]
		for _, phase := range domain.CanonicalPhases {
			result, ok, err := e.correlateGroup(group, moonPhases, phase)
			if err != nil {
				e.logger.Warn("correlation failed, skipping group",
					"category", key.category,
					"subcategory", key.subcategory,
					"phase", phase,
					"error", err,
				)
				continue
			}
			if ok {
				results = append(results, result)
			}
		}
	}
	return results
}

// dailySample is one calendar day of matched data: the illumination of the
// matched observation and how many of the group's crimes fell on that day.
type dailySample struct {
	illumination float64
	crimeCount   float64
}

func (e *Engine) correlateGroup(group []domain.CrimeIncident, moonPhases []domain.MoonPhaseData, target domain.MoonPhaseName) (Result, bool, error) {
	days := make(map[string]*dailySample)
	for _, crime := range group {
		matched, ok := nearestPhase(crime.Timestamp, moonPhases, e.matchWindow)
		if !ok || matched.Phase != target {
			continue
		}
		day := crime.Timestamp.UTC().Format(time.DateOnly)
		if sample, seen := days[day]; seen {
			sample.crimeCount++
		} else {
			days[day] = &dailySample{illumination: matched.IlluminationPercent, crimeCount: 1}
		}
	}

	if len(days) < e.minSampleDays {
		return Result{}, false, nil
	}

	illum := make([]float64, 0, len(days))
	counts := make([]float64, 0, len(days))
	dayKeys := make([]string, 0, len(days))
	for day := range days {
		dayKeys = append(dayKeys, day)
	}
	sort.Strings(dayKeys)
	for _, day := range dayKeys {
		illum = append(illum, days[day].illumination)
		counts = append(counts, days[day].crimeCount)
	}

	r, err := pearson(illum, counts)
	if err != nil {
		return Result{}, false, fmt.Errorf("pearson over %d days: %w", len(days), err)
	}

	n := len(days)
	first := group[0].CrimeType
	return Result{
		CrimeType:          first,
		MoonPhase:          target,
		Coefficient:        r,
		PValue:             pValue(r, n),
		ConfidenceInterval: fisherInterval(r, n, e.confidenceLevel),
		SampleSize:         n,
		SignificanceLevel:  e.confidenceLevel,
	}, true, nil
}

// Summarize rolls correlation results up into one aggregate: significant
// subset at p <= 0.05, sample-size-weighted mean coefficient, minimum
// p-value, and total sample size.
func (e *Engine) Summarize(results []Result, crimes []domain.CrimeIncident, location domain.GeographicCoordinate, dateRange domain.TimeRange) Summary {
	summary := Summary{
		OverallSignificance: 1,
		TotalCrimes:         len(crimes),
		ConfidenceLevel:     DefaultConfidenceLevel,
		Location:            location,
		DateRange:           dateRange,
	}

	var weightedSum float64
	for _, r := range results {
		if r.PValue <= 0.05 {
			summary.SignificantResults = append(summary.SignificantResults, r)
		}
		if r.PValue < summary.OverallSignificance {
			summary.OverallSignificance = r.PValue
		}
		weightedSum += r.Coefficient * float64(r.SampleSize)
		summary.TotalSampleSize += r.SampleSize
	}
	if summary.TotalSampleSize > 0 {
		summary.OverallCorrelation = weightedSum / float64(summary.TotalSampleSize)
	}
	return summary
}

// nearestPhase finds the observation closest in time to t within the window.
// No exclusivity: the same observation can match many crimes.
func nearestPhase(t time.Time, moonPhases []domain.MoonPhaseData, window time.Duration) (domain.MoonPhaseData, bool) {
	best := -1
	var bestDiff time.Duration
	for i, mp := range moonPhases {
		diff := t.Sub(mp.Timestamp)
		if diff < 0 {
			diff = -diff
		}
		if diff > window {
			continue
		}
		if best == -1 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best == -1 {
		return domain.MoonPhaseData{}, false
	}
	return moonPhases[best], true
}
