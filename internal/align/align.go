// Package align pairs crime incidents with lunar observations one-to-one.
//
// The matching is greedy nearest-neighbor: crimes are visited in timestamp
// order and each takes the closest-in-time unused observation within the
// time and spatial tolerances. Greedy matching does not globally minimize
// total time difference; that gap is deliberate and pinned by tests.
package align

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
)

const (
	// DefaultMaxTimeDiff is the widest crime-to-observation separation
	// accepted by the aligner.
	DefaultMaxTimeDiff = 12 * time.Hour

	// maxCoordDiff bounds the per-axis latitude/longitude difference for a
	// spatially compatible pair: a flat ~100 km box, not great-circle.
	maxCoordDiff = 1.0

	// Thresholds for ValidateIntegrity.
	errorAccuracyPct = 50.0
	warnAccuracyPct  = 80.0
	warnCrimeGap     = 7 * 24 * time.Hour
	warnAvgTimeDiff  = 6 * time.Hour
)

// TemporalAlignment pairs one crime with one lunar observation.
type TemporalAlignment struct {
	Crime            domain.CrimeIncident `json:"crime"`
	MoonPhase        domain.MoonPhaseData `json:"moon_phase"`
	TimeDifferenceMs int64                `json:"time_difference_ms"`
}

// Result is the outcome of one alignment pass. Every input record appears
// exactly once, either in an alignment or in an unaligned list.
type Result struct {
	Alignments          []TemporalAlignment    `json:"alignments"`
	UnalignedCrimes     []domain.CrimeIncident `json:"unaligned_crimes"`
	UnalignedMoonPhases []domain.MoonPhaseData `json:"unaligned_moon_phases"`
	TotalCrimes         int                    `json:"total_crimes"`
	TotalMoonPhases     int                    `json:"total_moon_phases"`
	AlignmentAccuracy   float64                `json:"alignment_accuracy"`
}

// Statistics summarizes the time differences across a result's alignments.
type Statistics struct {
	MinMs int64   `json:"min_ms"`
	AvgMs float64 `json:"avg_ms"`
	MaxMs int64   `json:"max_ms"`
}

// IntegrityCheck carries human-readable findings about an alignment result.
type IntegrityCheck struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Aligner performs greedy one-to-one temporal alignment.
type Aligner struct {
	maxTimeDiff time.Duration
	logger      *slog.Logger
}

// New creates an Aligner. A non-positive maxTimeDiff selects the 12-hour
// default.
func New(maxTimeDiff time.Duration, logger *slog.Logger) *Aligner {
	if maxTimeDiff <= 0 {
		maxTimeDiff = DefaultMaxTimeDiff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{maxTimeDiff: maxTimeDiff, logger: logger}
}

// Align pairs each crime with the nearest compatible unused observation.
// It never fails: empty inputs produce an empty result with accuracy 0.
func (a *Aligner) Align(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData) Result {
	sortedCrimes := make([]domain.CrimeIncident, len(crimes))
	copy(sortedCrimes, crimes)
	sort.SliceStable(sortedCrimes, func(i, j int) bool {
		return sortedCrimes[i].Timestamp.Before(sortedCrimes[j].Timestamp)
	})

	sortedPhases := make([]domain.MoonPhaseData, len(moonPhases))
	copy(sortedPhases, moonPhases)
	sort.SliceStable(sortedPhases, func(i, j int) bool {
		return sortedPhases[i].Timestamp.Before(sortedPhases[j].Timestamp)
	})

	used := make([]bool, len(sortedPhases))
	result := Result{
		TotalCrimes:     len(crimes),
		TotalMoonPhases: len(moonPhases),
	}

	for _, crime := range sortedCrimes {
		best := -1
		var bestDiff time.Duration
		for i, phase := range sortedPhases {
			if used[i] || !compatibleLocation(crime.Location, phase.Location) {
				continue
			}
			diff := absDuration(crime.Timestamp.Sub(phase.Timestamp))
			if diff > a.maxTimeDiff {
				continue
			}
			// Strict less-than keeps the first-encountered candidate on ties.
			if best == -1 || diff < bestDiff {
				best = i
				bestDiff = diff
			}
		}

		if best == -1 {
			result.UnalignedCrimes = append(result.UnalignedCrimes, crime)
			continue
		}

		used[best] = true
		result.Alignments = append(result.Alignments, TemporalAlignment{
			Crime:            crime,
			MoonPhase:        sortedPhases[best],
			TimeDifferenceMs: bestDiff.Milliseconds(),
		})
	}

	for i, phase := range sortedPhases {
		if !used[i] {
			result.UnalignedMoonPhases = append(result.UnalignedMoonPhases, phase)
		}
	}

	if result.TotalCrimes > 0 {
		result.AlignmentAccuracy = float64(len(result.Alignments)) / float64(result.TotalCrimes) * 100
	}

	a.logger.Debug("alignment complete",
		"aligned", len(result.Alignments),
		"unaligned_crimes", len(result.UnalignedCrimes),
		"accuracy_pct", result.AlignmentAccuracy,
	)
	return result
}

// SynchronizeTimestamps normalizes all timestamps to the given zone. The
// instants are unchanged (for UTC inputs and the default zone this is an
// identity transform); every other field is preserved exactly.
func SynchronizeTimestamps(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData, zone *time.Location) ([]domain.CrimeIncident, []domain.MoonPhaseData) {
	if zone == nil {
		zone = time.UTC
	}

	outCrimes := make([]domain.CrimeIncident, len(crimes))
	for i, c := range crimes {
		c.Timestamp = c.Timestamp.In(zone)
		outCrimes[i] = c
	}

	outPhases := make([]domain.MoonPhaseData, len(moonPhases))
	for i, p := range moonPhases {
		p.Timestamp = p.Timestamp.In(zone)
		outPhases[i] = p
	}
	return outCrimes, outPhases
}

// ValidateIntegrity inspects an alignment result for quality problems.
// Accuracy below 50% is an error; accuracy in [50,80), a gap of more than
// 7 days between consecutive aligned crimes, or an average time difference
// above 6 hours each produce a warning.
func (a *Aligner) ValidateIntegrity(result Result) IntegrityCheck {
	var check IntegrityCheck

	switch {
	case result.AlignmentAccuracy < errorAccuracyPct:
		check.Errors = append(check.Errors,
			fmt.Sprintf("alignment accuracy %.1f%% is below the %.0f%% minimum", result.AlignmentAccuracy, errorAccuracyPct))
	case result.AlignmentAccuracy < warnAccuracyPct:
		check.Warnings = append(check.Warnings,
			fmt.Sprintf("alignment accuracy %.1f%% is below the %.0f%% target", result.AlignmentAccuracy, warnAccuracyPct))
	}

	for i := 1; i < len(result.Alignments); i++ {
		gap := result.Alignments[i].Crime.Timestamp.Sub(result.Alignments[i-1].Crime.Timestamp)
		if gap > warnCrimeGap {
			check.Warnings = append(check.Warnings,
				fmt.Sprintf("gap of %.1f days between aligned crimes at %s and %s",
					gap.Hours()/24,
					result.Alignments[i-1].Crime.Timestamp.Format(time.RFC3339),
					result.Alignments[i].Crime.Timestamp.Format(time.RFC3339)))
		}
	}

	if stats := a.Statistics(result); stats.AvgMs > float64(warnAvgTimeDiff.Milliseconds()) {
		check.Warnings = append(check.Warnings,
			fmt.Sprintf("average alignment time difference %.1f hours exceeds 6 hours", stats.AvgMs/3600000))
	}

	return check
}

// Statistics computes min/avg/max time differences across alignments.
// All zero when there are no alignments.
func (a *Aligner) Statistics(result Result) Statistics {
	if len(result.Alignments) == 0 {
		return Statistics{}
	}

	stats := Statistics{
		MinMs: result.Alignments[0].TimeDifferenceMs,
		MaxMs: result.Alignments[0].TimeDifferenceMs,
	}
	var total int64
	for _, al := range result.Alignments {
		ms := al.TimeDifferenceMs
		total += ms
		if ms < stats.MinMs {
			stats.MinMs = ms
		}
		if ms > stats.MaxMs {
			stats.MaxMs = ms
		}
	}
	stats.AvgMs = float64(total) / float64(len(result.Alignments))
	return stats
}

// compatibleLocation reports whether two points fall within the flat
// 1-degree bounding box on both axes.
func compatibleLocation(a, b domain.GeographicCoordinate) bool {
	return absFloat(a.Latitude-b.Latitude) <= maxCoordDiff &&
		absFloat(a.Longitude-b.Longitude) <= maxCoordDiff
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
