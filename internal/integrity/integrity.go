// Package integrity validates crime and lunar datasets against each other
// and against an expected analysis window, producing coverage metrics, gap
// lists, a composite quality score, and a human-readable report.
package integrity

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
)

const (
	// DefaultMaxGapDays is the largest tolerated spacing between
	// consecutive observations before a gap is declared.
	DefaultMaxGapDays = 7

	// DefaultMinCoveragePercent is the coverage floor for "sufficient".
	DefaultMinCoveragePercent = 80.0

	// minValidQualityScore is the score floor for a valid report.
	minValidQualityScore = 70.0

	// sparsityThreshold is the incidents-per-day floor below which the
	// crime series is flagged as sparse.
	sparsityThreshold = 0.1

	msPerDay = 86_400_000
)

// GapSeverity buckets a temporal gap by its length.
type GapSeverity string

const (
	GapMinor    GapSeverity = "minor"    // <= 14 days
	GapModerate GapSeverity = "moderate" // <= 30 days
	GapSevere   GapSeverity = "severe"   // > 30 days
)

// IssueSeverity distinguishes blocking problems from advisories.
type IssueSeverity string

const (
	IssueError   IssueSeverity = "error"
	IssueWarning IssueSeverity = "warning"
)

// Issue type identifiers.
const (
	IssueOutOfRange           = "out_of_range"
	IssueInsufficientCoverage = "insufficient_coverage"
	IssueTemporalGap          = "temporal_gap"
	IssueDataSparsity         = "data_sparsity"
)

// Classification splits crimes by the lunar observation coverage window.
type Classification struct {
	InRange        []domain.CrimeIncident `json:"in_range"`
	OutOfRange     []domain.CrimeIncident `json:"out_of_range"`
	MoonPhaseRange *domain.TimeRange      `json:"moon_phase_range"`
}

// TemporalGap is a stretch of the expected window lacking data points.
type TemporalGap struct {
	Dataset      string      `json:"dataset"` // "crimes" or "moon_phases"
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	DurationDays int         `json:"duration_days"`
	Severity     GapSeverity `json:"severity"`
}

// Coverage summarizes how much of the expected window has data.
type Coverage struct {
	CoveragePercent       float64       `json:"coverage_percent"`
	Gaps                  []TemporalGap `json:"gaps"`
	HasSufficientCoverage bool          `json:"has_sufficient_coverage"`
}

// QualityIssue is one detected data-quality problem.
type QualityIssue struct {
	Type           string            `json:"type"`
	Severity       IssueSeverity     `json:"severity"`
	Message        string            `json:"message"`
	AffectedCount  int               `json:"affected_count,omitempty"`
	MoonPhaseRange *domain.TimeRange `json:"moon_phase_range,omitempty"`
}

// QualityMetrics is the composite data-quality assessment.
type QualityMetrics struct {
	TotalCrimes      int            `json:"total_crimes"`
	TotalMoonPhases  int            `json:"total_moon_phases"`
	InRangeCrimes    int            `json:"in_range_crimes"`
	OutOfRangeCrimes int            `json:"out_of_range_crimes"`
	CoveragePercent  float64        `json:"coverage_percent"`
	SevereGaps       int            `json:"severe_gaps"`
	QualityScore     float64        `json:"quality_score"`
	Issues           []QualityIssue `json:"issues"`
}

// Report is the full integrity assessment handed to the route layer.
type Report struct {
	IsValid         bool           `json:"is_valid"`
	Metrics         QualityMetrics `json:"metrics"`
	Recommendations []string       `json:"recommendations"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// Validator performs dataset integrity checks.
type Validator struct {
	maxGapDays         int
	minCoveragePercent float64
	logger             *slog.Logger
}

// New creates a Validator. Non-positive arguments select the defaults
// (7-day gap threshold, 80% coverage floor).
func New(maxGapDays int, minCoveragePercent float64, logger *slog.Logger) *Validator {
	if maxGapDays <= 0 {
		maxGapDays = DefaultMaxGapDays
	}
	if minCoveragePercent <= 0 {
		minCoveragePercent = DefaultMinCoveragePercent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{maxGapDays: maxGapDays, minCoveragePercent: minCoveragePercent, logger: logger}
}

// ClassifyInRange splits crimes by the inclusive [min,max] window of the
// lunar observations. With no observations the window is nil and every
// crime is out of range.
func (v *Validator) ClassifyInRange(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData) Classification {
	if len(moonPhases) == 0 {
		out := make([]domain.CrimeIncident, len(crimes))
		copy(out, crimes)
		return Classification{OutOfRange: out}
	}

	window := domain.TimeRange{Start: moonPhases[0].Timestamp, End: moonPhases[0].Timestamp}
	for _, mp := range moonPhases[1:] {
		if mp.Timestamp.Before(window.Start) {
			window.Start = mp.Timestamp
		}
		if mp.Timestamp.After(window.End) {
			window.End = mp.Timestamp
		}
	}

	c := Classification{MoonPhaseRange: &window}
	for _, crime := range crimes {
		if window.Contains(crime.Timestamp) {
			c.InRange = append(c.InRange, crime)
		} else {
			c.OutOfRange = append(c.OutOfRange, crime)
		}
	}
	return c
}

// CheckCoverage detects temporal gaps in both series against the expected
// window and derives the coverage percentage.
func (v *Validator) CheckCoverage(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData, expected domain.TimeRange) Coverage {
	crimeTimes := make([]time.Time, len(crimes))
	for i, c := range crimes {
		crimeTimes[i] = c.Timestamp
	}
	phaseTimes := make([]time.Time, len(moonPhases))
	for i, p := range moonPhases {
		phaseTimes[i] = p.Timestamp
	}

	gaps := v.detectGaps("crimes", crimeTimes, expected)
	gaps = append(gaps, v.detectGaps("moon_phases", phaseTimes, expected)...)

	totalExpectedDays := ceilDays(expected.End.Sub(expected.Start))
	totalGapDays := 0
	for _, g := range gaps {
		totalGapDays += g.DurationDays
	}

	pct := math.Max(0, float64(totalExpectedDays-totalGapDays)/float64(totalExpectedDays)*100)
	return Coverage{
		CoveragePercent:       pct,
		Gaps:                  gaps,
		HasSufficientCoverage: pct >= v.minCoveragePercent,
	}
}

// detectGaps scans one sorted timestamp series for stretches longer than the
// gap threshold: before the first point, between consecutive points, and
// after the last. An empty series is a single severe gap over the whole
// window.
func (v *Validator) detectGaps(dataset string, timestamps []time.Time, expected domain.TimeRange) []TemporalGap {
	if len(timestamps) == 0 {
		return []TemporalGap{{
			Dataset:      dataset,
			Start:        expected.Start,
			End:          expected.End,
			DurationDays: ceilDays(expected.End.Sub(expected.Start)),
			Severity:     GapSevere,
		}}
	}

	sorted := make([]time.Time, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var gaps []TemporalGap
	appendGap := func(start, end time.Time) {
		delta := end.Sub(start)
		if delta.Hours()/24 <= float64(v.maxGapDays) {
			return
		}
		days := ceilDays(delta)
		gaps = append(gaps, TemporalGap{
			Dataset:      dataset,
			Start:        start,
			End:          end,
			DurationDays: days,
			Severity:     gapSeverity(days),
		})
	}

	appendGap(expected.Start, sorted[0])
	for i := 1; i < len(sorted); i++ {
		appendGap(sorted[i-1], sorted[i])
	}
	appendGap(sorted[len(sorted)-1], expected.End)
	return gaps
}

// QualityMetrics computes the composite quality score and its issue list.
// The score starts at 100 and deducts for out-of-range crimes, missing
// coverage, and severe gaps, clamped at 0.
func (v *Validator) QualityMetrics(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData, expected domain.TimeRange) QualityMetrics {
	classification := v.ClassifyInRange(crimes, moonPhases)
	coverage := v.CheckCoverage(crimes, moonPhases, expected)

	severeGaps := 0
	for _, g := range coverage.Gaps {
		if g.Severity == GapSevere {
			severeGaps++
		}
	}

	m := QualityMetrics{
		TotalCrimes:      len(crimes),
		TotalMoonPhases:  len(moonPhases),
		InRangeCrimes:    len(classification.InRange),
		OutOfRangeCrimes: len(classification.OutOfRange),
		CoveragePercent:  coverage.CoveragePercent,
		SevereGaps:       severeGaps,
	}

	outOfRangePct := 0.0
	if m.TotalCrimes > 0 {
		outOfRangePct = float64(m.OutOfRangeCrimes) / float64(m.TotalCrimes) * 100
	}

	score := 100.0
	score -= 0.5 * outOfRangePct
	score -= 0.3 * math.Max(0, v.minCoveragePercent-coverage.CoveragePercent)
	score -= 10 * float64(severeGaps)
	m.QualityScore = math.Max(0, score)

	if m.OutOfRangeCrimes > 0 {
		m.Issues = append(m.Issues, QualityIssue{
			Type:     IssueOutOfRange,
			Severity: IssueError,
			Message: fmt.Sprintf("%d of %d crimes fall outside the moon phase coverage window",
				m.OutOfRangeCrimes, m.TotalCrimes),
			AffectedCount:  m.OutOfRangeCrimes,
			MoonPhaseRange: classification.MoonPhaseRange,
		})
	}
	if !coverage.HasSufficientCoverage {
		m.Issues = append(m.Issues, QualityIssue{
			Type:     IssueInsufficientCoverage,
			Severity: IssueWarning,
			Message: fmt.Sprintf("temporal coverage %.1f%% is below the %.0f%% minimum",
				coverage.CoveragePercent, v.minCoveragePercent),
		})
	}
	if severeGaps > 0 {
		m.Issues = append(m.Issues, QualityIssue{
			Type:          IssueTemporalGap,
			Severity:      IssueError,
			Message:       fmt.Sprintf("%d severe temporal gaps detected in the expected window", severeGaps),
			AffectedCount: severeGaps,
		})
	}
	if expectedDays := expected.Days(); expectedDays > 0 &&
		float64(m.TotalCrimes)/expectedDays < sparsityThreshold {
		m.Issues = append(m.Issues, QualityIssue{
			Type:     IssueDataSparsity,
			Severity: IssueWarning,
			Message: fmt.Sprintf("only %.2f incidents per day over a %.0f-day window",
				float64(m.TotalCrimes)/expectedDays, expectedDays),
		})
	}

	return m
}

// GenerateReport assembles metrics, validity, and recommendations. The
// report is valid only with no error-severity issues and a score of at
// least 70; recommendations are never empty.
func (v *Validator) GenerateReport(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData, expected domain.TimeRange) Report {
	metrics := v.QualityMetrics(crimes, moonPhases, expected)

	hasErrors := false
	for _, issue := range metrics.Issues {
		if issue.Severity == IssueError {
			hasErrors = true
			break
		}
	}

	report := Report{
		IsValid:     !hasErrors && metrics.QualityScore >= minValidQualityScore,
		Metrics:     metrics,
		GeneratedAt: clock.Now(),
	}

	for _, issue := range metrics.Issues {
		switch issue.Type {
		case IssueOutOfRange:
			report.Recommendations = append(report.Recommendations,
				"Extend the moon phase observation window or narrow the crime query range so all incidents fall inside lunar coverage.")
		case IssueInsufficientCoverage:
			report.Recommendations = append(report.Recommendations,
				"Fetch additional observations to raise temporal coverage above the configured minimum.")
		case IssueTemporalGap:
			report.Recommendations = append(report.Recommendations,
				"Backfill the severe gaps in the expected window before trusting correlation output.")
		case IssueDataSparsity:
			report.Recommendations = append(report.Recommendations,
				"Widen the date range or jurisdiction; the incident density is too low for stable statistics.")
		}
	}
	if len(report.Recommendations) == 0 {
		report.Recommendations = append(report.Recommendations,
			"Data quality is satisfactory; no corrective action required.")
	}

	v.logger.Debug("integrity report generated",
		"valid", report.IsValid,
		"quality_score", metrics.QualityScore,
		"issues", len(metrics.Issues),
	)
	return report
}

func gapSeverity(days int) GapSeverity {
	switch {
	case days <= 14:
		return GapMinor
	case days <= 30:
		return GapModerate
	default:
		return GapSevere
	}
}

// ceilDays converts a duration to whole days, rounding up, minimum 1.
func ceilDays(d time.Duration) int {
	days := int(math.Ceil(float64(d.Milliseconds()) / msPerDay))
	if days < 1 {
		return 1
	}
	return days
}
