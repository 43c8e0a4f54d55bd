package correlate

import (
	"math"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
)

// Trend is the crime count for one phase together with its z-score against
// the other phases.
type Trend struct {
	Phase      domain.MoonPhaseName `json:"phase"`
	CrimeCount int                  `json:"crime_count"`
	ZScore     float64              `json:"z_score"`
	IsAnomaly  bool                 `json:"is_anomaly"`
}

// Pattern labels the shape of crime counts across the lunar cycle.
type Pattern struct {
	Pattern    string  `json:"pattern"` // increasing, decreasing, cyclical, random
	Confidence float64 `json:"confidence"`
}

// Pattern labels.
const (
	PatternIncreasing = "increasing"
	PatternDecreasing = "decreasing"
	PatternCyclical   = "cyclical"
	PatternRandom     = "random"
)

const anomalyZThreshold = 2.0

// AnalyzeTrends counts crimes per phase using the non-exclusive 24-hour
// nearest match and z-scores each phase against the population mean and
// standard deviation of the 8 counts.
func (e *Engine) AnalyzeTrends(crimes []domain.CrimeIncident, moonPhases []domain.MoonPhaseData) []Trend {
	counts := make(map[domain.MoonPhaseName]int, len(domain.CanonicalPhases))
	for _, crime := range crimes {
		if matched, ok := nearestPhase(crime.Timestamp, moonPhases, e.matchWindow); ok {
			counts[matched.Phase]++
		}
	}

	var sum float64
	for _, phase := range domain.CanonicalPhases {
		sum += float64(counts[phase])
	}
	mean := sum / float64(len(domain.CanonicalPhases))

	var variance float64
	for _, phase := range domain.CanonicalPhases {
		d := float64(counts[phase]) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(domain.CanonicalPhases)))

	trends := make([]Trend, 0, len(domain.CanonicalPhases))
	for _, phase := range domain.CanonicalPhases {
		z := 0.0
		if stddev > 0 {
			z = (float64(counts[phase]) - mean) / stddev
		}
		trends = append(trends, Trend{
			Phase:      phase,
			CrimeCount: counts[phase],
			ZScore:     z,
			IsAnomaly:  math.Abs(z) > anomalyZThreshold,
		})
	}
	return trends
}

// DetectPatterns classifies the trend series shape. Monotonic tests run
// first (pairwise direction ratio above 0.7), then a cyclical test counting
// interior local extrema; anything else is random.
func (e *Engine) DetectPatterns(trends []Trend) Pattern {
	n := len(trends)
	if n < 3 {
		return Pattern{Pattern: PatternRandom, Confidence: 0}
	}

	pairs := n - 1
	increasing, decreasing := 0, 0
	for i := 1; i < n; i++ {
		if trends[i].CrimeCount > trends[i-1].CrimeCount {
			increasing++
		} else if trends[i].CrimeCount < trends[i-1].CrimeCount {
			decreasing++
		}
	}

	if ratio := float64(increasing) / float64(pairs); ratio > 0.7 {
		return Pattern{Pattern: PatternIncreasing, Confidence: ratio}
	}
	if ratio := float64(decreasing) / float64(pairs); ratio > 0.7 {
		return Pattern{Pattern: PatternDecreasing, Confidence: ratio}
	}

	extrema := 0
	for i := 1; i < n-1; i++ {
		prev, cur, next := trends[i-1].CrimeCount, trends[i].CrimeCount, trends[i+1].CrimeCount
		if (cur > prev && cur > next) || (cur < prev && cur < next) {
			extrema++
		}
	}
	if ratio := float64(extrema) / float64(n/2); ratio > 0.6 {
		return Pattern{Pattern: PatternCyclical, Confidence: math.Min(1, ratio)}
	}

	return Pattern{Pattern: PatternRandom, Confidence: 0.5}
}

// DetectAnomalies returns the results whose absolute coefficient z-scores
// more than threshold away from the mean of all absolute coefficients.
// Fewer than 3 results is too little context to call anything anomalous.
func (e *Engine) DetectAnomalies(results []Result, threshold float64) []Result {
	if len(results) < 3 {
		return nil
	}
	if threshold <= 0 {
		threshold = anomalyZThreshold
	}

	var sum float64
	for _, r := range results {
		sum += math.Abs(r.Coefficient)
	}
	mean := sum / float64(len(results))

	var variance float64
	for _, r := range results {
		d := math.Abs(r.Coefficient) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(results)))
	if stddev == 0 {
		return nil
	}

	var anomalies []Result
	for _, r := range results {
		if math.Abs((math.Abs(r.Coefficient)-mean)/stddev) > threshold {
			anomalies = append(anomalies, r)
		}
	}
	return anomalies
}
