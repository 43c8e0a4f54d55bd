package align

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
)

var testLocation = domain.GeographicCoordinate{
	Latitude:     41.88,
	Longitude:    -87.63,
	Jurisdiction: "chicago",
}

func crimeAt(ts time.Time) domain.CrimeIncident {
	return domain.CrimeIncident{
		ID:          uuid.NewString(),
		Timestamp:   ts,
		Location:    testLocation,
		CrimeType:   domain.CrimeType{Category: domain.Property, Subcategory: "theft"},
		Severity:    domain.Misdemeanor,
		Description: "test incident",
	}
}

func phaseAt(ts time.Time) domain.MoonPhaseData {
	return domain.MoonPhaseData{
		Timestamp:           ts,
		Phase:               domain.FullMoon,
		IlluminationPercent: 98,
		PhaseAngle:          180,
		DistanceKm:          384400,
		Location:            testLocation,
	}
}

func TestAlign(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	aligner := New(0, nil)

	t.Run("pairs nearest observation", func(t *testing.T) {
		crimes := []domain.CrimeIncident{crimeAt(base)}
		phases := []domain.MoonPhaseData{
			phaseAt(base.Add(-10 * time.Hour)),
			phaseAt(base.Add(2 * time.Hour)),
		}

		result := aligner.Align(crimes, phases)

		require.Len(t, result.Alignments, 1)
		assert.Equal(t, phases[1].Timestamp, result.Alignments[0].MoonPhase.Timestamp)
		assert.Equal(t, int64(2*3600*1000), result.Alignments[0].TimeDifferenceMs)
		assert.Len(t, result.UnalignedMoonPhases, 1)
		assert.Equal(t, 100.0, result.AlignmentAccuracy)
	})

	t.Run("accounting invariant", func(t *testing.T) {
		crimes := []domain.CrimeIncident{
			crimeAt(base),
			crimeAt(base.Add(time.Hour)),
			crimeAt(base.Add(100 * time.Hour)), // no candidate in range
		}
		phases := []domain.MoonPhaseData{
			phaseAt(base.Add(30 * time.Minute)),
			phaseAt(base.Add(90 * time.Minute)),
		}

		result := aligner.Align(crimes, phases)

		assert.Equal(t, result.TotalCrimes, len(result.Alignments)+len(result.UnalignedCrimes))
		assert.Equal(t, result.TotalMoonPhases, len(result.Alignments)+len(result.UnalignedMoonPhases))
	})

	t.Run("each observation used at most once", func(t *testing.T) {
		crimes := []domain.CrimeIncident{
			crimeAt(base),
			crimeAt(base.Add(time.Minute)),
		}
		phases := []domain.MoonPhaseData{phaseAt(base)}

		result := aligner.Align(crimes, phases)

		require.Len(t, result.Alignments, 1)
		assert.Len(t, result.UnalignedCrimes, 1)
		assert.Empty(t, result.UnalignedMoonPhases)
	})

	t.Run("respects max time difference", func(t *testing.T) {
		tight := New(time.Hour, nil)
		crimes := []domain.CrimeIncident{crimeAt(base)}
		phases := []domain.MoonPhaseData{phaseAt(base.Add(2 * time.Hour))}

		result := tight.Align(crimes, phases)

		assert.Empty(t, result.Alignments)
		assert.Len(t, result.UnalignedCrimes, 1)
		assert.Equal(t, 0.0, result.AlignmentAccuracy)
	})

	t.Run("respects spatial tolerance", func(t *testing.T) {
		crimes := []domain.CrimeIncident{crimeAt(base)}
		far := phaseAt(base)
		far.Location.Latitude = testLocation.Latitude + 1.5

		result := aligner.Align(crimes, []domain.MoonPhaseData{far})

		assert.Empty(t, result.Alignments)
		assert.Len(t, result.UnalignedCrimes, 1)
	})

	t.Run("empty inputs", func(t *testing.T) {
		result := aligner.Align(nil, nil)

		assert.Zero(t, result.TotalCrimes)
		assert.Zero(t, result.TotalMoonPhases)
		assert.Equal(t, 0.0, result.AlignmentAccuracy)
	})

	t.Run("greedy is not globally optimal", func(t *testing.T) {
		// The first crime (earliest timestamp) grabs the shared middle
		// observation because it is its closest, leaving the second crime
		// to a farther one. A global minimum-weight matching would assign
		// crime 1 to phase 0 and crime 2 to phase 1 for a lower total.
		// The greedy assignment is the documented behavior.
		crimes := []domain.CrimeIncident{
			crimeAt(base),                    // crime 1
			crimeAt(base.Add(3 * time.Hour)), // crime 2
		}
		phases := []domain.MoonPhaseData{
			phaseAt(base.Add(-4 * time.Hour)), // phase 0
			phaseAt(base.Add(2 * time.Hour)),  // phase 1: closest to both crimes
		}

		result := aligner.Align(crimes, phases)

		require.Len(t, result.Alignments, 2)
		assert.Equal(t, phases[1].Timestamp, result.Alignments[0].MoonPhase.Timestamp,
			"first crime takes the shared middle observation")
		assert.Equal(t, phases[0].Timestamp, result.Alignments[1].MoonPhase.Timestamp)
		// Greedy total: 2h + 7h = 9h. Optimal would be 4h + 1h = 5h.
		total := result.Alignments[0].TimeDifferenceMs + result.Alignments[1].TimeDifferenceMs
		assert.Equal(t, int64(9*3600*1000), total)
	})
}

func TestSynchronizeTimestamps(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	crimes := []domain.CrimeIncident{crimeAt(base)}
	phases := []domain.MoonPhaseData{phaseAt(base)}

	t.Run("UTC is identity on the instant", func(t *testing.T) {
		outCrimes, outPhases := SynchronizeTimestamps(crimes, phases, time.UTC)

		assert.True(t, outCrimes[0].Timestamp.Equal(crimes[0].Timestamp))
		assert.True(t, outPhases[0].Timestamp.Equal(phases[0].Timestamp))
		assert.Equal(t, crimes[0].ID, outCrimes[0].ID, "non-timestamp fields preserved")
	})

	t.Run("other zones preserve the instant", func(t *testing.T) {
		chicago, err := time.LoadLocation("America/Chicago")
		require.NoError(t, err)

		outCrimes, _ := SynchronizeTimestamps(crimes, phases, chicago)

		assert.True(t, outCrimes[0].Timestamp.Equal(crimes[0].Timestamp))
		assert.Equal(t, chicago, outCrimes[0].Timestamp.Location())
	})

	t.Run("nil zone defaults to UTC", func(t *testing.T) {
		outCrimes, _ := SynchronizeTimestamps(crimes, phases, nil)
		assert.Equal(t, time.UTC, outCrimes[0].Timestamp.Location())
	})
}

func TestValidateIntegrity(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	aligner := New(0, nil)

	t.Run("low accuracy is an error", func(t *testing.T) {
		check := aligner.ValidateIntegrity(Result{TotalCrimes: 10, AlignmentAccuracy: 40})

		require.Len(t, check.Errors, 1)
		assert.NotEmpty(t, check.Errors[0])
	})

	t.Run("middling accuracy is a warning", func(t *testing.T) {
		check := aligner.ValidateIntegrity(Result{TotalCrimes: 10, AlignmentAccuracy: 65})

		assert.Empty(t, check.Errors)
		require.Len(t, check.Warnings, 1)
	})

	t.Run("large gap between aligned crimes warns", func(t *testing.T) {
		result := Result{
			TotalCrimes:       2,
			AlignmentAccuracy: 100,
			Alignments: []TemporalAlignment{
				{Crime: crimeAt(base), TimeDifferenceMs: 0},
				{Crime: crimeAt(base.Add(8 * 24 * time.Hour)), TimeDifferenceMs: 0},
			},
		}

		check := aligner.ValidateIntegrity(result)

		assert.Empty(t, check.Errors)
		require.NotEmpty(t, check.Warnings)
		assert.Contains(t, check.Warnings[0], "gap")
	})

	t.Run("high average time difference warns", func(t *testing.T) {
		result := Result{
			TotalCrimes:       1,
			AlignmentAccuracy: 100,
			Alignments: []TemporalAlignment{
				{Crime: crimeAt(base), TimeDifferenceMs: (7 * time.Hour).Milliseconds()},
			},
		}

		check := aligner.ValidateIntegrity(result)

		require.NotEmpty(t, check.Warnings)
	})

	t.Run("healthy result is clean", func(t *testing.T) {
		result := Result{
			TotalCrimes:       1,
			AlignmentAccuracy: 100,
			Alignments: []TemporalAlignment{
				{Crime: crimeAt(base), TimeDifferenceMs: 1000},
			},
		}

		check := aligner.ValidateIntegrity(result)

		assert.Empty(t, check.Errors)
		assert.Empty(t, check.Warnings)
	})
}

func TestStatistics(t *testing.T) {
	aligner := New(0, nil)

	t.Run("empty result", func(t *testing.T) {
		stats := aligner.Statistics(Result{})
		assert.Equal(t, Statistics{}, stats)
	})

	t.Run("min avg max", func(t *testing.T) {
		result := Result{Alignments: []TemporalAlignment{
			{TimeDifferenceMs: 1000},
			{TimeDifferenceMs: 3000},
			{TimeDifferenceMs: 2000},
		}}

		stats := aligner.Statistics(result)

		assert.Equal(t, int64(1000), stats.MinMs)
		assert.Equal(t, int64(3000), stats.MaxMs)
		assert.Equal(t, 2000.0, stats.AvgMs)
	})
}
