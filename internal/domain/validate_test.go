package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIncident() CrimeIncident {
	return CrimeIncident{
		ID:        uuid.NewString(),
		Timestamp: time.Date(2024, 3, 10, 22, 15, 0, 0, time.UTC),
		Location: GeographicCoordinate{
			Latitude:     41.88,
			Longitude:    -87.63,
			Jurisdiction: "chicago",
		},
		CrimeType:   CrimeType{Category: Property, Subcategory: "burglary", UCRCode: "220"},
		Severity:    Felony,
		Description: "forced entry through rear window",
	}
}

func validMoonPhase() MoonPhaseData {
	return MoonPhaseData{
		Timestamp:           time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Phase:               FullMoon,
		IlluminationPercent: 99.2,
		PhaseAngle:          180,
		DistanceKm:          384400,
		Location: GeographicCoordinate{
			Latitude:     41.88,
			Longitude:    -87.63,
			Jurisdiction: "chicago",
		},
	}
}

func TestValidateIncident(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateIncident(validIncident()))
	})

	t.Run("malformed UUID", func(t *testing.T) {
		in := validIncident()
		in.ID = "not-a-uuid"
		err := ValidateIncident(in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UUID")
	})

	t.Run("zero timestamp", func(t *testing.T) {
		in := validIncident()
		in.Timestamp = time.Time{}
		require.Error(t, ValidateIncident(in))
	})

	t.Run("unknown category", func(t *testing.T) {
		in := validIncident()
		in.CrimeType.Category = "jaywalking"
		require.Error(t, ValidateIncident(in))
	})

	t.Run("unknown severity", func(t *testing.T) {
		in := validIncident()
		in.Severity = "capital"
		require.Error(t, ValidateIncident(in))
	})

	t.Run("blank description", func(t *testing.T) {
		in := validIncident()
		in.Description = "   "
		require.Error(t, ValidateIncident(in))
	})

	t.Run("latitude out of range", func(t *testing.T) {
		in := validIncident()
		in.Location.Latitude = 91
		require.Error(t, ValidateIncident(in))
	})

	t.Run("empty jurisdiction", func(t *testing.T) {
		in := validIncident()
		in.Location.Jurisdiction = ""
		require.Error(t, ValidateIncident(in))
	})
}

func TestValidateMoonPhase(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateMoonPhase(validMoonPhase()))
	})

	t.Run("unknown phase", func(t *testing.T) {
		mp := validMoonPhase()
		mp.Phase = "blood_moon"
		require.Error(t, ValidateMoonPhase(mp))
	})

	t.Run("illumination above 100", func(t *testing.T) {
		mp := validMoonPhase()
		mp.IlluminationPercent = 100.5
		require.Error(t, ValidateMoonPhase(mp))
	})

	t.Run("angle at 360 rejected", func(t *testing.T) {
		mp := validMoonPhase()
		mp.PhaseAngle = 360
		require.Error(t, ValidateMoonPhase(mp))
	})

	t.Run("non-positive distance", func(t *testing.T) {
		mp := validMoonPhase()
		mp.DistanceKm = 0
		require.Error(t, ValidateMoonPhase(mp))
	})
}

func TestPhaseFromAngle(t *testing.T) {
	tests := []struct {
		angle    float64
		expected MoonPhaseName
	}{
		{0, NewMoon},
		{22.4, NewMoon},
		{45, WaxingCrescent},
		{90, FirstQuarter},
		{135, WaxingGibbous},
		{180, FullMoon},
		{225, WaningGibbous},
		{270, LastQuarter},
		{315, WaningCrescent},
		{340, NewMoon},
		{360, NewMoon},  // normalized
		{-45, WaningCrescent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PhaseFromAngle(tt.angle), "angle %.1f", tt.angle)
	}
}

func TestTimeRange(t *testing.T) {
	r := TimeRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, r.Contains(r.Start), "start boundary is inclusive")
	assert.True(t, r.Contains(r.End), "end boundary is inclusive")
	assert.False(t, r.Contains(r.End.Add(time.Second)))
	assert.InDelta(t, 30.0, r.Days(), 1e-9)
}
