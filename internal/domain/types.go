package domain

import "time"

// MoonPhaseName is one of the 8 canonical named positions in the lunar cycle.
type MoonPhaseName string

const (
	NewMoon        MoonPhaseName = "new_moon"
	WaxingCrescent MoonPhaseName = "waxing_crescent"
	FirstQuarter   MoonPhaseName = "first_quarter"
	WaxingGibbous  MoonPhaseName = "waxing_gibbous"
	FullMoon       MoonPhaseName = "full_moon"
	WaningGibbous  MoonPhaseName = "waning_gibbous"
	LastQuarter    MoonPhaseName = "last_quarter"
	WaningCrescent MoonPhaseName = "waning_crescent"
)

// CanonicalPhases lists the 8 phases in cycle order. Correlation and trend
// analysis iterate this slice so results come back in a stable order.
var CanonicalPhases = []MoonPhaseName{
	NewMoon, WaxingCrescent, FirstQuarter, WaxingGibbous,
	FullMoon, WaningGibbous, LastQuarter, WaningCrescent,
}

// PhaseFromAngle maps a phase angle in degrees to its canonical phase name
// using 45-degree sectors centered on the principal phases. Angles outside
// [0,360) are normalized first.
func PhaseFromAngle(angle float64) MoonPhaseName {
	for angle < 0 {
		angle += 360
	}
	for angle >= 360 {
		angle -= 360
	}

	switch {
	case angle < 22.5:
		return NewMoon
	case angle < 67.5:
		return WaxingCrescent
	case angle < 112.5:
		return FirstQuarter
	case angle < 157.5:
		return WaxingGibbous
	case angle < 202.5:
		return FullMoon
	case angle < 247.5:
		return WaningGibbous
	case angle < 292.5:
		return LastQuarter
	case angle < 337.5:
		return WaningCrescent
	default:
		return NewMoon
	}
}

// CrimeCategory is the closed five-way crime classification.
type CrimeCategory string

const (
	Violent     CrimeCategory = "violent"
	Property    CrimeCategory = "property"
	Drug        CrimeCategory = "drug"
	PublicOrder CrimeCategory = "public_order"
	WhiteCollar CrimeCategory = "white_collar"
)

// Severity is the legal severity of an incident.
type Severity string

const (
	Misdemeanor Severity = "misdemeanor"
	Felony      Severity = "felony"
	Violation   Severity = "violation"
)

// GeographicCoordinate is a WGS-84 point within a named jurisdiction.
type GeographicCoordinate struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address,omitempty"`
	Jurisdiction string  `json:"jurisdiction"`
}

// CrimeType classifies an incident. The (Category, Subcategory) pair is the
// grouping key for correlation analysis.
type CrimeType struct {
	Category    CrimeCategory `json:"category"`
	Subcategory string        `json:"subcategory"`
	UCRCode     string        `json:"ucr_code,omitempty"`
}

// MoonPhaseData is a single lunar observation.
type MoonPhaseData struct {
	Timestamp           time.Time            `json:"timestamp"`
	Phase               MoonPhaseName        `json:"phase"`
	IlluminationPercent float64              `json:"illumination_percent"`
	PhaseAngle          float64              `json:"phase_angle"`
	DistanceKm          float64              `json:"distance_km"`
	Location            GeographicCoordinate `json:"location"`
}

// CrimeIncident is a single validated crime record.
type CrimeIncident struct {
	ID          string               `json:"id"`
	Timestamp   time.Time            `json:"timestamp"`
	Location    GeographicCoordinate `json:"location"`
	CrimeType   CrimeType            `json:"crime_type"`
	Severity    Severity             `json:"severity"`
	Description string               `json:"description"`
	CaseNumber  string               `json:"case_number,omitempty"`
	Resolved    bool                 `json:"resolved"`
}

// TimeRange is an inclusive [Start, End] window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the range, boundaries included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the range length in fractional days.
func (r TimeRange) Days() float64 {
	return r.End.Sub(r.Start).Hours() / 24
}
