package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Schema validation for records crossing the fetcher boundary. Invalid
// records are dropped upstream; analysis code never sees them.

var validCategories = map[CrimeCategory]bool{
	Violent:     true,
	Property:    true,
	Drug:        true,
	PublicOrder: true,
	WhiteCollar: true,
}

var validSeverities = map[Severity]bool{
	Misdemeanor: true,
	Felony:      true,
	Violation:   true,
}

var validPhases = map[MoonPhaseName]bool{
	NewMoon:        true,
	WaxingCrescent: true,
	FirstQuarter:   true,
	WaxingGibbous:  true,
	FullMoon:       true,
	WaningGibbous:  true,
	LastQuarter:    true,
	WaningCrescent: true,
}

// ValidateCoordinate checks WGS-84 bounds and that the jurisdiction is set.
func ValidateCoordinate(c GeographicCoordinate) error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %.4f out of range [-90,90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %.4f out of range [-180,180]", c.Longitude)
	}
	if strings.TrimSpace(c.Jurisdiction) == "" {
		return errors.New("jurisdiction is empty")
	}
	return nil
}

// ValidateIncident checks a crime incident against the record schema.
func ValidateIncident(in CrimeIncident) error {
	if _, err := uuid.Parse(in.ID); err != nil {
		return fmt.Errorf("incident id %q is not a valid UUID: %w", in.ID, err)
	}
	if in.Timestamp.IsZero() {
		return errors.New("incident timestamp is zero")
	}
	if err := ValidateCoordinate(in.Location); err != nil {
		return fmt.Errorf("incident location: %w", err)
	}
	if !validCategories[in.CrimeType.Category] {
		return fmt.Errorf("unknown crime category %q", in.CrimeType.Category)
	}
	if !validSeverities[in.Severity] {
		return fmt.Errorf("unknown severity %q", in.Severity)
	}
	if strings.TrimSpace(in.Description) == "" {
		return errors.New("incident description is empty")
	}
	return nil
}

// ValidateMoonPhase checks a lunar observation against the record schema.
func ValidateMoonPhase(mp MoonPhaseData) error {
	if mp.Timestamp.IsZero() {
		return errors.New("moon phase timestamp is zero")
	}
	if !validPhases[mp.Phase] {
		return fmt.Errorf("unknown moon phase %q", mp.Phase)
	}
	if mp.IlluminationPercent < 0 || mp.IlluminationPercent > 100 {
		return fmt.Errorf("illumination %.2f out of range [0,100]", mp.IlluminationPercent)
	}
	if mp.PhaseAngle < 0 || mp.PhaseAngle >= 360 {
		return fmt.Errorf("phase angle %.2f out of range [0,360)", mp.PhaseAngle)
	}
	if mp.DistanceKm <= 0 {
		return fmt.Errorf("distance %.1f km is not positive", mp.DistanceKm)
	}
	if err := ValidateCoordinate(mp.Location); err != nil {
		return fmt.Errorf("moon phase location: %w", err)
	}
	return nil
}
