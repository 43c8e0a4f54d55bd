// Package domain models lunar phase observations and crime incident records.
//
// # Data Sources
//
// Crime incidents originate from Socrata-style open-data portals (e.g. city
// police department incident feeds). The upstream fetcher maps portal rows
// into [CrimeIncident] values and drops anything that fails schema
// validation, so the analysis packages only ever see well-formed records.
//
// Moon phase observations follow the USNO (US Naval Observatory) data shape:
// one record per observation with the phase name, disk illumination, phase
// angle, and Earth-Moon distance, stamped with the observation time and the
// observer location.
//
// # Conventions
//
// Phase names:
//
//	The lunar cycle is divided into 8 canonical named phases (new moon,
//	waxing crescent, first quarter, waxing gibbous, full moon, waning
//	gibbous, last quarter, waning crescent). [PhaseFromAngle] maps a phase
//	angle in [0,360) onto these names using 45-degree sectors centered on
//	the principal phases.
//
// Crime categories:
//
//	Five-way classification (violent, property, drug, public_order,
//	white_collar) with a free-form subcategory (e.g. "burglary") and an
//	optional FBI UCR offense code. The (category, subcategory) pair is the
//	grouping key for correlation analysis.
//
// Coordinates:
//
//	WGS-84 latitude/longitude. Spatial compatibility checks in the aligner
//	use a flat 1-degree bounding box rather than great-circle distance;
//	at mid latitudes that is roughly a 100 km window, which is more than
//	precise enough given that moon phase varies negligibly across a city.
//
// Timestamps:
//
//	All timestamps are time.Time values carrying their own zone; analysis
//	code compares instants, so zone only matters for calendar-day
//	bucketing, which is done in UTC.
//
// # Validation
//
// [ValidateIncident] and [ValidateMoonPhase] enforce the schema invariants
// (UUID-shaped IDs, closed category sets, coordinate and percentage ranges).
// They are applied at the fetcher boundary: invalid upstream rows are
// dropped and counted there, never repaired downstream.
package domain
