// Command genmock generates deterministic mock crime and moon phase
// fixtures for tests and local development. Moon phases follow a synthetic
// synodic cycle; daily crime counts are drawn with a mild illumination bias
// so correlation output is non-trivial.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -start 2024-01-01 -days 60 -seed 42 \
//	  -crimes-out data/mock/crimes.json \
//	  -phases-out data/mock/moon_phases.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/lunar-crime-service/internal/domain"
)

// synodicDays is the length of the synthetic lunar cycle.
const synodicDays = 29.53

var subcategories = map[domain.CrimeCategory][]string{
	domain.Violent:     {"assault", "robbery"},
	domain.Property:    {"burglary", "theft"},
	domain.Drug:        {"possession"},
	domain.PublicOrder: {"disorderly_conduct"},
	domain.WhiteCollar: {"fraud"},
}

var severities = []domain.Severity{domain.Misdemeanor, domain.Felony, domain.Violation}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	startStr := flag.String("start", "2024-01-01", "first day of the window (YYYY-MM-DD)")
	days := flag.Int("days", 60, "number of days to generate")
	seed := flag.Int64("seed", 42, "PRNG seed for reproducible output")
	crimesOut := flag.String("crimes-out", "", "output path for crime incident JSON")
	phasesOut := flag.String("phases-out", "", "output path for moon phase JSON")
	flag.Parse()

	if *crimesOut == "" || *phasesOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -crimes-out, -phases-out")
	}

	start, err := time.Parse(time.DateOnly, *startStr)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	start = start.UTC()

	rng := rand.New(rand.NewSource(*seed))
	location := domain.GeographicCoordinate{
		Latitude:     41.88,
		Longitude:    -87.63,
		Jurisdiction: "chicago",
	}

	phases := generatePhases(start, *days, location)
	crimes := generateCrimes(rng, start, *days, location, phases)

	if err := writeJSON(*phasesOut, phases); err != nil {
		return err
	}
	if err := writeJSON(*crimesOut, crimes); err != nil {
		return err
	}

	log.Printf("wrote %d moon phases to %s", len(phases), *phasesOut)
	log.Printf("wrote %d crimes to %s", len(crimes), *crimesOut)
	return nil
}

// generatePhases emits one observation per day at local midnight, walking
// the phase angle through the synthetic cycle.
func generatePhases(start time.Time, days int, location domain.GeographicCoordinate) []domain.MoonPhaseData {
	phases := make([]domain.MoonPhaseData, 0, days)
	for d := 0; d < days; d++ {
		angle := math.Mod(float64(d)*360/synodicDays, 360)
		phases = append(phases, domain.MoonPhaseData{
			Timestamp:           start.AddDate(0, 0, d),
			Phase:               domain.PhaseFromAngle(angle),
			IlluminationPercent: (1 - math.Cos(angle*math.Pi/180)) / 2 * 100,
			PhaseAngle:          angle,
			DistanceKm:          384400 + 21000*math.Sin(angle*math.Pi/180),
			Location:            location,
		})
	}
	return phases
}

// generateCrimes draws a per-day incident count with a mild positive
// illumination bias, then scatters incidents through the day.
func generateCrimes(rng *rand.Rand, start time.Time, days int, location domain.GeographicCoordinate, phases []domain.MoonPhaseData) []domain.CrimeIncident {
	var crimes []domain.CrimeIncident
	for d := 0; d < days; d++ {
		base := 3 + rng.Intn(4)
		bias := int(phases[d].IlluminationPercent / 25)
		count := base + bias

		for i := 0; i < count; i++ {
			category := randomCategory(rng)
			subs := subcategories[category]
			ts := start.AddDate(0, 0, d).
				Add(time.Duration(rng.Intn(24*3600)) * time.Second)

			crimes = append(crimes, domain.CrimeIncident{
				ID:        uuid.NewString(),
				Timestamp: ts,
				Location: domain.GeographicCoordinate{
					Latitude:     location.Latitude + (rng.Float64()-0.5)*0.2,
					Longitude:    location.Longitude + (rng.Float64()-0.5)*0.2,
					Jurisdiction: location.Jurisdiction,
				},
				CrimeType: domain.CrimeType{
					Category:    category,
					Subcategory: subs[rng.Intn(len(subs))],
				},
				Severity:    severities[rng.Intn(len(severities))],
				Description: fmt.Sprintf("mock %s incident", category),
				Resolved:    rng.Float64() < 0.4,
			})
		}
	}
	return crimes
}

func randomCategory(rng *rand.Rand) domain.CrimeCategory {
	categories := []domain.CrimeCategory{
		domain.Violent, domain.Property, domain.Drug,
		domain.PublicOrder, domain.WhiteCollar,
	}
	return categories[rng.Intn(len(categories))]
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
