package readpath

import (
	"fmt"
	"regexp"
)

// Cache keys are built deterministically so pattern invalidation stays
// correct. Any change here must keep the Intent patterns below in sync.

func KeyRatesAll() string { return "rates_all" }

// KeyServicesByRate — numberOfPeople is 0 when unfiltered.
func KeyServicesByRate(rateID string, numberOfPeople int) string {
	return fmt.Sprintf("services_rate_%s_people_%d", rateID, numberOfPeople)
}

func KeyExperiences(expType, dayDate string) string {
	if dayDate == "" {
		return fmt.Sprintf("experiences_%s_all", expType)
	}
	return fmt.Sprintf("experiences_%s_day_%s", expType, dayDate)
}

func KeyTourDestinations(rateID, dayDate string) string {
	if dayDate == "" {
		return fmt.Sprintf("tour_destinations_%s_all", rateID)
	}
	return fmt.Sprintf("tour_destinations_%s_day_%s", rateID, dayDate)
}

func KeyTourVehicles(rateID, destID string, numberOfPeople int, dayDate string) string {
	day := dayDate
	if day == "" {
		day = "all"
	}
	return fmt.Sprintf("tour_vehicles_%s_%s_people_%d_day_%s", rateID, destID, numberOfPeople, day)
}

func KeyQuote(quoteID string) string { return "quote_" + quoteID }

// Intent is the finite set of cache invalidations the orchestrator issues.
type Intent int

const (
	// InvalidateByPeople — the party size changed; every people-scoped key dies.
	InvalidateByPeople Intent = iota
	// InvalidateByDate — a day date changed; every date-scoped key dies.
	InvalidateByDate
	// InvalidateByRate — the quote rate changed; service and tour keys die.
	InvalidateByRate
	// InvalidateAll — drop everything.
	InvalidateAll
)

var (
	peoplePattern = regexp.MustCompile(`people_\d+`)
	datePattern   = regexp.MustCompile(`day_\d{4}-\d{2}-\d{2}`)
	ratePattern   = regexp.MustCompile(`^(services_rate_|tour_)`)
	allPattern    = regexp.MustCompile(``)
)

// Pattern returns the compiled key pattern for the intent.
func (i Intent) Pattern() *regexp.Regexp {
	switch i {
	case InvalidateByPeople:
		return peoplePattern
	case InvalidateByDate:
		return datePattern
	case InvalidateByRate:
		return ratePattern
	default:
		return allPattern
	}
}
