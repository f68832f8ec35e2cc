package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// PopulationRecord is one UN WPP row: population of one age group of one
// country in one year, in thousands.
type PopulationRecord struct {
	Location  string
	Year      int
	AgeGroup  string // "0-4", "5-9", ..., "100+"
	PopMale   float64
	PopFemale float64
}

var ageGroupStartRe = regexp.MustCompile(`^(\d+)\s*[-+]`)

// AgeBand maps an age group to one of the five 20-year bands (0..4).
func AgeBand(ageGroup string) (int, error) {
	m := ageGroupStartRe.FindStringSubmatch(ageGroup)
	if m == nil {
		return 0, fmt.Errorf("parse age group %q", ageGroup)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("parse age group %q: %w", ageGroup, err)
	}
	return min(start/20, len(PopulationBandColumns)-1), nil
}

// AggregatePopulation collapses records with fromYear <= Year <= toYear into
// one row per country using the most recent year available for it. Columns
// are the five age bands followed by male, female and total population.
func AggregatePopulation(records []PopulationRecord, fromYear, toYear int) (*CovariateTable, error) {
	type key struct {
		location string
		year     int
	}
	type agg struct {
		bands        [5]float64
		male, female float64
	}

	sums := make(map[key]*agg)
	for _, r := range records {
		if r.Year < fromYear || r.Year > toYear {
			continue
		}
		band, err := AgeBand(r.AgeGroup)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", r.Location, r.Year, err)
		}
		k := key{r.Location, r.Year}
		a, ok := sums[k]
		if !ok {
			a = &agg{}
			sums[k] = a
		}
		a.bands[band] += r.PopMale + r.PopFemale
		a.male += r.PopMale
		a.female += r.PopFemale
	}

	latest := make(map[string]int)
	for k := range sums {
		if y, ok := latest[k.location]; !ok || k.year > y {
			latest[k.location] = k.year
		}
	}

	columns := append(append([]string{}, PopulationBandColumns...),
		ColCountryPopMale, ColCountryPopFemale, ColCountryPopTotal)
	table := NewCovariateTable("population", columns...)
	for location, year := range latest {
		a := sums[key{location, year}]
		table.Set(location,
			a.bands[0], a.bands[1], a.bands[2], a.bands[3], a.bands[4],
			a.male, a.female, a.male+a.female,
		)
	}
	return table, nil
}
