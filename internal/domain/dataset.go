package domain

import "time"

// cruiseShips are Province/State values that actually name a ship carrying
// passengers of the country given in Country/Region.
var cruiseShips = map[string]bool{
	"From Diamond Princess": true,
	"Grand Princess":        true,
}

// CombineTrainAndForecast appends the forecast rows dated after the last
// training date, so every location-day appears once.
func CombineTrainAndForecast(train, forecast []Observation) []Observation {
	var last time.Time
	for i := range train {
		if train[i].Date.After(last) {
			last = train[i].Date
		}
	}
	out := CloneAll(train)
	for i := range forecast {
		if forecast[i].Date.After(last) {
			out = append(out, forecast[i].Clone())
		}
	}
	return out
}

// SwapCruiseShips turns ("US", "Grand Princess") into ("Grand Princess", "US")
// so each ship is its own region.
func SwapCruiseShips(rows []Observation) []Observation {
	out := CloneAll(rows)
	for i := range out {
		loc := out[i].Location
		if cruiseShips[loc.SubRegion] {
			out[i].Location = Location{Region: loc.SubRegion, SubRegion: loc.Region}
		}
	}
	return out
}

// RawDataset is everything the feature pipeline reads, already parsed and
// reconciled to case-data country names.
type RawDataset struct {
	Train      []Observation
	Forecast   []Observation
	Covariates []*CovariateTable
}

// Observations returns the combined, cruise-ship corrected rows.
func (d RawDataset) Observations() []Observation {
	return SwapCruiseShips(CombineTrainAndForecast(d.Train, d.Forecast))
}
