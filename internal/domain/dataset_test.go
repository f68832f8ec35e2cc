package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineTrainAndForecast(t *testing.T) {
	loc := Location{Region: "Italy"}
	train := seriesRows(loc, testStart, []float64{1, 2, 3}, nil)
	forecast := []Observation{
		NewObservation(loc, testStart.AddDate(0, 0, 1)),
		NewObservation(loc, testStart.AddDate(0, 0, 2)),
		NewObservation(loc, testStart.AddDate(0, 0, 3)),
		NewObservation(loc, testStart.AddDate(0, 0, 4)),
	}
	forecast[2].ForecastID = 7

	out := CombineTrainAndForecast(train, forecast)

	require.Len(t, out, 5)
	assert.Equal(t, 7, out[3].ForecastID)
	assert.Equal(t, testStart.AddDate(0, 0, 4), out[4].Date)
}

func TestSwapCruiseShips(t *testing.T) {
	rows := []Observation{
		NewObservation(Location{Region: "US", SubRegion: "Grand Princess"}, testStart),
		NewObservation(Location{Region: "Canada", SubRegion: "From Diamond Princess"}, testStart),
		NewObservation(Location{Region: "US", SubRegion: "Washington"}, testStart),
	}

	out := SwapCruiseShips(rows)

	assert.Equal(t, Location{Region: "Grand Princess", SubRegion: "US"}, out[0].Location)
	assert.Equal(t, Location{Region: "From Diamond Princess", SubRegion: "Canada"}, out[1].Location)
	assert.Equal(t, Location{Region: "US", SubRegion: "Washington"}, out[2].Location)
}

func TestRawDataset_Observations(t *testing.T) {
	loc := Location{Region: "US", SubRegion: "Grand Princess"}
	d := RawDataset{
		Train:    seriesRows(loc, testStart, []float64{1}, nil),
		Forecast: []Observation{NewObservation(loc, testStart), NewObservation(loc, testStart.AddDate(0, 0, 1))},
	}

	out := d.Observations()
	require.Len(t, out, 2)
	assert.Equal(t, "Grand Princess", out[1].Location.Region)
}
