package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDayIndex(t *testing.T) {
	// 2020-03-02 is a Monday.
	monday := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := []Observation{
		NewObservation(Location{Region: "A"}, monday.AddDate(0, 0, 6)),
		NewObservation(Location{Region: "B"}, monday),
		NewObservation(Location{Region: "A"}, monday.AddDate(0, 0, 2)),
	}

	out := AddDayIndex(rows)

	assert.Equal(t, []int{6, 0, 2}, []int{out[0].Day, out[1].Day, out[2].Day})
	assert.Equal(t, []int{6, 0, 2}, []int{out[0].WeekDay, out[1].WeekDay, out[2].WeekDay})
	assert.Empty(t, AddDayIndex(nil))
}

func TestDaysBetween_IgnoresClockTime(t *testing.T) {
	a := time.Date(2020, 3, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2020, 3, 3, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, -2, DaysBetween(b, a))
}

func TestAddThresholdFeatures(t *testing.T) {
	loc := Location{Region: "Korea, South"}
	// reaches 1 on day 1, 10 on day 3, 100 on day 5
	cases := []float64{0, 1, 5, 10, 50, 100, 120}
	rows := AddDayIndex(seriesRows(loc, testStart, cases, nil))

	out := AddThresholdFeatures(rows, DefaultThresholds)
	require.Len(t, out, len(cases))

	crossings := map[int]int{0: 1, 1: 3, 2: 5}
	for ti, crossing := range crossings {
		for _, r := range out {
			got := r.DaysSince[ConfirmedCases][ti]
			if r.Day < crossing {
				assert.Equal(t, -1.0, got, "threshold %d day %d", DefaultThresholds[ti], r.Day)
			} else {
				assert.Equal(t, float64(r.Day-crossing), got, "threshold %d day %d", DefaultThresholds[ti], r.Day)
			}
		}
	}
}

func TestAddThresholdFeatures_NeverReached(t *testing.T) {
	rows := AddDayIndex(seriesRows(Location{Region: "Fiji"}, testStart, []float64{0, 2, 3}, nil))

	out := AddThresholdFeatures(rows, DefaultThresholds)

	assert.Equal(t, []float64{-1, 0, 1}, []float64{
		out[0].DaysSince[ConfirmedCases][0],
		out[1].DaysSince[ConfirmedCases][0],
		out[2].DaysSince[ConfirmedCases][0],
	})
	for _, r := range out {
		assert.True(t, math.IsNaN(r.DaysSince[ConfirmedCases][1]))
		assert.True(t, math.IsNaN(r.DaysSince[ConfirmedCases][2]))
		assert.True(t, math.IsNaN(r.DaysSince[Fatalities][0]), "no fatalities ever")
	}
}

func TestAddThresholdFeatures_AppliesToFutureRows(t *testing.T) {
	rows := AddDayIndex(seriesRows(Location{Region: "Chile"}, testStart, []float64{1, math.NaN(), math.NaN()}, nil))

	out := AddThresholdFeatures(rows, []int{1})

	assert.Equal(t, []float64{0, 1, 2}, []float64{
		out[0].DaysSince[ConfirmedCases][0],
		out[1].DaysSince[ConfirmedCases][0],
		out[2].DaysSince[ConfirmedCases][0],
	})
}

func TestDaysSinceCrossing(t *testing.T) {
	assert.Equal(t, -1.0, DaysSinceCrossing(3, 4))
	assert.Equal(t, 0.0, DaysSinceCrossing(4, 4))
	assert.Equal(t, 6.0, DaysSinceCrossing(10, 4))
}
