package domain

import (
	"math"
	"time"
)

// AddDayIndex sets Day (days since the earliest date in rows) and WeekDay
// (Monday=0 .. Sunday=6) on copies of rows.
func AddDayIndex(rows []Observation) []Observation {
	out := CloneAll(rows)
	if len(out) == 0 {
		return out
	}
	first := out[0].Date
	for i := range out {
		if out[i].Date.Before(first) {
			first = out[i].Date
		}
	}
	for i := range out {
		out[i].Day = DaysBetween(first, out[i].Date)
		out[i].WeekDay = (int(out[i].Date.Weekday()) + 6) % 7
	}
	return out
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// AddThresholdFeatures fills DaysSince for every field and threshold on
// copies of rows. Day must already be set. For each location the crossing day
// is the smallest Day whose cumulative value reaches the threshold; the
// feature is -1 before it and Day-crossing from it on. Locations that never
// reach a threshold keep NaN for it.
func AddThresholdFeatures(rows []Observation, thresholds []int) []Observation {
	out := CloneAll(rows)
	for i := range out {
		for _, f := range Fields {
			out[i].DaysSince[f] = make([]float64, len(thresholds))
			for t := range thresholds {
				out[i].DaysSince[f][t] = math.NaN()
			}
		}
	}

	order, groups := groupByLocation(out)
	for _, loc := range order {
		idx := groups[loc]
		for _, f := range Fields {
			for t, threshold := range thresholds {
				crossing, ok := firstCrossing(out, idx, f, float64(threshold))
				if !ok {
					continue
				}
				for _, i := range idx {
					out[i].DaysSince[f][t] = DaysSinceCrossing(out[i].Day, crossing)
				}
			}
		}
	}
	return out
}

// DaysSinceCrossing is -1 before the crossing day and day-crossing after.
func DaysSinceCrossing(day, crossing int) float64 {
	if day < crossing {
		return -1
	}
	return float64(day - crossing)
}

func firstCrossing(rows []Observation, idx []int, f Field, threshold float64) (int, bool) {
	found := false
	crossing := 0
	for _, i := range idx {
		v := rows[i].Cumulative[f]
		if math.IsNaN(v) || v < threshold {
			continue
		}
		if !found || rows[i].Day < crossing {
			crossing = rows[i].Day
			found = true
		}
	}
	return crossing, found
}
