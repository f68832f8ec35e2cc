package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Rejection records a location dropped because a cumulative field decreased.
type Rejection struct {
	Location  Location
	Field     Field
	Date      time.Time // first date with a negative increment
	Increment float64
}

// SeriesReport summarizes one BuildLocationSeries run.
type SeriesReport struct {
	Locations int // distinct locations seen
	Rejected  []Rejection
}

// SortByDate returns a copy of rows stably sorted by date; ties keep input order.
func SortByDate(rows []Observation) []Observation {
	out := CloneAll(rows)
	slices.SortStableFunc(out, func(a, b Observation) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// BuildLocationSeries converts cumulative series into log-increment targets
// with historyDays lag columns per field. Locations whose increments go
// negative for any field are removed and listed in the report. The input is
// not modified.
func BuildLocationSeries(rows []Observation, historyDays int) ([]Observation, SeriesReport) {
	sorted := SortByDate(rows)
	for i := range sorted {
		sorted[i].Location.Region = strings.TrimSpace(sorted[i].Location.Region)
		sorted[i].Location.SubRegion = strings.TrimSpace(sorted[i].Location.SubRegion)
	}

	order, groups := groupByLocation(sorted)
	report := SeriesReport{Locations: len(order)}
	rejected := make(map[Location]bool)

	for _, loc := range order {
		idx := groups[loc]
		values := make([]float64, len(idx))
		for _, f := range Fields {
			for j, i := range idx {
				values[j] = sorted[i].Cumulative[f]
			}
			inc := Increments(values)
			if at := firstDecrease(inc); at >= 0 {
				report.Rejected = append(report.Rejected, Rejection{
					Location:  loc,
					Field:     f,
					Date:      sorted[idx[at]].Date,
					Increment: inc[at],
				})
				rejected[loc] = true
				break
			}

			target := Log1p(inc)
			for j, i := range idx {
				sorted[i].LogNew[f] = target[j]
				sorted[i].Lags[f] = lagWindow(target, j, historyDays)
			}
		}
	}

	if len(rejected) == 0 {
		return sorted, report
	}
	out := sorted[:0]
	for _, row := range sorted {
		if !rejected[row.Location] {
			out = append(out, row)
		}
	}
	return out, report
}

// Increments returns day-over-day differences; the first element is NaN.
func Increments(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i] - values[i-1]
	}
	return out
}

// IsCumulative reports whether no defined increment is negative.
func IsCumulative(increments []float64) bool {
	return firstDecrease(increments) < 0
}

func firstDecrease(increments []float64) int {
	for i, v := range increments {
		if !math.IsNaN(v) && v < 0 {
			return i
		}
	}
	return -1
}

// Log1p applies log(1+x) element-wise, keeping NaN.
func Log1p(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log1p(v)
	}
	return out
}

// lagWindow returns lags 1..depth of series at position i.
func lagWindow(series []float64, i, depth int) []float64 {
	lags := make([]float64, depth)
	for k := 1; k <= depth; k++ {
		if i-k >= 0 {
			lags[k-1] = series[i-k]
		} else {
			lags[k-1] = math.NaN()
		}
	}
	return lags
}
