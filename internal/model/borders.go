package model

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// quantize computes at most maxBorders split borders for values. With few
// distinct values every midpoint is a border; otherwise borders are empirical
// quantiles. NaN values are ignored.
func quantize(values []float64, maxBorders int) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) < 2 {
		return nil
	}
	slices.Sort(sorted)
	unique := slices.Compact(slices.Clone(sorted))
	if len(unique) < 2 {
		return nil
	}

	if len(unique)-1 <= maxBorders {
		borders := make([]float64, len(unique)-1)
		for i := range borders {
			borders[i] = (unique[i] + unique[i+1]) / 2
		}
		return borders
	}

	borders := make([]float64, 0, maxBorders)
	for i := 1; i <= maxBorders; i++ {
		q := stat.Quantile(float64(i)/float64(maxBorders+1), stat.Empirical, sorted, nil)
		if q >= unique[len(unique)-1] {
			continue
		}
		borders = append(borders, q)
	}
	return slices.Compact(borders)
}

// binOf returns the smallest b with value <= borders[b], len(borders) when
// value exceeds every border, and -1 for NaN.
func binOf(borders []float64, value float64) int {
	if math.IsNaN(value) {
		return -1
	}
	return sort.SearchFloat64s(borders, value)
}
