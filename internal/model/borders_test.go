package model

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantize_Midpoints(t *testing.T) {
	got := quantize([]float64{3, 1, math.NaN(), 2, 2}, 10)
	assert.Equal(t, []float64{1.5, 2.5}, got)
}

func TestQuantize_Constant(t *testing.T) {
	assert.Nil(t, quantize([]float64{4, 4, 4}, 10))
	assert.Nil(t, quantize([]float64{math.NaN()}, 10))
}

func TestQuantize_Quantiles(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
	}

	got := quantize(values, 15)

	assert.LessOrEqual(t, len(got), 15)
	assert.Greater(t, len(got), 10)
	assert.True(t, slices.IsSorted(got))
	assert.Less(t, got[len(got)-1], 999.0)
}

func TestBinOf(t *testing.T) {
	borders := []float64{1.5, 2.5}
	assert.Equal(t, 0, binOf(borders, 1))
	assert.Equal(t, 0, binOf(borders, 1.5))
	assert.Equal(t, 1, binOf(borders, 2))
	assert.Equal(t, 2, binOf(borders, 3))
	assert.Equal(t, -1, binOf(borders, math.NaN()))
}
