package model

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams() Params {
	p := DefaultParams()
	p.Iterations = 200
	p.LearningRate = 0.3
	p.L2Reg = 0
	p.LogPeriod = 0
	return p
}

// stepSample has y = 0 for x <= 4 and y = 10 above.
func stepSample(n int) Sample {
	x := NewDataset(n, []string{"x", "noise"}, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i % 10)
		x.SetNumeric(i, 0, v)
		x.SetNumeric(i, 1, float64((i*7)%3))
		if v > 4 {
			y[i] = 10
		}
	}
	return Sample{X: x, Y: y}
}

func TestFit_LearnsStep(t *testing.T) {
	train := stepSample(100)

	b, err := Fit(context.Background(), "y", train, Sample{}, testParams(), discardLogger())
	require.NoError(t, err)

	query := NewDataset(2, []string{"x", "noise"}, nil)
	query.SetNumeric(0, 0, 2)
	query.SetNumeric(1, 0, 8)
	pred, err := b.Predict(query)
	require.NoError(t, err)

	assert.InDelta(t, 0, pred[0], 0.05)
	assert.InDelta(t, 10, pred[1], 0.05)
	assert.Equal(t, "y", b.Target)
	assert.Len(t, b.Trees, 200)

	imp := b.FeatureImportance()
	assert.Greater(t, imp["x"], imp["noise"])
	assert.InDelta(t, 100, imp["x"]+imp["noise"], 1e-9)
}

func TestFit_LearnsMissingDirection(t *testing.T) {
	n := 60
	x := NewDataset(n, []string{"x"}, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		switch i % 3 {
		case 0:
			x.SetNumeric(i, 0, math.NaN())
			y[i] = 5
		case 1:
			x.SetNumeric(i, 0, 1)
		case 2:
			x.SetNumeric(i, 0, 2)
		}
	}

	b, err := Fit(context.Background(), "y", Sample{X: x, Y: y}, Sample{}, testParams(), discardLogger())
	require.NoError(t, err)

	query := NewDataset(2, []string{"x"}, nil)
	query.SetNumeric(0, 0, math.NaN())
	query.SetNumeric(1, 0, 1.5)
	pred, err := b.Predict(query)
	require.NoError(t, err)
	assert.InDelta(t, 5, pred[0], 0.05)
	assert.InDelta(t, 0, pred[1], 0.05)
}

func TestFit_CategoricalEncoding(t *testing.T) {
	n := 40
	x := NewDataset(n, nil, []string{"Country/Region"})
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			x.SetCategorical(i, 0, "Italy")
			y[i] = 1
		} else {
			x.SetCategorical(i, 0, "Spain")
			y[i] = 3
		}
	}

	b, err := Fit(context.Background(), "y", Sample{X: x, Y: y}, Sample{}, testParams(), discardLogger())
	require.NoError(t, err)

	query := NewDataset(3, nil, []string{"Country/Region"})
	query.SetCategorical(0, 0, "Italy")
	query.SetCategorical(1, 0, "Spain")
	query.SetCategorical(2, 0, "Atlantis")
	pred, err := b.Predict(query)
	require.NoError(t, err)

	assert.InDelta(t, 1, pred[0], 0.05)
	assert.InDelta(t, 3, pred[1], 0.05)
	assert.False(t, math.IsNaN(pred[2]))
	assert.Equal(t, 2.0, b.Encoders[0].Mean)
}

func TestFit_SkipsUndefinedLabels(t *testing.T) {
	s := stepSample(20)
	s.Y[0] = math.NaN()
	s.Y[5] = math.NaN()

	b, err := Fit(context.Background(), "y", s, Sample{}, testParams(), discardLogger())
	require.NoError(t, err)
	assert.False(t, math.IsNaN(b.Base))
}

func TestFit_NoDefinedLabels(t *testing.T) {
	x := NewDataset(2, []string{"x"}, nil)
	_, err := Fit(context.Background(), "y", Sample{X: x, Y: []float64{math.NaN(), math.NaN()}}, Sample{}, testParams(), discardLogger())
	assert.ErrorIs(t, err, ErrNoTrainingRows)
}

func TestFit_LabelCountMismatch(t *testing.T) {
	x := NewDataset(2, []string{"x"}, nil)
	_, err := Fit(context.Background(), "y", Sample{X: x, Y: []float64{1}}, Sample{}, testParams(), discardLogger())
	assert.Error(t, err)
}

func TestFit_KeepsBestEvalIteration(t *testing.T) {
	train := NewDataset(2, []string{"x"}, nil)
	train.SetNumeric(0, 0, 0)
	train.SetNumeric(1, 0, 1)
	eval := NewDataset(2, []string{"x"}, nil)
	eval.SetNumeric(0, 0, 0)
	eval.SetNumeric(1, 0, 1)

	p := testParams()
	p.Iterations = 20
	// every tree moves predictions away from the eval labels, which equal the base score
	b, err := Fit(context.Background(), "y",
		Sample{X: train, Y: []float64{0, 2}},
		Sample{X: eval, Y: []float64{1, 1}},
		p, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 0, b.BestIteration)
	assert.Len(t, b.Trees, 1)
	assert.False(t, math.IsNaN(b.BestEvalRMSE))

	p.UseBest = false
	b, err = Fit(context.Background(), "y",
		Sample{X: train, Y: []float64{0, 2}},
		Sample{X: eval, Y: []float64{1, 1}},
		p, discardLogger())
	require.NoError(t, err)
	assert.Len(t, b.Trees, 20)
}

func TestFit_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fit(ctx, "y", stepSample(10), Sample{}, testParams(), discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFit_InvalidParams(t *testing.T) {
	p := testParams()
	p.Iterations = 0
	p.MaxDepth = 0
	_, err := Fit(context.Background(), "y", stepSample(10), Sample{}, p, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterations")
	assert.Contains(t, err.Error(), "max depth")
}

func TestPredict_MatchesColumnsByName(t *testing.T) {
	b, err := Fit(context.Background(), "y", stepSample(100), Sample{}, testParams(), discardLogger())
	require.NoError(t, err)

	swapped := NewDataset(1, []string{"noise", "x", "extra"}, nil)
	swapped.SetNumeric(0, 1, 8)
	pred, err := b.Predict(swapped)
	require.NoError(t, err)
	assert.InDelta(t, 10, pred[0], 0.05)

	_, err = b.Predict(NewDataset(1, []string{"x"}, nil))
	assert.ErrorIs(t, err, ErrMissingFeature)
}

func TestRMSE(t *testing.T) {
	assert.InDelta(t, math.Sqrt(2.5), RMSE([]float64{1, 2}, []float64{0, 4}), 1e-12)
	assert.True(t, math.IsNaN(RMSE(nil, nil)))
}
