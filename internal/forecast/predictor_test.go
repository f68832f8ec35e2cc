package forecast

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/features"
	"github.com/couchcryptid/covid-forecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fake regressor ---

// dayRegressor returns a fixed score per Day, or a function of the first lag
// when fromLag is set.
type dayRegressor struct {
	byDay   map[int]float64
	fromLag string
	calls   int
}

func (r *dayRegressor) Predict(d *model.Dataset) ([]float64, error) {
	r.calls++
	dayCol := slices.Index(d.NumericNames, features.ColDay)
	lagCol := slices.Index(d.NumericNames, r.fromLag)
	out := make([]float64, d.Rows())
	for i := range out {
		if r.fromLag != "" {
			out[i] = d.Numeric(i, lagCol) + 1
			continue
		}
		out[i] = r.byDay[int(d.Numeric(i, dayCol))]
	}
	return out, nil
}

type failingRegressor struct{}

func (failingRegressor) Predict(*model.Dataset) ([]float64, error) {
	return nil, errors.New("boom")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	day0  = time.Date(2020, 3, 25, 0, 0, 0, 0, time.UTC)
	italy = domain.Location{Region: "Italy"}
	spain = domain.Location{Region: "Spain"}
)

func testSchema() features.Schema {
	return features.Schema{HistoryDays: 3}
}

func rangeRows(loc domain.Location, days int, firstDay int) []domain.Observation {
	rows := make([]domain.Observation, days)
	for i := range rows {
		rows[i] = domain.NewObservation(loc, day0.AddDate(0, 0, i))
		rows[i].Day = firstDay + i
		for _, f := range domain.Fields {
			rows[i].Lags[f] = []float64{math.NaN(), math.NaN(), math.NaN()}
		}
	}
	return rows
}

func seedRow(loc domain.Location, cases, deaths float64) domain.Observation {
	row := domain.NewObservation(loc, day0.AddDate(0, 0, -1))
	row.Cumulative = [domain.NumFields]float64{cases, deaths}
	return row
}

func newPredictor(t *testing.T, cases, deaths Regressor) *Predictor {
	t.Helper()
	p, err := NewPredictor(Models{
		domain.ConfirmedCases.Target(): cases,
		domain.Fatalities.Target():     deaths,
	}, testSchema(), discardLogger())
	require.NoError(t, err)
	return p
}

// --- tests ---

func TestRun_ReconstructsAndClamps(t *testing.T) {
	cases := &dayRegressor{byDay: map[int]float64{10: math.Log1p(5), 11: -0.1}}
	deaths := &dayRegressor{byDay: map[int]float64{10: 0, 11: math.Log1p(2)}}
	p := newPredictor(t, cases, deaths)

	out, report, err := p.Run(rangeRows(italy, 2, 10), []domain.Observation{seedRow(italy, 100, 3)}, Range{
		First: day0,
		Last:  day0.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 105.0, out[0].PredictedCumulative[domain.ConfirmedCases])
	assert.Equal(t, 105.0, out[1].PredictedCumulative[domain.ConfirmedCases])
	assert.Equal(t, 0.0, out[1].PredictedLogNew[domain.ConfirmedCases], "clamped")
	assert.Equal(t, 3.0, out[0].PredictedCumulative[domain.Fatalities])
	assert.Equal(t, 5.0, out[1].PredictedCumulative[domain.Fatalities])
	assert.Equal(t, Report{Days: 2, Rows: 2}, report)
	assert.Equal(t, 2, cases.calls, "one batch per day")
}

func TestRun_UnmatchedLocationIsSilent(t *testing.T) {
	reg := &dayRegressor{byDay: map[int]float64{10: math.Log1p(1)}}
	p := newPredictor(t, reg, reg)

	rows := append(rangeRows(italy, 1, 10), rangeRows(spain, 1, 10)...)
	out, report, err := p.Run(rows, []domain.Observation{seedRow(italy, 1, 0)}, Range{First: day0, Last: day0})
	require.NoError(t, err)

	assert.Equal(t, 2.0, out[0].PredictedCumulative[domain.ConfirmedCases])
	assert.True(t, math.IsNaN(out[1].PredictedCumulative[domain.ConfirmedCases]))
	assert.InDelta(t, math.Log1p(1), out[1].PredictedLogNew[domain.ConfirmedCases], 1e-12)
	assert.Equal(t, 1, report.Unmatched)
}

func TestRun_PropagatesIntoLaterLags(t *testing.T) {
	lag1 := domain.ConfirmedCases.LagColumn(1)
	cases := &dayRegressor{fromLag: lag1}
	deaths := &dayRegressor{byDay: map[int]float64{}}
	p := newPredictor(t, cases, deaths)

	rows := rangeRows(italy, 3, 10)
	rows[0].Lags[domain.ConfirmedCases][0] = 0.5

	out, _, err := p.Run(rows, []domain.Observation{seedRow(italy, 10, 0)}, Range{
		First:     day0,
		Last:      day0.AddDate(0, 0, 2),
		Propagate: true,
	})
	require.NoError(t, err)

	// each day sees the previous day's prediction in lag 1
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, []float64{
		out[0].PredictedLogNew[domain.ConfirmedCases],
		out[1].PredictedLogNew[domain.ConfirmedCases],
		out[2].PredictedLogNew[domain.ConfirmedCases],
	})
	assert.Equal(t, 1.5, out[2].Lag(domain.ConfirmedCases, 2))
	assert.Equal(t, 0.0, out[2].Lag(domain.Fatalities, 1))
	assert.True(t, math.IsNaN(rows[1].Lag(domain.ConfirmedCases, 1)), "input untouched")
}

func TestRun_WithoutPropagationKeepsActualLags(t *testing.T) {
	lag1 := domain.ConfirmedCases.LagColumn(1)
	cases := &dayRegressor{fromLag: lag1}
	deaths := &dayRegressor{byDay: map[int]float64{}}
	p := newPredictor(t, cases, deaths)

	rows := rangeRows(italy, 2, 10)
	rows[0].Lags[domain.ConfirmedCases][0] = 0.5
	rows[1].Lags[domain.ConfirmedCases][0] = 2

	out, _, err := p.Run(rows, []domain.Observation{seedRow(italy, 10, 0)}, Range{First: day0, Last: day0.AddDate(0, 0, 1)})
	require.NoError(t, err)

	assert.Equal(t, 3.0, out[1].PredictedLogNew[domain.ConfirmedCases])
	assert.Equal(t, 2.0, out[1].Lag(domain.ConfirmedCases, 1))
}

func TestRun_PropagationStopsAtHistoryDepth(t *testing.T) {
	reg := &dayRegressor{byDay: map[int]float64{10: 1}}
	p := newPredictor(t, reg, reg)

	out, _, err := p.Run(rangeRows(italy, 5, 10), []domain.Observation{seedRow(italy, 0, 0)}, Range{
		First:     day0,
		Last:      day0.AddDate(0, 0, 4),
		Propagate: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, out[3].Lag(domain.ConfirmedCases, 3))
	assert.Len(t, out[4].Lags[domain.ConfirmedCases], 3)
}

func TestRun_SkipsEmptyDay(t *testing.T) {
	reg := &dayRegressor{byDay: map[int]float64{10: math.Log1p(4), 12: math.Log1p(1)}}
	p := newPredictor(t, reg, reg)

	rows := rangeRows(italy, 3, 10)
	rows = []domain.Observation{rows[0], rows[2]}

	out, report, err := p.Run(rows, []domain.Observation{seedRow(italy, 10, 10)}, Range{First: day0, Last: day0.AddDate(0, 0, 2)})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Days)
	assert.Equal(t, 14.0, out[0].PredictedCumulative[domain.ConfirmedCases])
	assert.Equal(t, 15.0, out[1].PredictedCumulative[domain.ConfirmedCases])
}

func TestRun_ModelError(t *testing.T) {
	p := newPredictor(t, failingRegressor{}, failingRegressor{})

	_, _, err := p.Run(rangeRows(italy, 1, 10), nil, Range{First: day0, Last: day0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2020-03-25")
	assert.Contains(t, err.Error(), "boom")
}

func TestNewPredictor_RequiresEveryTarget(t *testing.T) {
	_, err := NewPredictor(Models{domain.ConfirmedCases.Target(): &dayRegressor{}}, testSchema(), discardLogger())
	assert.ErrorIs(t, err, domain.ErrNoModels)
}

func TestReconstruct(t *testing.T) {
	assert.Equal(t, 105.0, Reconstruct(100, math.Log1p(5)))
	assert.Equal(t, 100.0, Reconstruct(100, 0))
	assert.Equal(t, 1100.0, Reconstruct(100, math.Log1p(1000)))
	assert.Equal(t, 0.0, Clamp(-0.1))
	assert.True(t, math.IsNaN(Clamp(math.NaN())))
}

func TestForecast_ChainsEvalIntoTest(t *testing.T) {
	dates := domain.SplitDates{
		LastTrain: day0.AddDate(0, 0, -1),
		LastEval:  day0,
		LastTest:  day0.AddDate(0, 0, 1),
	}
	reg := &dayRegressor{byDay: map[int]float64{10: math.Log1p(1), 11: math.Log1p(1)}}
	p := newPredictor(t, reg, reg)

	rows := rangeRows(italy, 2, 10)
	rows[0].Cumulative = [domain.NumFields]float64{50, 5}
	parts := domain.Partitions{
		Train: []domain.Observation{seedRow(italy, 40, 4)},
		Eval:  rows[:1],
		Test:  rows[1:],
	}

	got, report, err := p.Forecast(parts, dates)
	require.NoError(t, err)
	assert.Equal(t, Report{Days: 1, Rows: 1}, report.Eval)
	assert.Equal(t, Report{Days: 1, Rows: 1}, report.Test)

	assert.Equal(t, 41.0, got.Eval[0].PredictedCumulative[domain.ConfirmedCases])
	// test day 1 starts from the actual eval value, not the prediction
	assert.Equal(t, 51.0, got.Test[0].PredictedCumulative[domain.ConfirmedCases])
	assert.Equal(t, 6.0, got.Test[0].PredictedCumulative[domain.Fatalities])
	assert.Len(t, got.Train, 1)
}
