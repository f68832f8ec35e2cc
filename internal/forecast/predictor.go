// Package forecast runs trained models forward over a date range, turning
// predicted log-increments back into cumulative counts.
package forecast

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/features"
	"github.com/couchcryptid/covid-forecast/internal/model"
)

// Regressor scores every row of a feature matrix.
type Regressor interface {
	Predict(d *model.Dataset) ([]float64, error)
}

// Models maps a target name (see domain.Targets) to its regressor.
type Models map[string]Regressor

// Validate checks that every target has a model.
func (m Models) Validate() error {
	for _, target := range domain.Targets() {
		if m[target] == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoModels, target)
		}
	}
	return nil
}

// Range is an inclusive span of days to forecast. With Propagate set, each
// day's predictions overwrite the lag features of later days in the range.
type Range struct {
	First     time.Time
	Last      time.Time
	Propagate bool
}

// Report summarizes one Run.
type Report struct {
	Days      int // days with at least one row
	Rows      int
	Unmatched int // rows whose location had no previous-day value
}

// Predictor walks a range day by day.
type Predictor struct {
	models Models
	schema features.Schema
	logger *slog.Logger
}

// NewPredictor creates a Predictor. models must cover every target.
func NewPredictor(models Models, schema features.Schema, logger *slog.Logger) (*Predictor, error) {
	if err := models.Validate(); err != nil {
		return nil, err
	}
	return &Predictor{models: models, schema: schema, logger: logger}, nil
}

// Run predicts every row of rows dated within r and returns copies carrying
// PredictedLogNew and PredictedCumulative. seed holds the rows of the day
// before r.First; their actual cumulative values start the reconstruction.
// Rows whose location is missing from the previous day keep a NaN
// cumulative prediction. A day without rows leaves the carried values as
// they are.
func (p *Predictor) Run(rows, seed []domain.Observation, r Range) ([]domain.Observation, Report, error) {
	out := domain.CloneAll(rows)
	nan := math.NaN()
	for i := range out {
		out[i].PredictedLogNew = [domain.NumFields]float64{nan, nan}
		out[i].PredictedCumulative = [domain.NumFields]float64{nan, nan}
	}

	prev := make(map[domain.Location][domain.NumFields]float64, len(seed))
	for i := range seed {
		prev[seed[i].Location] = seed[i].Cumulative
	}

	byDay := make(map[int][]int)
	for i := range out {
		d := domain.DaysBetween(r.First, out[i].Date)
		byDay[d] = append(byDay[d], i)
	}

	var report Report
	last := domain.DaysBetween(r.First, r.Last)
	for day := 0; day <= last; day++ {
		idx := byDay[day]
		if len(idx) == 0 {
			continue
		}
		report.Days++
		report.Rows += len(idx)

		if err := p.predictDay(out, idx); err != nil {
			return nil, report, fmt.Errorf("predict %s: %w", r.First.AddDate(0, 0, day).Format(domain.DateLayout), err)
		}

		next := make(map[domain.Location][domain.NumFields]float64, len(idx))
		predicted := make(map[domain.Location][domain.NumFields]float64, len(idx))
		for _, i := range idx {
			loc := out[i].Location
			base, ok := prev[loc]
			if !ok {
				report.Unmatched++
			}
			for _, f := range domain.Fields {
				if ok {
					out[i].PredictedCumulative[f] = Reconstruct(base[f], out[i].PredictedLogNew[f])
				}
			}
			next[loc] = out[i].PredictedCumulative
			predicted[loc] = out[i].PredictedLogNew
		}

		if r.Propagate {
			for later := day + 1; later <= last; later++ {
				propagate(out, byDay[later], predicted, later-day)
			}
		}
		prev = next
	}

	p.logger.Debug("range predicted",
		"first", r.First.Format(domain.DateLayout),
		"last", r.Last.Format(domain.DateLayout),
		"propagate", r.Propagate,
		"days", report.Days,
		"rows", report.Rows,
		"unmatched", report.Unmatched,
	)
	return out, report, nil
}

func (p *Predictor) predictDay(out []domain.Observation, idx []int) error {
	dayRows := make([]domain.Observation, len(idx))
	for j, i := range idx {
		dayRows[j] = out[i]
	}
	x := p.schema.Build(dayRows)
	for _, f := range domain.Fields {
		scores, err := p.models[f.Target()].Predict(x)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Target(), err)
		}
		for j, i := range idx {
			out[i].PredictedLogNew[f] = Clamp(scores[j])
		}
	}
	return nil
}

// propagate writes predicted log-increments into lag k of the given rows.
func propagate(out []domain.Observation, idx []int, predicted map[domain.Location][domain.NumFields]float64, k int) {
	for _, i := range idx {
		v, ok := predicted[out[i].Location]
		if !ok {
			continue
		}
		for _, f := range domain.Fields {
			if k <= len(out[i].Lags[f]) {
				out[i].Lags[f][k-1] = v[f]
			}
		}
	}
}

// Clamp floors a raw predicted log-increment at zero. NaN stays NaN.
func Clamp(logIncrement float64) float64 {
	if logIncrement < 0 {
		return 0
	}
	return logIncrement
}

// Reconstruct adds the rounded increment encoded by logIncrement to prev.
// Halves round to even.
func Reconstruct(prev, logIncrement float64) float64 {
	return prev + math.RoundToEven(math.Expm1(logIncrement))
}
