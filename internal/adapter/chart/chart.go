// Package chart draws actual and predicted cumulative series of one
// location with the partition boundaries marked.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoRows means the predictions hold no row for the requested location.
var ErrNoRows = errors.New("no rows for location")

// Options selects what to draw.
type Options struct {
	Location domain.Location
	Field    domain.Field
	Dates    domain.SplitDates
	Linear   bool // log scale unless set
}

var (
	actualColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	predictedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	boundaryColor  = color.Gray{Y: 128}
)

// Render builds the chart. On a log scale, non-positive values are left out.
func Render(forecasts []domain.Forecast, opts Options) (*plot.Plot, error) {
	var rows []domain.Forecast
	for _, f := range forecasts {
		if f.Location == opts.Location {
			rows = append(rows, f)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRows, opts.Location)
	}
	slices.SortStableFunc(rows, func(a, b domain.Forecast) int { return a.Date.Compare(b.Date) })

	keep := func(v float64) bool {
		return !math.IsNaN(v) && (opts.Linear || v > 0)
	}
	var actual, predicted plotter.XYs
	for _, r := range rows {
		x := float64(r.Date.Unix())
		if v := r.Cumulative[opts.Field]; keep(v) {
			actual = append(actual, plotter.XY{X: x, Y: v})
		}
		if v := r.PredictedCumulative[opts.Field]; keep(v) {
			predicted = append(predicted, plotter.XY{X: x, Y: v})
		}
	}
	if len(actual) == 0 && len(predicted) == 0 {
		return nil, fmt.Errorf("%w: %s has no %s values to draw", ErrNoRows, opts.Location, opts.Field)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s", opts.Location, opts.Field)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Date"
	p.X.Tick.Marker = plot.TimeTicks{Format: domain.DateLayout}
	p.Y.Label.Text = opts.Field.String()
	if !opts.Linear {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	if err := addSeries(p, "actual", actual, actualColor, nil); err != nil {
		return nil, err
	}
	if err := addSeries(p, "predicted", predicted, predictedColor, []vg.Length{vg.Points(4), vg.Points(2)}); err != nil {
		return nil, err
	}

	lo, hi := yRange(actual, predicted)
	for _, b := range []struct {
		label string
		x     float64
	}{
		{"last train day", float64(opts.Dates.LastTrain.Unix())},
		{"last eval day", float64(opts.Dates.LastEval.Unix())},
	} {
		line, err := plotter.NewLine(plotter.XYs{{X: b.x, Y: lo}, {X: b.x, Y: hi}})
		if err != nil {
			return nil, fmt.Errorf("%s marker: %w", b.label, err)
		}
		line.Color = boundaryColor
		line.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(line)
	}
	return p, nil
}

func addSeries(p *plot.Plot, name string, xys plotter.XYs, c color.Color, dashes []vg.Length) error {
	if len(xys) == 0 {
		return nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("%s series: %w", name, err)
	}
	line.Color = c
	line.Width = vg.Points(2)
	line.Dashes = dashes
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func yRange(series ...plotter.XYs) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, xy := range s {
			lo = math.Min(lo, xy.Y)
			hi = math.Max(hi, xy.Y)
		}
	}
	return lo, hi
}

// Save writes p to path; the format follows the extension (png, svg, pdf).
func Save(p *plot.Plot, path string) error {
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
