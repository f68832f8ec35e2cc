package domain

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// Field identifies one of the cumulative series tracked per location.
type Field int

const (
	ConfirmedCases Field = iota
	Fatalities
)

// NumFields is the number of cumulative series per observation.
const NumFields = 2

// Fields lists every Field in column order.
var Fields = [NumFields]Field{ConfirmedCases, Fatalities}

// DefaultHistoryDays is the number of lag columns kept per field.
const DefaultHistoryDays = 30

// DefaultThresholds are the case counts whose first crossing is tracked.
var DefaultThresholds = []int{1, 10, 100}

func (f Field) String() string {
	switch f {
	case ConfirmedCases:
		return "ConfirmedCases"
	case Fatalities:
		return "Fatalities"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Target is the regression target column, e.g. "LogNewConfirmedCases".
func (f Field) Target() string { return "LogNew" + f.String() }

// Predicted is the reconstructed cumulative column, e.g. "PredictedFatalities".
func (f Field) Predicted() string { return "Predicted" + f.String() }

// PredictedTarget is the predicted log-increment column.
func (f Field) PredictedTarget() string { return "Predicted" + f.Target() }

// LagColumn names the k-th lag of the field target.
func (f Field) LagColumn(k int) string { return fmt.Sprintf("%s_prev_day_%d", f.Target(), k) }

// ThresholdColumn names the days-since-threshold feature.
func (f Field) ThresholdColumn(threshold int) string {
	return fmt.Sprintf("Days_since_%s=%d", f.String(), threshold)
}

// FieldByTarget resolves a target column name back to its Field.
func FieldByTarget(target string) (Field, error) {
	for _, f := range Fields {
		if f.Target() == target {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
}

// Targets returns the regression target names in field order.
func Targets() []string {
	out := make([]string, 0, NumFields)
	for _, f := range Fields {
		out = append(out, f.Target())
	}
	return out
}

// Location is the composite grouping key of a series.
type Location struct {
	Region    string `json:"region"`
	SubRegion string `json:"sub_region"`
}

func (l Location) String() string {
	if l.SubRegion == "" {
		return l.Region
	}
	return l.Region + "/" + l.SubRegion
}

// Coordinates is a WGS-84 latitude/longitude pair in degrees.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Observation is one (location, date) row of the working table.
type Observation struct {
	ID         int
	ForecastID int
	Location   Location
	Date       time.Time
	Coordinates

	Cumulative [NumFields]float64
	Day        int
	WeekDay    int

	LogNew    [NumFields]float64
	Lags      [NumFields][]float64 // index k-1 holds lag k
	DaysSince [NumFields][]float64 // aligned with the thresholds used to build them

	DistanceToOrigin float64
	Covariates       map[string]float64

	Partition           Partition
	PredictedLogNew     [NumFields]float64
	PredictedCumulative [NumFields]float64
}

// NewObservation returns a row with every numeric column undefined.
func NewObservation(loc Location, date time.Time) Observation {
	nan := math.NaN()
	return Observation{
		Location:            loc,
		Date:                date,
		Coordinates:         Coordinates{Lat: nan, Long: nan},
		Cumulative:          [NumFields]float64{nan, nan},
		LogNew:              [NumFields]float64{nan, nan},
		DistanceToOrigin:    nan,
		PredictedLogNew:     [NumFields]float64{nan, nan},
		PredictedCumulative: [NumFields]float64{nan, nan},
	}
}

// Clone returns a deep copy so transforms never alias their input.
func (o Observation) Clone() Observation {
	c := o
	for _, f := range Fields {
		c.Lags[f] = slices.Clone(o.Lags[f])
		c.DaysSince[f] = slices.Clone(o.DaysSince[f])
	}
	if o.Covariates != nil {
		c.Covariates = maps.Clone(o.Covariates)
	}
	return c
}

// Lag returns lag k of the field target, NaN when not populated.
func (o Observation) Lag(f Field, k int) float64 {
	if k < 1 || k > len(o.Lags[f]) {
		return math.NaN()
	}
	return o.Lags[f][k-1]
}

// Covariate returns the named covariate, NaN when the country had no match.
func (o Observation) Covariate(name string) float64 {
	if v, ok := o.Covariates[name]; ok {
		return v
	}
	return math.NaN()
}

// Forecast converts the row into its published form.
func (o Observation) Forecast() Forecast {
	return Forecast{
		Location:            o.Location,
		Date:                o.Date,
		Partition:           o.Partition,
		Cumulative:          o.Cumulative,
		PredictedLogNew:     o.PredictedLogNew,
		PredictedCumulative: o.PredictedCumulative,
	}
}

// Forecast is the reduced prediction record read back from the predictions
// artifact, published to Kafka, and served over HTTP.
type Forecast struct {
	Location            Location
	Date                time.Time
	Partition           Partition
	Cumulative          [NumFields]float64
	PredictedLogNew     [NumFields]float64
	PredictedCumulative [NumFields]float64
}

// CloneAll deep-copies a slice of rows.
func CloneAll(rows []Observation) []Observation {
	out := make([]Observation, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
	}
	return out
}

// RowsOn returns copies of the rows dated exactly day.
func RowsOn(rows []Observation, day time.Time) []Observation {
	var out []Observation
	for i := range rows {
		if rows[i].Date.Equal(day) {
			out = append(out, rows[i].Clone())
		}
	}
	return out
}

// groupByLocation returns the locations in first-seen order and, for each,
// the row indices in input order.
func groupByLocation(rows []Observation) ([]Location, map[Location][]int) {
	var order []Location
	groups := make(map[Location][]int)
	for i := range rows {
		loc := rows[i].Location
		if _, ok := groups[loc]; !ok {
			order = append(order, loc)
		}
		groups[loc] = append(groups[loc], i)
	}
	return order, groups
}
