// Package features lays observations out as model feature matrices.
package features

import (
	"math"
	"slices"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/model"
)

// Column names that are not derived from a Field.
const (
	ColLat              = "Lat"
	ColLong             = "Long"
	ColDay              = "Day"
	ColWeekDay          = "WeekDay"
	ColDistanceToOrigin = "Distance_to_origin"
	ColSubRegion        = "Province/State"
	ColRegion           = "Country/Region"
)

// Schema fixes which columns a feature matrix carries and in what order.
type Schema struct {
	HistoryDays int
	Thresholds  []int
	Covariates  []string
}

// DefaultSchema is the full feature set.
func DefaultSchema() Schema {
	return Schema{
		HistoryDays: domain.DefaultHistoryDays,
		Thresholds:  slices.Clone(domain.DefaultThresholds),
		Covariates:  domain.CovariateColumns(),
	}
}

// NumericNames lists the numeric columns in matrix order.
func (s Schema) NumericNames() []string {
	names := []string{ColLat, ColLong}
	for _, f := range domain.Fields {
		for k := 1; k <= s.HistoryDays; k++ {
			names = append(names, f.LagColumn(k))
		}
	}
	names = append(names, ColDay, ColWeekDay)
	for _, t := range s.Thresholds {
		for _, f := range domain.Fields {
			names = append(names, f.ThresholdColumn(t))
		}
	}
	names = append(names, ColDistanceToOrigin)
	return append(names, s.Covariates...)
}

// CategoricalNames lists the categorical columns in matrix order.
func (s Schema) CategoricalNames() []string {
	return []string{ColSubRegion, ColRegion}
}

// Build lays rows out as a dataset, one sample per row in input order.
func (s Schema) Build(rows []domain.Observation) *model.Dataset {
	d := model.NewDataset(len(rows), s.NumericNames(), s.CategoricalNames())
	for i := range rows {
		for j, v := range s.values(&rows[i]) {
			d.SetNumeric(i, j, v)
		}
		d.SetCategorical(i, 0, rows[i].Location.SubRegion)
		d.SetCategorical(i, 1, rows[i].Location.Region)
	}
	return d
}

// Labels returns the target of field f for every row.
func Labels(rows []domain.Observation, f domain.Field) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = rows[i].LogNew[f]
	}
	return out
}

// Sample pairs the matrix of rows with the labels of field f.
func (s Schema) Sample(rows []domain.Observation, f domain.Field) model.Sample {
	return model.Sample{X: s.Build(rows), Y: Labels(rows, f)}
}

func (s Schema) values(o *domain.Observation) []float64 {
	v := make([]float64, 0, 2+2*s.HistoryDays+2+2*len(s.Thresholds)+1+len(s.Covariates))
	v = append(v, o.Lat, o.Long)
	for _, f := range domain.Fields {
		for k := 1; k <= s.HistoryDays; k++ {
			v = append(v, o.Lag(f, k))
		}
	}
	v = append(v, float64(o.Day), float64(o.WeekDay))
	for t := range s.Thresholds {
		for _, f := range domain.Fields {
			v = append(v, daysSince(o, f, t))
		}
	}
	v = append(v, o.DistanceToOrigin)
	for _, c := range s.Covariates {
		v = append(v, o.Covariate(c))
	}
	return v
}

func daysSince(o *domain.Observation, f domain.Field, t int) float64 {
	if t >= len(o.DaysSince[f]) {
		return math.NaN()
	}
	return o.DaysSince[f][t]
}
