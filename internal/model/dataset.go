package model

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix: dense numeric columns plus string-valued
// categorical columns. Undefined numeric values are NaN.
type Dataset struct {
	NumericNames     []string
	CategoricalNames []string

	numeric     *mat.Dense
	categorical [][]string // [column][row]
	rows        int
}

// NewDataset allocates a dataset of the given shape with every numeric cell 0.
func NewDataset(rows int, numericNames, categoricalNames []string) *Dataset {
	d := &Dataset{
		NumericNames:     slices.Clone(numericNames),
		CategoricalNames: slices.Clone(categoricalNames),
		categorical:      make([][]string, len(categoricalNames)),
		rows:             rows,
	}
	if rows > 0 && len(numericNames) > 0 {
		d.numeric = mat.NewDense(rows, len(numericNames), nil)
	}
	for j := range d.categorical {
		d.categorical[j] = make([]string, rows)
	}
	return d
}

// Rows is the number of samples.
func (d *Dataset) Rows() int { return d.rows }

// SetNumeric stores v at row i, numeric column j.
func (d *Dataset) SetNumeric(i, j int, v float64) { d.numeric.Set(i, j, v) }

// Numeric returns row i, numeric column j.
func (d *Dataset) Numeric(i, j int) float64 { return d.numeric.At(i, j) }

// SetCategorical stores v at row i, categorical column j.
func (d *Dataset) SetCategorical(i, j int, v string) { d.categorical[j][i] = v }

// Categorical returns row i, categorical column j.
func (d *Dataset) Categorical(i, j int) string { return d.categorical[j][i] }

// NumericColumn copies numeric column j.
func (d *Dataset) NumericColumn(j int) []float64 {
	if d.numeric == nil {
		return make([]float64, d.rows)
	}
	return mat.Col(nil, j, d.numeric)
}

// Subset returns a new dataset holding the given rows in order.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := NewDataset(len(idx), d.NumericNames, d.CategoricalNames)
	for r, i := range idx {
		for j := range d.NumericNames {
			out.SetNumeric(r, j, d.Numeric(i, j))
		}
		for j := range d.CategoricalNames {
			out.SetCategorical(r, j, d.Categorical(i, j))
		}
	}
	return out
}

func (d *Dataset) numericIndex(name string) (int, error) {
	if j := slices.Index(d.NumericNames, name); j >= 0 {
		return j, nil
	}
	return 0, fmt.Errorf("%w: numeric %q", ErrMissingFeature, name)
}

func (d *Dataset) categoricalIndex(name string) (int, error) {
	if j := slices.Index(d.CategoricalNames, name); j >= 0 {
		return j, nil
	}
	return 0, fmt.Errorf("%w: categorical %q", ErrMissingFeature, name)
}
