package domain

import (
	"math"
	"slices"
)

// Covariate column names.
const (
	ColCountryArea          = "CountryArea"
	ColCountryPop0to20      = "CountryPop_0-20"
	ColCountryPop20to40     = "CountryPop_20-40"
	ColCountryPop40to60     = "CountryPop_40-60"
	ColCountryPop60to80     = "CountryPop_60-80"
	ColCountryPop80Plus     = "CountryPop_80+"
	ColCountryPopMale       = "CountryPopMale"
	ColCountryPopFemale     = "CountryPopFemale"
	ColCountryPopTotal      = "CountryPopTotal"
	ColCountryPopDensity    = "CountryPopDensity"
	ColCountrySmokingRate   = "CountrySmokingRate"
	ColCountryHealthExpense = "CountryHealthExpenditurePerCapitaPPP"
)

// PopulationBandColumns are the five age-band columns, youngest first.
var PopulationBandColumns = []string{
	ColCountryPop0to20, ColCountryPop20to40, ColCountryPop40to60, ColCountryPop60to80, ColCountryPop80Plus,
}

// CovariateColumns lists every static covariate in feature order.
func CovariateColumns() []string {
	cols := []string{ColCountryArea}
	cols = append(cols, PopulationBandColumns...)
	return append(cols,
		ColCountryPopMale, ColCountryPopFemale, ColCountryPopTotal,
		ColCountryPopDensity, ColCountrySmokingRate, ColCountryHealthExpense,
	)
}

// CovariateTable holds one row of values per canonical country name.
type CovariateTable struct {
	Name    string
	Columns []string
	rows    map[string][]float64
}

// NewCovariateTable creates an empty table with the given value columns.
func NewCovariateTable(name string, columns ...string) *CovariateTable {
	return &CovariateTable{
		Name:    name,
		Columns: slices.Clone(columns),
		rows:    make(map[string][]float64),
	}
}

// Set stores the values for country, replacing any previous row so the
// table never holds duplicate keys. Missing trailing values are NaN.
func (t *CovariateTable) Set(country string, values ...float64) {
	row := make([]float64, len(t.Columns))
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = math.NaN()
		}
	}
	t.rows[country] = row
}

// Lookup returns the row for country.
func (t *CovariateTable) Lookup(country string) ([]float64, bool) {
	row, ok := t.rows[country]
	return row, ok
}

// Len is the number of countries in the table.
func (t *CovariateTable) Len() int { return len(t.rows) }

// Countries returns the country keys in sorted order.
func (t *CovariateTable) Countries() []string {
	out := make([]string, 0, len(t.rows))
	for c := range t.rows {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// MergeCovariates left-joins table onto copies of rows by Region. Rows
// without a matching country get NaN for every table column; no row is
// added or dropped, so merging the same table twice is a no-op.
func MergeCovariates(rows []Observation, table *CovariateTable) []Observation {
	out := CloneAll(rows)
	for i := range out {
		if out[i].Covariates == nil {
			out[i].Covariates = make(map[string]float64, len(CovariateColumns()))
		}
		values, ok := table.Lookup(out[i].Location.Region)
		for c, col := range table.Columns {
			if ok {
				out[i].Covariates[col] = values[c]
			} else {
				out[i].Covariates[col] = math.NaN()
			}
		}
	}
	return out
}

// AddPopulationDensity sets CountryPopDensity = CountryPopTotal / CountryArea.
func AddPopulationDensity(rows []Observation) []Observation {
	out := CloneAll(rows)
	for i := range out {
		if out[i].Covariates == nil {
			out[i].Covariates = make(map[string]float64)
		}
		out[i].Covariates[ColCountryPopDensity] = out[i].Covariate(ColCountryPopTotal) / out[i].Covariate(ColCountryArea)
	}
	return out
}

// LastValid returns the last non-NaN value, or NaN when there is none.
func LastValid(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i]
		}
	}
	return math.NaN()
}
