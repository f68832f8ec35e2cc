package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeBand(t *testing.T) {
	tests := map[string]int{
		"0-4":   0,
		"15-19": 0,
		"20-24": 1,
		"45-49": 2,
		"60-64": 3,
		"80-84": 4,
		"95-99": 4,
		"100+":  4,
	}
	for group, want := range tests {
		t.Run(group, func(t *testing.T) {
			got, err := AgeBand(group)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := AgeBand("Total")
	assert.Error(t, err)
}

func TestAggregatePopulation(t *testing.T) {
	records := []PopulationRecord{
		{Location: "Italy", Year: 2018, AgeGroup: "0-4", PopMale: 1, PopFemale: 1},
		{Location: "Italy", Year: 2019, AgeGroup: "0-4", PopMale: 10, PopFemale: 11},
		{Location: "Italy", Year: 2019, AgeGroup: "5-9", PopMale: 1, PopFemale: 2},
		{Location: "Italy", Year: 2019, AgeGroup: "85-89", PopMale: 3, PopFemale: 5},
		{Location: "Italy", Year: 2020, AgeGroup: "0-4", PopMale: 99, PopFemale: 99},
		{Location: "Niue", Year: 2015, AgeGroup: "20-24", PopMale: 0.1, PopFemale: 0.2},
		{Location: "Old", Year: 2010, AgeGroup: "20-24", PopMale: 1, PopFemale: 1},
	}

	tbl, err := AggregatePopulation(records, 2014, 2019)
	require.NoError(t, err)
	assert.Equal(t, []string{"Italy", "Niue"}, tbl.Countries())

	italy, ok := tbl.Lookup("Italy")
	require.True(t, ok)
	// bands 0-20, 20-40, 40-60, 60-80, 80+, male, female, total
	assert.Equal(t, []float64{24, 0, 0, 0, 8, 14, 18, 32}, italy)

	niue, _ := tbl.Lookup("Niue")
	assert.InDelta(t, 0.3, niue[1], 1e-12)
	assert.InDelta(t, 0.3, niue[7], 1e-12)
}

func TestAggregatePopulation_AbsentCountryMergesAsNaN(t *testing.T) {
	tbl, err := AggregatePopulation([]PopulationRecord{
		{Location: "Italy", Year: 2019, AgeGroup: "0-4", PopMale: 1, PopFemale: 1},
	}, 2014, 2019)
	require.NoError(t, err)

	rows := []Observation{NewObservation(Location{Region: "Diamond Princess"}, testStart)}
	out := AddPopulationDensity(MergeCovariates(rows, tbl))

	require.Len(t, out, 1)
	for _, col := range append(PopulationBandColumns, ColCountryPopTotal, ColCountryPopDensity) {
		assert.True(t, math.IsNaN(out[0].Covariate(col)), col)
	}
}

func TestAggregatePopulation_BadAgeGroup(t *testing.T) {
	_, err := AggregatePopulation([]PopulationRecord{
		{Location: "Italy", Year: 2019, AgeGroup: "unknown"},
	}, 2014, 2019)
	assert.Error(t, err)
}
