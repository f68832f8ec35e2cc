package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldNames(t *testing.T) {
	assert.Equal(t, "LogNewConfirmedCases", ConfirmedCases.Target())
	assert.Equal(t, "LogNewFatalities_prev_day_30", Fatalities.LagColumn(30))
	assert.Equal(t, "Days_since_ConfirmedCases=10", ConfirmedCases.ThresholdColumn(10))
	assert.Equal(t, "PredictedFatalities", Fatalities.Predicted())
	assert.Equal(t, "PredictedLogNewFatalities", Fatalities.PredictedTarget())
	assert.Equal(t, []string{"LogNewConfirmedCases", "LogNewFatalities"}, Targets())
}

func TestFieldByTarget(t *testing.T) {
	f, err := FieldByTarget("LogNewFatalities")
	require.NoError(t, err)
	assert.Equal(t, Fatalities, f)

	_, err = FieldByTarget("Recovered")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestObservation_CloneIsDeep(t *testing.T) {
	o := NewObservation(Location{Region: "Peru"}, testStart)
	o.Lags[ConfirmedCases] = []float64{1, 2}
	o.Covariates = map[string]float64{ColCountryArea: 1}

	c := o.Clone()
	c.Lags[ConfirmedCases][0] = 9
	c.Covariates[ColCountryArea] = 9

	assert.Equal(t, 1.0, o.Lag(ConfirmedCases, 1))
	assert.Equal(t, 1.0, o.Covariate(ColCountryArea))
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "Italy", Location{Region: "Italy"}.String())
	assert.Equal(t, "China/Hubei", Location{Region: "China", SubRegion: "Hubei"}.String())
}
