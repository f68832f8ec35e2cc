package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecast_JSONNullsForNaN(t *testing.T) {
	row := NewObservation(Location{Region: "Italy"}, testStart)
	row.Partition = PartitionTest
	row.PredictedCumulative[ConfirmedCases] = 105

	data, err := json.Marshal(row.Forecast())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2020-03-01", raw["date"])
	assert.Equal(t, "test", raw["partition"])
	assert.Nil(t, raw["confirmed_cases"])
	assert.Equal(t, 105.0, raw["predicted_confirmed_cases"])

	var back Forecast
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, row.Location, back.Location)
	assert.True(t, back.Date.Equal(row.Date))
	assert.True(t, math.IsNaN(back.Cumulative[ConfirmedCases]))
	assert.Equal(t, 105.0, back.PredictedCumulative[ConfirmedCases])
}
