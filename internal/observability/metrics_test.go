package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Usable(t *testing.T) {
	m := NewMetricsForTesting()

	m.LocationsRejected.WithLabelValues("Fatalities").Inc()
	m.PredictedRows.WithLabelValues("test").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LocationsRejected.WithLabelValues("Fatalities")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PredictedRows.WithLabelValues("test")))
}

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()

	require.NoError(t, reg.Register(m.LocationsRejected))
	require.NoError(t, reg.Register(m.EvalRMSE))
	m.EvalRMSE.WithLabelValues("LogNewConfirmedCases").Set(0.42)

	n, err := testutil.GatherAndCount(reg, "covid_forecast_eval_rmse")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
