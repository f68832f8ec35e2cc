package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_forecast"

// Metrics holds the Prometheus counters, histograms, and gauges for the forecaster.
type Metrics struct {
	PipelineRunning prometheus.Gauge

	// Dataset metrics.
	DatasetRows       *prometheus.GaugeVec   // labels: dataset={train,forecast,area,population,smoking,health_expenditure}
	LocationsRejected *prometheus.CounterVec // labels: field={ConfirmedCases,Fatalities}
	Downloads         *prometheus.CounterVec // labels: outcome={downloaded,cached,error}

	// Model metrics.
	TrainingDuration *prometheus.HistogramVec // labels: target
	EvalRMSE         *prometheus.GaugeVec     // labels: target

	// Forecast metrics.
	PredictedRows      *prometheus.CounterVec // labels: partition={eval,test}
	UnmatchedRows      *prometheus.CounterVec // labels: partition={eval,test}
	PredictionDuration prometheus.Histogram
	ForecastsPublished prometheus.Counter

	// Serving metrics.
	SnapshotCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all forecaster metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PipelineRunning,
		m.DatasetRows,
		m.LocationsRejected,
		m.Downloads,
		m.TrainingDuration,
		m.EvalRMSE,
		m.PredictedRows,
		m.UnmatchedRows,
		m.PredictionDuration,
		m.ForecastsPublished,
		m.SnapshotCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a train or predict run is active, 0 otherwise.",
		}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows read from each source dataset in the last run.",
		}, []string{"dataset"}),
		LocationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_rejected_total",
			Help:      "Locations dropped because a cumulative series decreased.",
		}, []string{"field"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Source dataset fetches by outcome.",
		}, []string{"outcome"}),
		TrainingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Time to fit one target model.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"target"}),
		EvalRMSE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eval_rmse",
			Help:      "Best eval-range RMSE of the log-increment target.",
		}, []string{"target"}),
		PredictedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predicted_rows_total",
			Help:      "Location-days predicted by partition.",
		}, []string{"partition"}),
		UnmatchedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_rows_total",
			Help:      "Predicted location-days without a previous-day cumulative value.",
		}, []string{"partition"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Duration of the eval and test walk-forward forecast.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ForecastsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_published_total",
			Help:      "Forecast records written to Kafka.",
		}),
		SnapshotCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_total",
			Help:      "Predictions snapshot cache lookups by result.",
		}, []string{"result"}),
	}
}
