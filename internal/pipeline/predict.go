package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/forecast"
)

// PredictResult summarizes one Predict call.
type PredictResult struct {
	Path      string
	Report    forecast.ChainReport
	Published int
}

// Predict loads the latest models, forecasts the eval and test ranges, writes
// every partition to the prediction store and publishes the test forecasts.
func (r *Runner) Predict(ctx context.Context) (PredictResult, error) {
	boosters, err := r.models.LoadLatest()
	if err != nil {
		return PredictResult{}, fmt.Errorf("load models: %w", err)
	}

	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	models := make(forecast.Models, len(boosters))
	for target, b := range boosters {
		models[target] = b
	}
	predictor, err := forecast.NewPredictor(models, r.settings.Schema, r.logger)
	if err != nil {
		return PredictResult{}, err
	}

	parts, err := r.Prepare(ctx)
	if err != nil {
		return PredictResult{}, err
	}

	start := time.Now()
	predicted, report, err := predictor.Forecast(parts, r.settings.Split)
	if err != nil {
		return PredictResult{}, fmt.Errorf("forecast: %w", err)
	}
	r.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	r.recordReport(domain.PartitionEval, report.Eval)
	r.recordReport(domain.PartitionTest, report.Test)

	path, err := r.predictions.Write(predicted.All())
	if err != nil {
		return PredictResult{}, fmt.Errorf("write predictions: %w", err)
	}

	result := PredictResult{Path: path, Report: report}
	if r.publisher == nil || len(predicted.Test) == 0 {
		return result, nil
	}
	forecasts := make([]domain.Forecast, len(predicted.Test))
	for i := range predicted.Test {
		forecasts[i] = predicted.Test[i].Forecast()
	}
	if err := r.publisher.Publish(ctx, forecasts); err != nil {
		return result, fmt.Errorf("publish forecasts: %w", err)
	}
	r.metrics.ForecastsPublished.Add(float64(len(forecasts)))
	result.Published = len(forecasts)
	return result, nil
}

func (r *Runner) recordReport(p domain.Partition, report forecast.Report) {
	r.metrics.PredictedRows.WithLabelValues(string(p)).Add(float64(report.Rows))
	r.metrics.UnmatchedRows.WithLabelValues(string(p)).Add(float64(report.Unmatched))
	if report.Unmatched > 0 {
		r.logger.Warn("rows without a previous-day value", "partition", p, "rows", report.Unmatched)
	}
}
