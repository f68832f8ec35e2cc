// Package pipeline runs the train and predict workflows: load the raw
// datasets, build features, fit or apply the models, and persist results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/features"
	"github.com/couchcryptid/covid-forecast/internal/model"
	"github.com/couchcryptid/covid-forecast/internal/observability"
)

// DatasetLoader reads every raw dataset, downloading what is missing.
type DatasetLoader interface {
	Load(ctx context.Context) (domain.RawDataset, error)
}

// ModelStore persists one booster per target.
type ModelStore interface {
	Save(models map[string]*model.Booster) ([]string, error)
	LoadLatest() (map[string]*model.Booster, error)
	Complete() (bool, error)
}

// PredictionWriter stores the predicted rows and returns where they went.
type PredictionWriter interface {
	Write(rows []domain.Observation) (string, error)
}

// Publisher sends forecasts downstream.
type Publisher interface {
	Publish(ctx context.Context, forecasts []domain.Forecast) error
}

// Settings fixes the features, split boundaries and training parameters.
type Settings struct {
	Schema          features.Schema
	Split           domain.SplitDates
	OriginSubRegion string
	Boost           model.Params
}

// Runner orchestrates the train and predict workflows.
type Runner struct {
	loader      DatasetLoader
	models      ModelStore
	predictions PredictionWriter
	publisher   Publisher
	settings    Settings
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Runner. Pass a nil publisher to disable publication.
func New(loader DatasetLoader, models ModelStore, predictions PredictionWriter, publisher Publisher,
	settings Settings, logger *slog.Logger, metrics *observability.Metrics,
) *Runner {
	return &Runner{
		loader:      loader,
		models:      models,
		predictions: predictions,
		publisher:   publisher,
		settings:    settings,
		logger:      logger,
		metrics:     metrics,
	}
}

// Prepare loads the datasets and returns the feature-complete rows split
// into train, eval and test partitions.
func (r *Runner) Prepare(ctx context.Context) (domain.Partitions, error) {
	if err := ctx.Err(); err != nil {
		return domain.Partitions{}, err
	}
	raw, err := r.loader.Load(ctx)
	if err != nil {
		return domain.Partitions{}, fmt.Errorf("load datasets: %w", err)
	}
	return r.Features(raw)
}

// Features runs the feature builders over raw in order: location series,
// day index, thresholds, distance to origin, covariates, density, split.
func (r *Runner) Features(raw domain.RawDataset) (domain.Partitions, error) {
	rows, report := domain.BuildLocationSeries(raw.Observations(), r.settings.Schema.HistoryDays)
	for _, rej := range report.Rejected {
		r.logger.Warn("non-cumulative series, dropping location",
			"location", rej.Location.String(),
			"field", rej.Field.String(),
			"date", rej.Date.Format(domain.DateLayout),
			"increment", rej.Increment,
		)
		r.metrics.LocationsRejected.WithLabelValues(rej.Field.String()).Inc()
	}

	rows = domain.AddDayIndex(rows)
	rows = domain.AddThresholdFeatures(rows, r.settings.Schema.Thresholds)

	origin, err := domain.OriginCoordinates(rows, r.settings.OriginSubRegion)
	if err != nil {
		return domain.Partitions{}, err
	}
	rows = domain.AddDistanceToOrigin(rows, origin)

	for _, table := range raw.Covariates {
		rows = domain.MergeCovariates(rows, table)
	}
	rows = domain.AddPopulationDensity(rows)

	parts := domain.Split(rows, r.settings.Split)
	r.logger.Info("features built",
		"locations", report.Locations-rejectedLocations(report),
		"rejected", rejectedLocations(report),
		"train_rows", len(parts.Train),
		"eval_rows", len(parts.Eval),
		"test_rows", len(parts.Test),
	)
	return parts, nil
}

func rejectedLocations(report domain.SeriesReport) int {
	seen := make(map[domain.Location]bool, len(report.Rejected))
	for _, rej := range report.Rejected {
		seen[rej.Location] = true
	}
	return len(seen)
}
