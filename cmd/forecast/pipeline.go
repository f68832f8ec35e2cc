package main

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/covid-forecast/internal/adapter/artifact"
	"github.com/couchcryptid/covid-forecast/internal/adapter/fetch"
	kafkaadapter "github.com/couchcryptid/covid-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/covid-forecast/internal/adapter/source"
	"github.com/couchcryptid/covid-forecast/internal/config"
	"github.com/couchcryptid/covid-forecast/internal/features"
	"github.com/couchcryptid/covid-forecast/internal/observability"
	"github.com/couchcryptid/covid-forecast/internal/pipeline"
)

func schemaFor(cfg *config.Config) features.Schema {
	schema := features.DefaultSchema()
	schema.HistoryDays = cfg.HistoryDays
	return schema
}

// newRunner wires the runner. Missing datasets are downloaded by the loader,
// which the runner only reaches after checking the model store. The returned
// close function releases the publisher.
func newRunner(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Runner, func()) {
	var fetcher source.Fetcher
	if cfg.DownloadEnabled {
		fetcher = fetch.NewClient(cfg.FetchTimeout, logger, metrics)
	} else {
		logger.Info("dataset download disabled", "dir", cfg.DatasetsDir)
	}

	schema := schemaFor(cfg)
	settings := pipeline.Settings{
		Schema:          schema,
		Split:           cfg.Split,
		OriginSubRegion: cfg.OriginSubRegion,
		Boost:           cfg.Boost,
	}

	var publisher pipeline.Publisher
	closePublisher := func() {}
	if cfg.PublishEnabled() {
		p := kafkaadapter.NewPublisher(cfg, logger)
		publisher = p
		closePublisher = func() {
			if err := p.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}
		logger.Info("forecast publishing enabled", "topic", cfg.KafkaForecastTopic, "brokers", cfg.KafkaBrokers)
	}

	r := pipeline.New(
		source.NewLoader(cfg.DatasetsDir, fetcher, logger, metrics),
		artifact.NewModelStore(cfg.ModelsDir, logger),
		artifact.NewPredictionStore(cfg.PredictionsDir, schema, logger),
		publisher,
		settings,
		logger,
		metrics,
	)
	return r, closePublisher
}

func runTrain(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	r, closeRunner := newRunner(cfg, logger, metrics)
	defer closeRunner()

	result, err := r.Train(ctx)
	if err != nil {
		return err
	}
	if !result.Skipped {
		logger.Info("training complete", "models", result.Paths, "eval_rmse", result.EvalRMSE)
	}
	return nil
}

func runPredict(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	r, closeRunner := newRunner(cfg, logger, metrics)
	defer closeRunner()

	result, err := r.Predict(ctx)
	if err != nil {
		return err
	}
	logger.Info("prediction complete",
		"path", result.Path,
		"eval_rows", result.Report.Eval.Rows,
		"test_rows", result.Report.Test.Rows,
		"published", result.Published,
	)
	return nil
}
