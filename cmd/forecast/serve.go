package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/covid-forecast/internal/adapter/artifact"
	httpadapter "github.com/couchcryptid/covid-forecast/internal/adapter/http"
	"github.com/couchcryptid/covid-forecast/internal/config"
	"github.com/couchcryptid/covid-forecast/internal/observability"
)

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	store := artifact.NewPredictionStore(cfg.PredictionsDir, schemaFor(cfg), logger)
	snapshots := artifact.NewSnapshotCache(store, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, snapshots, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
