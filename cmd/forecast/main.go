// Command forecast trains the daily case and fatality models, predicts the
// eval and test ranges, plots a location, or serves the latest predictions.
//
// Usage:
//
//	forecast train
//	forecast predict
//	forecast plot -region Italy [-subregion ...] [-field Fatalities] [-linear] [-out italy.png]
//	forecast serve
//
// Settings come from environment variables, see internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-forecast/internal/config"
	"github.com/couchcryptid/covid-forecast/internal/observability"
)

const usage = `usage: forecast <command> [flags]

commands:
  train     fit one model per target unless all are already saved
  predict   forecast the eval and test ranges with the newest models
  plot      chart actual and predicted values of one location
  serve     expose health, metrics and the newest predictions over HTTP
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "train":
		err = runTrain(ctx, cfg, logger, metrics)
	case "predict":
		err = runPredict(ctx, cfg, logger, metrics)
	case "plot":
		err = runPlot(cfg, logger, args)
	case "serve":
		err = runServe(ctx, cfg, logger, metrics)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error(cmd+" failed", "error", err)
		stop()
		os.Exit(1)
	}
}
