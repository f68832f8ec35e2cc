package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/adapter/artifact"
	"github.com/couchcryptid/covid-forecast/internal/config"
	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/model"
	"github.com/couchcryptid/covid-forecast/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig enables downloads from a datasets directory that is empty, so
// any fetch attempt fails on the network instead of finding files.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		DatasetsDir:     filepath.Join(root, "datasets"),
		ModelsDir:       filepath.Join(root, "models"),
		PredictionsDir:  filepath.Join(root, "predictions"),
		Split:           domain.DefaultSplitDates(),
		HistoryDays:     domain.DefaultHistoryDays,
		OriginSubRegion: domain.DefaultOriginSubRegion,
		Boost:           model.DefaultParams(),
		DownloadEnabled: true,
		FetchTimeout:    time.Millisecond,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunPredict_NoModelsFailsBeforeDownload(t *testing.T) {
	cfg := testConfig(t)
	metrics := observability.NewMetricsForTesting()

	err := runPredict(context.Background(), cfg, discardLogger(), metrics)
	require.ErrorIs(t, err, domain.ErrNoModels)
	assert.NoDirExists(t, cfg.DatasetsDir, "nothing is downloaded")
}

func TestRunTrain_ExistingModelsSkipDownload(t *testing.T) {
	cfg := testConfig(t)
	store := artifact.NewModelStore(cfg.ModelsDir, discardLogger())
	_, err := store.Save(map[string]*model.Booster{
		domain.ConfirmedCases.Target(): {Target: domain.ConfirmedCases.Target()},
		domain.Fatalities.Target():     {Target: domain.Fatalities.Target()},
	})
	require.NoError(t, err)

	err = runTrain(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	assert.NoDirExists(t, cfg.DatasetsDir, "nothing is downloaded")
}
