package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-forecast/internal/adapter/artifact"
	"github.com/couchcryptid/covid-forecast/internal/adapter/fetch"
	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/observability"
)

// Fetcher downloads the archives that are missing on disk.
type Fetcher interface {
	FetchAll(ctx context.Context, archives []fetch.Archive) error
}

// Loader reads every dataset under a root directory.
type Loader struct {
	root    string
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader for the datasets directory root. With a nil
// fetcher the files must already be on disk.
func NewLoader(root string, fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{root: root, fetcher: fetcher, logger: logger, metrics: metrics}
}

// Load fetches missing archives, then reads the case files and builds the
// covariate tables in merge order: area, population, smoking, health
// expenditure.
func (l *Loader) Load(ctx context.Context) (domain.RawDataset, error) {
	if l.fetcher != nil {
		if err := l.fetcher.FetchAll(ctx, Archives(l.root)); err != nil {
			return domain.RawDataset{}, fmt.Errorf("fetch datasets: %w", err)
		}
	}

	train, err := l.readCases(TrainFile)
	if err != nil {
		return domain.RawDataset{}, err
	}
	forecast, err := l.readCases(TestFile)
	if err != nil {
		return domain.RawDataset{}, err
	}
	l.metrics.DatasetRows.WithLabelValues("train").Set(float64(len(train)))
	l.metrics.DatasetRows.WithLabelValues("forecast").Set(float64(len(forecast)))

	raw := domain.RawDataset{Train: train, Forecast: forecast}

	indicators := make(map[string]*domain.CovariateTable)
	for _, ind := range Indicators {
		if !ind.Merged {
			continue
		}
		table, err := l.readIndicator(ind)
		if err != nil {
			return domain.RawDataset{}, err
		}
		indicators[ind.Name] = table
	}

	population, err := l.readPopulation()
	if err != nil {
		return domain.RawDataset{}, err
	}

	raw.Covariates = []*domain.CovariateTable{
		indicators["area"],
		population,
		indicators["smoking"],
		indicators["health_expenditure"],
	}
	for _, t := range raw.Covariates {
		l.metrics.DatasetRows.WithLabelValues(t.Name).Set(float64(t.Len()))
		l.logger.Info("covariates loaded", "dataset", t.Name, "countries", t.Len())
	}
	return raw, nil
}

func (l *Loader) readCases(name string) ([]domain.Observation, error) {
	path := filepath.Join(l.root, CasesDir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cases: %w", err)
	}
	defer f.Close()

	rows, err := ReadCases(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Info("cases loaded", "path", path, "rows", len(rows))
	return rows, nil
}

func (l *Loader) readIndicator(ind Indicator) (*domain.CovariateTable, error) {
	path, ok, err := artifact.Latest(ind.Dir(l.root), ind.Pattern())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: no file matching %s in %s", ind.Name, ind.Pattern(), ind.Dir(l.root))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ind.Name, err)
	}
	defer f.Close()

	table, err := ReadWorldBank(f, domain.WorldBankNames, ind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func (l *Loader) readPopulation() (*domain.CovariateTable, error) {
	path := filepath.Join(l.root, PopulationDir, PopulationFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open population: %w", err)
	}
	defer f.Close()

	records, err := ReadPopulation(f, domain.UNWPPNames, PopulationFromYear, PopulationToYear)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table, err := domain.AggregatePopulation(records, PopulationFromYear, PopulationToYear)
	if err != nil {
		return nil, fmt.Errorf("aggregate population: %w", err)
	}
	return table, nil
}
