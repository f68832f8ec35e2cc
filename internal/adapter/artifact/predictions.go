package artifact

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/features"
)

const predictionsPattern = "predictions_*.csv"

// Leading columns of the predictions file.
const (
	colPartition  = "Partition"
	colID         = "Id"
	colForecastID = "ForecastId"
	colDate       = "Date"
)

// PredictionStore writes and reads predictions_<YYYYMMDD>.csv files.
type PredictionStore struct {
	dir    string
	schema features.Schema
	logger *slog.Logger
}

// NewPredictionStore creates a store rooted at dir. schema decides which
// feature columns are written next to the predictions.
func NewPredictionStore(dir string, schema features.Schema, logger *slog.Logger) *PredictionStore {
	return &PredictionStore{dir: dir, schema: schema, logger: logger}
}

// Dir is the directory holding the prediction files.
func (s *PredictionStore) Dir() string { return s.dir }

// PredictionsFileName is the artifact name stamped with the current date.
func PredictionsFileName() string {
	return fmt.Sprintf("predictions_%s.csv", stamp())
}

// Header lists the columns of a predictions file in order.
func (s *PredictionStore) Header() []string {
	h := []string{colPartition, colID, colForecastID, features.ColSubRegion, features.ColRegion, colDate}
	for _, f := range domain.Fields {
		h = append(h, f.String())
	}
	h = append(h, s.schema.NumericNames()...)
	for _, f := range domain.Fields {
		h = append(h, f.Target())
	}
	for _, f := range domain.Fields {
		h = append(h, f.PredictedTarget())
	}
	for _, f := range domain.Fields {
		h = append(h, f.Predicted())
	}
	return h
}

// Write stores rows, usually train then eval then test, and returns the path.
func (s *PredictionStore) Write(rows []domain.Observation) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create predictions dir: %w", err)
	}
	path := filepath.Join(s.dir, PredictionsFileName())
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create predictions file: %w", err)
	}
	if err := s.encode(f, rows); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close predictions file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename predictions file: %w", err)
	}
	s.logger.Info("predictions written", "path", path, "rows", len(rows))
	return path, nil
}

func (s *PredictionStore) encode(w io.Writer, rows []domain.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	matrix := s.schema.Build(rows)
	numeric := len(matrix.NumericNames)
	for i := range rows {
		r := &rows[i]
		rec := []string{
			string(r.Partition), formatID(r.ID), formatID(r.ForecastID),
			r.Location.SubRegion, r.Location.Region, r.Date.Format(domain.DateLayout),
		}
		for _, f := range domain.Fields {
			rec = append(rec, formatFloat(r.Cumulative[f]))
		}
		for j := 0; j < numeric; j++ {
			rec = append(rec, formatFloat(matrix.Numeric(i, j)))
		}
		for _, f := range domain.Fields {
			rec = append(rec, formatFloat(r.LogNew[f]))
		}
		for _, f := range domain.Fields {
			rec = append(rec, formatFloat(r.PredictedLogNew[f]))
		}
		for _, f := range domain.Fields {
			rec = append(rec, formatFloat(r.PredictedCumulative[f]))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush predictions: %w", err)
	}
	return nil
}

// Snapshot is the content of one predictions file.
type Snapshot struct {
	Path      string
	ModTime   time.Time
	Forecasts []domain.Forecast
}

// Exists reports whether any predictions file is present.
func (s *PredictionStore) Exists() (bool, error) {
	_, ok, err := Latest(s.dir, predictionsPattern)
	return ok, err
}

// LatestPath returns the newest predictions file and its modification time,
// or domain.ErrNoPredictions.
func (s *PredictionStore) LatestPath() (string, time.Time, error) {
	path, ok, err := Latest(s.dir, predictionsPattern)
	if err != nil {
		return "", time.Time{}, err
	}
	if !ok {
		return "", time.Time{}, domain.ErrNoPredictions
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("stat predictions: %w", err)
	}
	return path, info.ModTime(), nil
}

// ReadLatest parses the newest predictions file.
func (s *PredictionStore) ReadLatest() (Snapshot, error) {
	path, mod, err := s.LatestPath()
	if err != nil {
		return Snapshot{}, err
	}
	forecasts, err := ReadPredictions(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, ModTime: mod, Forecasts: forecasts}, nil
}

// ReadPredictions parses the forecast columns of a predictions file. Feature
// columns are ignored, so files written with another schema still load.
func ReadPredictions(path string) ([]domain.Forecast, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read predictions header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	required := []string{colPartition, features.ColSubRegion, features.ColRegion, colDate}
	for _, fld := range domain.Fields {
		required = append(required, fld.String(), fld.PredictedTarget(), fld.Predicted())
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("predictions %s: missing column %q", path, name)
		}
	}

	var out []domain.Forecast
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: %w", line, err)
		}
		date, err := time.Parse(domain.DateLayout, rec[idx[colDate]])
		if err != nil {
			return nil, fmt.Errorf("predictions line %d: %w", line, err)
		}
		fc := domain.Forecast{
			Location:  domain.Location{Region: rec[idx[features.ColRegion]], SubRegion: rec[idx[features.ColSubRegion]]},
			Date:      date,
			Partition: domain.Partition(rec[idx[colPartition]]),
		}
		for _, fld := range domain.Fields {
			if fc.Cumulative[fld], err = parseFloat(rec[idx[fld.String()]]); err != nil {
				return nil, fmt.Errorf("predictions line %d: %w", line, err)
			}
			if fc.PredictedLogNew[fld], err = parseFloat(rec[idx[fld.PredictedTarget()]]); err != nil {
				return nil, fmt.Errorf("predictions line %d: %w", line, err)
			}
			if fc.PredictedCumulative[fld], err = parseFloat(rec[idx[fld.Predicted()]]); err != nil {
				return nil, fmt.Errorf("predictions line %d: %w", line, err)
			}
		}
		out = append(out, fc)
	}
	return out, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatID(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}

// CheckReadiness returns nil once a predictions file exists.
func (s *PredictionStore) CheckReadiness(_ context.Context) error {
	ok, err := s.Exists()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNoPredictions
	}
	return nil
}
