package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/model"
	"github.com/fxamacker/cbor/v2"
)

const modelFormatVersion = 1

// modelFile is the on-disk envelope of one booster.
type modelFile struct {
	Version int            `cbor:"version"`
	Booster *model.Booster `cbor:"booster"`
}

// ModelStore keeps one CBOR file per target named
// covid_19_model_<target>_<YYYYMMDD>.cbm.
type ModelStore struct {
	dir    string
	logger *slog.Logger
}

// NewModelStore creates a store rooted at dir.
func NewModelStore(dir string, logger *slog.Logger) *ModelStore {
	return &ModelStore{dir: dir, logger: logger}
}

// ModelFileName is the artifact name for target stamped with the current date.
func ModelFileName(target string) string {
	return fmt.Sprintf("covid_19_model_%s_%s.cbm", target, stamp())
}

// Save writes every booster, creating the directory when needed.
func (s *ModelStore) Save(models map[string]*model.Booster) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	var paths []string
	for _, target := range domain.Targets() {
		b, ok := models[target]
		if !ok {
			return paths, fmt.Errorf("%w: %s", domain.ErrNoModels, target)
		}
		data, err := cbor.Marshal(modelFile{Version: modelFormatVersion, Booster: b})
		if err != nil {
			return paths, fmt.Errorf("encode model %s: %w", target, err)
		}
		path := filepath.Join(s.dir, ModelFileName(target))
		if err := writeFileAtomic(path, data); err != nil {
			return paths, err
		}
		s.logger.Info("model saved", "target", target, "path", path, "trees", len(b.Trees))
		paths = append(paths, path)
	}
	return paths, nil
}

// LoadLatest reads the newest model of every target. It returns
// domain.ErrNoModels unless all targets have one.
func (s *ModelStore) LoadLatest() (map[string]*model.Booster, error) {
	out := make(map[string]*model.Booster, domain.NumFields)
	for _, target := range domain.Targets() {
		path, ok, err := Latest(s.dir, modelPattern(target))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoModels, target)
		}
		b, err := readModel(path)
		if err != nil {
			return nil, err
		}
		out[target] = b
		s.logger.Debug("model loaded", "target", target, "path", path)
	}
	return out, nil
}

// Complete reports whether every target has a model file. Files are not
// decoded, so a corrupt model still counts.
func (s *ModelStore) Complete() (bool, error) {
	for _, target := range domain.Targets() {
		_, ok, err := Latest(s.dir, modelPattern(target))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func modelPattern(target string) string {
	return fmt.Sprintf("covid_19_model_%s_*.cbm", target)
}

func readModel(path string) (*model.Booster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var f modelFile
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if f.Version != modelFormatVersion {
		return nil, fmt.Errorf("model %s: unsupported format version %d", path, f.Version)
	}
	if f.Booster == nil {
		return nil, fmt.Errorf("model %s: empty", path)
	}
	return f.Booster, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
