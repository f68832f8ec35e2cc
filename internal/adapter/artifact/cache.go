package artifact

import (
	"sync"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/observability"
)

// SnapshotCache serves the latest predictions file from memory until a newer
// file appears or the current one is rewritten. Only the newest snapshot is
// held.
type SnapshotCache struct {
	store   *PredictionStore
	metrics *observability.Metrics

	mu      sync.Mutex
	current Snapshot
	loaded  bool
}

// NewSnapshotCache wraps store.
func NewSnapshotCache(store *PredictionStore, metrics *observability.Metrics) *SnapshotCache {
	return &SnapshotCache{store: store, metrics: metrics}
}

// Latest returns the newest snapshot, parsing the file only when its path or
// modification time changed.
func (c *SnapshotCache) Latest() (Snapshot, error) {
	path, mod, err := c.store.LatestPath()
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh(path, mod) {
		c.metrics.SnapshotCache.WithLabelValues("hit").Inc()
		return c.current, nil
	}
	c.metrics.SnapshotCache.WithLabelValues("miss").Inc()

	forecasts, err := ReadPredictions(path)
	if err != nil {
		return Snapshot{}, err
	}
	c.current = Snapshot{Path: path, ModTime: mod, Forecasts: forecasts}
	c.loaded = true
	return c.current, nil
}

func (c *SnapshotCache) fresh(path string, mod time.Time) bool {
	return c.loaded && c.current.Path == path && c.current.ModTime.Equal(mod)
}
