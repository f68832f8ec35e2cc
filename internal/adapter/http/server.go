package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/adapter/artifact"
	"github.com/couchcryptid/covid-forecast/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotSource returns the latest predictions snapshot.
type SnapshotSource interface {
	Latest() (artifact.Snapshot, error)
}

// Server exposes health, readiness, metrics, and forecast HTTP endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /forecasts routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, snapshots SnapshotSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /forecasts", s.handleForecasts)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type forecastsResponse struct {
	Source    string            `json:"source"`
	UpdatedAt time.Time         `json:"updated_at"`
	Count     int               `json:"count"`
	Forecasts []domain.Forecast `json:"forecasts"`
}

// handleForecasts serves rows of the latest predictions file, filtered by
// the optional region, subregion and partition query parameters. An empty
// subregion parameter matches rows without a sub-region.
func (s *Server) handleForecasts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Latest()
	if errors.Is(err, domain.ErrNoPredictions) {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("load predictions failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "load predictions failed"})
		return
	}

	q := r.URL.Query()
	partition := domain.Partition(q.Get("partition"))
	switch partition {
	case domain.PartitionNone, domain.PartitionTrain, domain.PartitionEval, domain.PartitionTest:
	default:
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown partition " + string(partition)})
		return
	}

	out := make([]domain.Forecast, 0)
	for _, f := range snap.Forecasts {
		if q.Has("region") && f.Location.Region != q.Get("region") {
			continue
		}
		if q.Has("subregion") && f.Location.SubRegion != q.Get("subregion") {
			continue
		}
		if partition != domain.PartitionNone && f.Partition != partition {
			continue
		}
		out = append(out, f)
	}

	sharedobs.WriteJSON(w, http.StatusOK, forecastsResponse{
		Source:    snap.Path,
		UpdatedAt: snap.ModTime.UTC(),
		Count:     len(out),
		Forecasts: out,
	})
}
