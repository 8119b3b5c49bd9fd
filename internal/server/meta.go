package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jayclim/CR-Data/internal/constants"
	"github.com/jayclim/CR-Data/internal/domain"
	"github.com/jayclim/CR-Data/internal/metrics"
	"github.com/jayclim/CR-Data/internal/repository"
	"github.com/jayclim/CR-Data/internal/service"
)

const (
	MetaPath      = "/api/v1/meta"
	SnapshotsPath = "/api/v1/snapshots"
	HealthPath    = "/healthz"
	MetricsPath   = "/metrics"
)

type SnapshotReader interface {
	Latest(ctx context.Context) (*domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]domain.SnapshotSummary, error)
}

// MetaServer serves stored snapshots read-only.
type MetaServer struct {
	snapshots SnapshotReader
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewMetaServer(snapshots *service.SnapshotService, m *metrics.Metrics, logger zerolog.Logger) *MetaServer {
	return newMetaServer(snapshots, m, logger)
}

func newMetaServer(snapshots SnapshotReader, m *metrics.Metrics, logger zerolog.Logger) *MetaServer {
	return &MetaServer{snapshots: snapshots, metrics: m, logger: logger}
}

func (s *MetaServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+MetaPath, s.latest)
	mux.HandleFunc("GET "+SnapshotsPath, s.list)
	mux.HandleFunc("GET "+HealthPath, s.health)
	mux.Handle("GET "+MetricsPath, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *MetaServer) latest(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Latest(r.Context())
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no snapshot available yet")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to load latest snapshot")
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Snapshot-ID", snap.ID)
	w.Header().Set("Last-Modified", snap.CreatedAt.UTC().Format(http.TimeFormat))
	_, _ = w.Write(snap.Payload)
}

func (s *MetaServer) list(w http.ResponseWriter, r *http.Request) {
	limit := constants.SnapshotListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, constants.SnapshotListLimit)
	}

	list, err := s.snapshots.List(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list snapshots")
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": list})
}

func (s *MetaServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
