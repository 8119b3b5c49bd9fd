package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/constants"
	"github.com/jayclim/CR-Data/internal/domain"
	"github.com/jayclim/CR-Data/internal/metrics"
	"github.com/jayclim/CR-Data/internal/repository"
	"github.com/jayclim/CR-Data/internal/snapshot"
)

var ErrCaptureInProgress = errors.New("snapshot capture already running")

type ReportRunner interface {
	Run(ctx context.Context) (*snapshot.Report, error)
}

// SnapshotService persists reports: SQLite history plus the JSON file.
type SnapshotService struct {
	runner  ReportRunner
	repo    *repository.SnapshotRepository
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	capturing sync.Mutex
}

func NewSnapshotService(meta *MetaService, repo *repository.SnapshotRepository, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *SnapshotService {
	return newSnapshotService(meta, repo, cfg, logger, m)
}

func newSnapshotService(runner ReportRunner, repo *repository.SnapshotRepository, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *SnapshotService {
	return &SnapshotService{runner: runner, repo: repo, cfg: cfg, logger: logger, metrics: m, now: time.Now}
}

// Capture runs the pipeline once and stores the result. Nothing is written
// unless the report was fully assembled.
func (s *SnapshotService) Capture(ctx context.Context) (*domain.Snapshot, error) {
	if !s.capturing.TryLock() {
		return nil, ErrCaptureInProgress
	}
	defer s.capturing.Unlock()

	start := s.now()
	report, err := s.runner.Run(ctx)
	if err != nil {
		s.metrics.SnapshotFailed()
		return nil, fmt.Errorf("snapshot run failed: %w", err)
	}

	payload, err := snapshot.Encode(report)
	if err != nil {
		s.metrics.SnapshotFailed()
		return nil, err
	}

	snap := &domain.Snapshot{
		ID:           uuid.NewString(),
		RunID:        report.RunID,
		CreatedAt:    s.now().UTC(),
		TotalPlayers: report.TotalPlayers,
		TotalDecks:   report.TotalDecks,
		Payload:      payload,
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.Save(dbCtx, snap); err != nil {
		s.metrics.SnapshotFailed()
		return nil, err
	}
	if _, err := s.repo.Prune(dbCtx, s.cfg.SnapshotRetention); err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune snapshot history")
	}

	if s.cfg.OutputPath != "" {
		// the row is the record; the file is an export of it
		if err := snapshot.WriteFile(s.cfg.OutputPath, payload); err != nil {
			s.logger.Warn().Err(err).Str("output", s.cfg.OutputPath).Msg("failed to write snapshot file")
		}
	}

	s.metrics.SnapshotCompleted(s.now().Sub(start), report.TotalDecks)
	s.logger.Info().
		Str("snapshot_id", snap.ID).
		Str("run_id", snap.RunID).
		Str("output", s.cfg.OutputPath).
		Int("decks", snap.TotalDecks).
		Msg("snapshot saved")
	return snap, nil
}

func (s *SnapshotService) Latest(ctx context.Context) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.Latest(ctx)
}

func (s *SnapshotService) List(ctx context.Context, limit int) ([]domain.SnapshotSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.List(ctx, limit)
}
