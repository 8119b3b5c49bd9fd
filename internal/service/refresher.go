package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/repository"
)

// Refresher captures a snapshot at start-up when none exists and then on
// every RefreshInterval tick, for the lifetime of the app.
type Refresher struct {
	snapshots *SnapshotService
	interval  time.Duration
	logger    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRefresher(lc fx.Lifecycle, snapshots *SnapshotService, cfg *config.Config, logger zerolog.Logger) *Refresher {
	r := &Refresher{
		snapshots: snapshots,
		interval:  cfg.RefreshInterval,
		logger:    logger.With().Str("component", "refresher").Logger(),
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			r.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			r.Stop()
			return nil
		},
	})
	return r
}

func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()
}

// Stop cancels an in-flight capture and waits for the loop to exit.
func (r *Refresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Refresher) loop(ctx context.Context) {
	if _, err := r.snapshots.Latest(ctx); errors.Is(err, repository.ErrNotFound) {
		r.logger.Info().Msg("no snapshot stored yet, capturing now")
		r.capture(ctx)
	} else if err != nil {
		r.logger.Warn().Err(err).Msg("failed to read latest snapshot")
	}

	if r.interval <= 0 {
		r.logger.Info().Msg("periodic refresh disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.capture(ctx)
		}
	}
}

func (r *Refresher) capture(ctx context.Context) {
	snap, err := r.snapshots.Capture(ctx)
	switch {
	case err == nil:
		r.logger.Info().Str("snapshot_id", snap.ID).Msg("scheduled snapshot captured")
	case ctx.Err() != nil:
		r.logger.Info().Msg("snapshot capture cancelled")
	default:
		r.logger.Error().Err(err).Msg("scheduled snapshot failed")
	}
}
