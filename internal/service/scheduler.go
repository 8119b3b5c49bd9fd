package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jayclim/CR-Data/internal/domain"
	"github.com/jayclim/CR-Data/internal/metrics"
)

type CollectFunc func(ctx context.Context, player domain.RankedPlayer) (PlayerBattles, error)

type SinkFunc func(PlayerBattles)

type RunStats struct {
	Total     int
	Succeeded int
	Failed    int
}

// Scheduler runs one collect task per player with at most limit in flight.
type Scheduler struct {
	limit         int
	progressEvery int
	logger        zerolog.Logger
	metrics       *metrics.Metrics
}

func NewScheduler(limit, progressEvery int, logger zerolog.Logger, m *metrics.Metrics) *Scheduler {
	if limit <= 0 {
		limit = 1
	}
	if progressEvery <= 0 {
		progressEvery = 1
	}
	return &Scheduler{limit: limit, progressEvery: progressEvery, logger: logger, metrics: m}
}

type outcome struct {
	tag     string
	battles PlayerBattles
	err     error
}

// Run calls sink from the calling goroutine only, in completion order. A task
// that errors or panics is logged and counted; the others keep running.
func (s *Scheduler) Run(ctx context.Context, players []domain.RankedPlayer, collect CollectFunc, sink SinkFunc) RunStats {
	stats := RunStats{Total: len(players)}
	results := make(chan outcome)

	go func() {
		var g errgroup.Group
		g.SetLimit(s.limit)
		for _, p := range players {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				battles, err := safeCollect(ctx, collect, p)
				results <- outcome{tag: p.Tag, battles: battles, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		done++
		if res.err != nil {
			stats.Failed++
			s.metrics.PlayerProcessed(false)
			if ctx.Err() == nil {
				s.logger.Warn().Err(res.err).Str("player_tag", res.tag).Msg("player task failed")
			}
		} else {
			stats.Succeeded++
			s.metrics.PlayerProcessed(true)
			s.deliver(sink, res.battles)
		}

		if done%s.progressEvery == 0 {
			s.logger.Info().
				Int("done", done).
				Int("total", stats.Total).
				Float64("percent", float64(done)/float64(stats.Total)*100).
				Msg("player progress")
		}
	}

	return stats
}

func (s *Scheduler) deliver(sink SinkFunc, battles PlayerBattles) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("player_tag", battles.Tag).Msg("sink panicked, records dropped")
		}
	}()
	sink(battles)
}

func safeCollect(ctx context.Context, collect CollectFunc, p domain.RankedPlayer) (battles PlayerBattles, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collect %s panicked: %v", p.Tag, r)
		}
	}()
	return collect(ctx, p)
}
