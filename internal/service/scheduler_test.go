package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jayclim/CR-Data/internal/domain"
	"github.com/jayclim/CR-Data/internal/metrics"
)

func players(n int) []domain.RankedPlayer {
	out := make([]domain.RankedPlayer, n)
	for i := range out {
		out[i] = domain.RankedPlayer{Tag: fmt.Sprintf("#P%02d", i)}
	}
	return out
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	collect := func(_ context.Context, p domain.RankedPlayer) (PlayerBattles, error) {
		n := inflight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return PlayerBattles{Tag: p.Tag}, nil
	}

	var seen []string
	s := NewScheduler(3, 5, zerolog.Nop(), metrics.New())
	stats := s.Run(context.Background(), players(20), collect, func(pb PlayerBattles) {
		seen = append(seen, pb.Tag)
	})

	assert.Equal(t, RunStats{Total: 20, Succeeded: 20}, stats)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Len(t, seen, 20)
}

func TestSchedulerIsolatesFailures(t *testing.T) {
	collect := func(_ context.Context, p domain.RankedPlayer) (PlayerBattles, error) {
		switch p.Tag {
		case "#P01":
			return PlayerBattles{}, errors.New("boom")
		case "#P02":
			panic("collector bug")
		}
		return PlayerBattles{Tag: p.Tag}, nil
	}

	var seen []string
	s := NewScheduler(2, 1, zerolog.Nop(), metrics.New())
	stats := s.Run(context.Background(), players(5), collect, func(pb PlayerBattles) {
		seen = append(seen, pb.Tag)
	})

	assert.Equal(t, RunStats{Total: 5, Succeeded: 3, Failed: 2}, stats)
	sort.Strings(seen)
	assert.Equal(t, []string{"#P00", "#P03", "#P04"}, seen)
}

func TestSchedulerSurvivesSinkPanic(t *testing.T) {
	collect := func(_ context.Context, p domain.RankedPlayer) (PlayerBattles, error) {
		return PlayerBattles{Tag: p.Tag}, nil
	}

	var seen []string
	s := NewScheduler(1, 1, zerolog.Nop(), metrics.New())
	stats := s.Run(context.Background(), players(3), collect, func(pb PlayerBattles) {
		if pb.Tag == "#P01" {
			panic("bad record")
		}
		seen = append(seen, pb.Tag)
	})

	assert.Equal(t, 3, stats.Succeeded)
	sort.Strings(seen)
	assert.Equal(t, []string{"#P00", "#P02"}, seen)
}

func TestSchedulerEmpty(t *testing.T) {
	s := NewScheduler(4, 1, zerolog.Nop(), metrics.New())
	stats := s.Run(context.Background(), nil, nil, func(PlayerBattles) {
		t.Fatal("sink must not be called")
	})
	assert.Equal(t, RunStats{}, stats)
}
