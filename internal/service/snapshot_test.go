package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/database"
	"github.com/jayclim/CR-Data/internal/metrics"
	"github.com/jayclim/CR-Data/internal/repository"
	"github.com/jayclim/CR-Data/internal/snapshot"
)

type stubRunner struct {
	calls   int
	err     error
	release chan struct{}
	started chan struct{}
}

func (r *stubRunner) Run(ctx context.Context) (*snapshot.Report, error) {
	r.calls++
	if r.started != nil {
		close(r.started)
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	return &snapshot.Report{
		RunID:        "run-" + string(rune('a'+r.calls-1)),
		Timestamp:    "2026-03-14 09:30:00",
		TotalPlayers: 3,
		TotalDecks:   6 * r.calls,
	}, nil
}

func newSnapshotTestService(t *testing.T, runner ReportRunner, cfg *config.Config) *SnapshotService {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "meta.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := newSnapshotService(runner, repository.NewSnapshotRepository(db, zerolog.Nop()), cfg, zerolog.Nop(), metrics.New())
	clock := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestSnapshotCapture(t *testing.T) {
	cfg := testConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), "out", "meta_snapshot.json")
	s := newSnapshotTestService(t, &stubRunner{}, cfg)
	ctx := context.Background()

	snap, err := s.Capture(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "run-a", snap.RunID)
	assert.Equal(t, 6, snap.TotalDecks)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)

	stored, err := snapshot.Decode(latest.Payload)
	require.NoError(t, err)
	assert.Equal(t, "run-a", stored.RunID)

	onDisk, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, latest.Payload, onDisk)
}

func TestSnapshotCaptureRetention(t *testing.T) {
	cfg := testConfig()
	cfg.SnapshotRetention = 2
	s := newSnapshotTestService(t, &stubRunner{}, cfg)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.Capture(ctx)
		require.NoError(t, err)
	}

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-d", list[0].RunID)
	assert.Equal(t, "run-c", list[1].RunID)
}

func TestSnapshotCaptureFailureStoresNothing(t *testing.T) {
	cfg := testConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), "meta_snapshot.json")
	s := newSnapshotTestService(t, &stubRunner{err: errors.New("upstream down")}, cfg)
	ctx := context.Background()

	_, err := s.Capture(ctx)
	require.Error(t, err)

	_, err = s.Latest(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestSnapshotCaptureSingleFlight(t *testing.T) {
	runner := &stubRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := newSnapshotTestService(t, runner, testConfig())

	done := make(chan error, 1)
	go func() {
		_, err := s.Capture(context.Background())
		done <- err
	}()

	<-runner.started
	_, err := s.Capture(context.Background())
	assert.ErrorIs(t, err, ErrCaptureInProgress)

	close(runner.release)
	assert.NoError(t, <-done)
}

func TestSnapshotCaptureKeepsRowWhenFileWriteFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := testConfig()
	cfg.OutputPath = filepath.Join(blocker, "meta_snapshot.json")
	s := newSnapshotTestService(t, &stubRunner{}, cfg)
	ctx := context.Background()

	snap, err := s.Capture(ctx)
	require.NoError(t, err)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
	assert.NoFileExists(t, cfg.OutputPath)
}
