package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestRefresherCapturesWhenEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshInterval = 0
	runner := &stubRunner{}
	snapshots := newSnapshotTestService(t, runner, cfg)

	lc := fxtest.NewLifecycle(t)
	NewRefresher(lc, snapshots, cfg, zerolog.Nop())
	lc.RequireStart()

	require.Eventually(t, func() bool {
		_, err := snapshots.Latest(context.Background())
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	lc.RequireStop()
	assert.Equal(t, 1, runner.calls)
}

func TestRefresherSkipsWhenStored(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshInterval = 0
	runner := &stubRunner{}
	snapshots := newSnapshotTestService(t, runner, cfg)
	_, err := snapshots.Capture(context.Background())
	require.NoError(t, err)

	lc := fxtest.NewLifecycle(t)
	NewRefresher(lc, snapshots, cfg, zerolog.Nop())
	lc.RequireStart()
	lc.RequireStop()

	assert.Equal(t, 1, runner.calls)
}

func TestRefresherTicks(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshInterval = 20 * time.Millisecond
	runner := &stubRunner{}
	snapshots := newSnapshotTestService(t, runner, cfg)

	lc := fxtest.NewLifecycle(t)
	NewRefresher(lc, snapshots, cfg, zerolog.Nop())
	lc.RequireStart()

	require.Eventually(t, func() bool {
		list, err := snapshots.List(context.Background(), 10)
		return err == nil && len(list) >= 3
	}, 5*time.Second, 10*time.Millisecond)

	lc.RequireStop()
	assert.GreaterOrEqual(t, runner.calls, 3)
}
