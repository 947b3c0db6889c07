package offwork

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/errutil"
	"github.com/xtding233/offwork-lock/internal/gacha"
	"github.com/xtding233/offwork-lock/internal/logging"
	"github.com/xtding233/offwork-lock/internal/metrics"
	"github.com/xtding233/offwork-lock/internal/player"
	"github.com/xtding233/offwork-lock/internal/session"
)

var steve = uuid.MustParse("5a0f6b1e-0000-4000-8000-000000000001")

func newCore(t *testing.T, store string) (*Core, *metrics.Metrics) {
	t.Helper()
	_, m := metrics.NewRegistry()
	dir := t.TempDir()
	c, err := New(Options{
		Paths: config.Paths{
			ConfigDir: filepath.Join(dir, "config"),
			DataDir:   filepath.Join(dir, "data"),
		},
		Store:   store,
		Logger:  logging.Discard(),
		Metrics: m,
		RNG:     gacha.FixedRNG(0),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, m
}

func TestNewWritesDefaultConfig(t *testing.T) {
	c, _ := newCore(t, "")
	_, err := os.Stat(c.Config().Path())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRollCost, c.Config().Current().RollCost)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Options{
		Paths:  config.Paths{ConfigDir: dir, DataDir: dir},
		Store:  "redis",
		Logger: logging.Discard(),
	})
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
}

func TestJoinAndExitLifecycle(t *testing.T) {
	for _, store := range []string{StoreFile, StoreSQLite} {
		t.Run(store, func(t *testing.T) {
			c, _ := newCore(t, store)
			ctx := context.Background()

			res, err := c.OnPlayerJoin(ctx, "world", steve)
			require.NoError(t, err)
			assert.False(t, res.ForcedExitDetected)
			assert.True(t, res.Record.SessionOpen)

			// Joining again without a graceful exit counts as a forced exit.
			res, err = c.OnPlayerJoin(ctx, "world", steve)
			require.NoError(t, err)
			assert.True(t, res.ForcedExitDetected)
			assert.Equal(t, 1, res.Record.ForcedExitCount)

			require.NoError(t, c.OnPlayerGracefulExit(ctx, "world", steve))
			rec, ok, err := c.Store().Find(ctx, "world", steve)
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, rec.SessionOpen)
			assert.Equal(t, 1, rec.ForcedExitCount)
		})
	}
}

func TestForcedExitHookReceivesEvent(t *testing.T) {
	c, _ := newCore(t, StoreFile)
	ctx := context.Background()

	var got []session.ForcedExitEvent
	remove := c.Tracker().AddHook(func(_ context.Context, ev session.ForcedExitEvent) error {
		got = append(got, ev)
		return nil
	})
	defer remove()

	_, err := c.OnPlayerJoin(ctx, "world", steve)
	require.NoError(t, err)
	_, err = c.OnPlayerJoin(ctx, "world", steve)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, steve, got[0].PlayerID)
	assert.Equal(t, 1, got[0].Record.ForcedExitCount)
}

func TestExitDecision(t *testing.T) {
	c, _ := newCore(t, StoreFile)
	ctx := context.Background()

	d, err := c.ExitDecision(ctx, "world", steve, "minecraft:overworld")
	require.NoError(t, err)
	assert.True(t, d.Restricted)
	assert.Equal(t, config.DefaultLockMessage, d.Message)

	d, err = c.ExitDecision(ctx, "world", steve, "mymod:lobby")
	require.NoError(t, err)
	assert.False(t, d.Restricted)

	require.NoError(t, c.Store().Update(ctx, "world", steve, player.Record{Unlocked: true}))
	d, err = c.ExitDecision(ctx, "world", steve, "minecraft:overworld")
	require.NoError(t, err)
	assert.False(t, d.Restricted)
}

func TestRollThroughCore(t *testing.T) {
	c, _ := newCore(t, StoreFile)
	ctx := context.Background()
	require.NoError(t, c.Store().Update(ctx, "world", steve, player.Record{Points: 150}))

	// FixedRNG(0) lands on the first reward, which unlocks exit.
	out, err := c.Rolls().Roll(ctx, "world", steve)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 50, out.PointsAfter)
	assert.True(t, out.Unlocked)

	st, err := c.PlayerStatus(ctx, "world", steve)
	require.NoError(t, err)
	assert.Equal(t, 50, st.Record.Points)
	assert.True(t, st.Record.Unlocked)
	assert.False(t, st.CanRoll)
	assert.True(t, st.HUD.Visible)
}

func TestReloadConfig(t *testing.T) {
	c, m := newCore(t, StoreFile)

	data := []byte("roll_cost: 7\nlocked_zones: [\"a:b\"]\n")
	require.NoError(t, os.WriteFile(c.Config().Path(), data, 0o644))
	require.NoError(t, c.ReloadConfig())
	assert.Equal(t, 7, c.Config().Current().RollCost)
	assert.True(t, c.Zones().IsLocked("a:b"))
	assert.False(t, c.Zones().IsLocked("minecraft:overworld"))

	require.NoError(t, os.WriteFile(c.Config().Path(), []byte("roll_cost: -1\n"), 0o644))
	err := c.ReloadConfig()
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
	assert.Equal(t, 7, c.Config().Current().RollCost)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigReloads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigReloads.WithLabelValues("error")))
}
