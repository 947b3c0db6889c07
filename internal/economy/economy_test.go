package economy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/logging"
	"github.com/xtding233/offwork-lock/internal/player"
)

const world = "world"

var alex = uuid.MustParse("ec561538-f3fd-461d-aff5-086b22154bce")

func newService(t *testing.T, mode config.PointMode) (*Service, *player.Store) {
	t.Helper()
	snap := config.Defaults()
	snap.PointMode = mode
	snap.ActionValues = map[string]int{
		"minecraft:coal_ore":    1,
		"minecraft:diamond_ore": 5,
		"minecraft:dirt":        0,
		"minecraft:bedrock":     -3,
	}
	fb, err := player.NewFileBackend(t.TempDir(), logging.Discard())
	require.NoError(t, err)
	store := player.NewStore(fb, player.WithLogger(logging.Discard()))
	return NewService(config.Static{Snap: snap}, store, logging.Discard(), nil), store
}

func points(t *testing.T, store *player.Store) int {
	t.Helper()
	rec, err := store.GetOrCreate(context.Background(), world, alex)
	require.NoError(t, err)
	return rec.Points
}

func TestHandleAction_Automatic(t *testing.T) {
	svc, store := newService(t, config.PointModeAutomatic)
	ctx := context.Background()

	res, err := svc.HandleAction(ctx, world, alex, "minecraft:diamond_ore")
	require.NoError(t, err)
	assert.Equal(t, AwardResult{
		Matched:         true,
		Changed:         true,
		Awarded:         5,
		Potential:       5,
		Total:           5,
		SuppressDefault: true,
		Message:         "+5 pts",
	}, res)

	res, err = svc.HandleAction(ctx, world, alex, "minecraft:coal_ore")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 6, points(t, store))
}

func TestHandleAction_NoMatch(t *testing.T) {
	for _, mode := range []config.PointMode{config.PointModeAutomatic, config.PointModeManual} {
		svc, store := newService(t, mode)
		for _, key := range []string{"minecraft:stone", "minecraft:dirt", "minecraft:bedrock", ""} {
			res, err := svc.HandleAction(context.Background(), world, alex, key)
			require.NoError(t, err)
			assert.Equal(t, AwardResult{}, res, "mode=%s key=%q", mode, key)
		}
		assert.Equal(t, 0, points(t, store))
	}
}

func TestHandleAction_AutomaticSaturates(t *testing.T) {
	svc, store := newService(t, config.PointModeAutomatic)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, world, alex, player.Record{Points: player.MaxPoints - 2}))

	res, err := svc.HandleAction(ctx, world, alex, "minecraft:diamond_ore")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Awarded)
	assert.Equal(t, player.MaxPoints, res.Total)

	res, err = svc.HandleAction(ctx, world, alex, "minecraft:diamond_ore")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, player.MaxPoints, points(t, store))
}

func TestHandleAction_ManualNeverMutates(t *testing.T) {
	svc, store := newService(t, config.PointModeManual)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, world, alex, player.Record{Points: 12}))

	res, err := svc.HandleAction(ctx, world, alex, "minecraft:diamond_ore")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.False(t, res.Changed)
	assert.False(t, res.SuppressDefault)
	assert.Equal(t, 0, res.Awarded)
	assert.Equal(t, 5, res.Potential)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, "+5 pts (exchange required)", res.Message)
	assert.Equal(t, 12, points(t, store))
}

func TestExchange_IgnoredOutsideManual(t *testing.T) {
	svc, store := newService(t, config.PointModeAutomatic)
	res, err := svc.Exchange(context.Background(), world, alex, map[string]int{"minecraft:coal_ore": 10})
	require.NoError(t, err)
	assert.Equal(t, ExchangeIgnored, res.Status)
	assert.Empty(t, res.Consumed)
	assert.Equal(t, 0, points(t, store))
}

func TestExchange_EmptyWhenNothingConfigured(t *testing.T) {
	svc, store := newService(t, config.PointModeManual)
	res, err := svc.Exchange(context.Background(), world, alex, map[string]int{
		"minecraft:stone":    64,
		"minecraft:dirt":     10,
		"minecraft:bedrock":  1,
		"minecraft:coal_ore": 0,
	})
	require.NoError(t, err)
	assert.Equal(t, ExchangeEmpty, res.Status)
	assert.NotEqual(t, ExchangeIgnored, res.Status)
	assert.Equal(t, EmptyExchangeMessage, res.Message)
	assert.Empty(t, res.Consumed)
	assert.Equal(t, 0, points(t, store))
}

func TestExchange_OnlyConfiguredKindsCount(t *testing.T) {
	svc, store := newService(t, config.PointModeManual)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, world, alex, player.Record{Points: 3, Unlocked: true}))

	res, err := svc.Exchange(ctx, world, alex, map[string]int{
		"minecraft:coal_ore":    10,
		"minecraft:diamond_ore": 2,
		"minecraft:stone":       64,
		"minecraft:iron_ore":    -4,
	})
	require.NoError(t, err)
	assert.Equal(t, ExchangeCompleted, res.Status)
	assert.Equal(t, 20, res.Gained)
	assert.Equal(t, 23, res.Total)
	assert.Equal(t, map[string]int{"minecraft:coal_ore": 10, "minecraft:diamond_ore": 2}, res.Consumed)
	assert.Equal(t, "+20 pts (total 23)", res.Message)

	rec, err := store.GetOrCreate(ctx, world, alex)
	require.NoError(t, err)
	assert.Equal(t, player.Record{Points: 23, Unlocked: true}, rec)
}

func TestExchange_HugeCountsClamp(t *testing.T) {
	svc, store := newService(t, config.PointModeManual)
	res, err := svc.Exchange(context.Background(), world, alex, map[string]int{
		"minecraft:diamond_ore": int(^uint(0) >> 1),
		"minecraft:coal_ore":    player.MaxPoints,
	})
	require.NoError(t, err)
	assert.Equal(t, ExchangeCompleted, res.Status)
	assert.Equal(t, player.MaxPoints, res.Gained)
	assert.Equal(t, player.MaxPoints, points(t, store))
}
