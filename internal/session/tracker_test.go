package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/logging"
	"github.com/xtding233/offwork-lock/internal/player"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		tracking  bool
		threshold int
		count     int
		template  string
		want      Report
	}{
		{"tracking off", false, 3, 10, "x", Report{}},
		{"zero threshold", true, 0, 10, "x", Report{}},
		{"negative threshold", true, -2, 10, "x", Report{}},
		{"below threshold", true, 3, 2, "x", Report{}},
		{"at threshold", true, 3, 3, "{count} forced exits", Report{ThresholdReached: true, Warning: "3 forced exits"}},
		{"above threshold", true, 3, 7, "{count}/{count}", Report{ThresholdReached: true, Warning: "7/7"}},
		{"blank template", true, 1, 4, "  ", Report{ThresholdReached: true, Warning: "Forced exit detected 4 times."}},
		{"no placeholder", true, 1, 4, "Stop that.", Report{ThresholdReached: true, Warning: "Stop that."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.tracking, tt.threshold, tt.count, tt.template))
		})
	}
}

func TestTracker_AddAndRemoveHooks(t *testing.T) {
	tr := NewTracker(logging.Discard())
	var order []string
	removeA := tr.AddHook(func(context.Context, ForcedExitEvent) error { order = append(order, "a"); return nil })
	tr.AddHook(func(context.Context, ForcedExitEvent) error { order = append(order, "b"); return nil })
	tr.AddHook(nil)()
	require.Len(t, tr.Hooks(), 2)

	fe := config.Defaults().ForcedExit
	tr.OnForcedExit(context.Background(), "w", herobrine, player.Record{ForcedExitCount: 1}, fe)
	assert.Equal(t, []string{"a", "b"}, order)

	removeA()
	removeA()
	require.Len(t, tr.Hooks(), 1)

	order = nil
	tr.OnForcedExit(context.Background(), "w", herobrine, player.Record{ForcedExitCount: 1}, fe)
	assert.Equal(t, []string{"b"}, order)
}

func TestTracker_HooksReturnsCopy(t *testing.T) {
	tr := NewTracker(nil)
	tr.AddHook(func(context.Context, ForcedExitEvent) error { return nil })
	hooks := tr.Hooks()
	hooks[0] = nil
	assert.NotNil(t, tr.Hooks()[0])
}

func TestTracker_OnForcedExitReport(t *testing.T) {
	tr := NewTracker(logging.Discard())
	fe := config.ForcedExit{Tracking: true, WarningThreshold: 2, WarningMessage: "count={count}"}

	var flag bool
	tr.AddHook(func(_ context.Context, ev ForcedExitEvent) error {
		flag = ev.ThresholdReached
		return nil
	})

	report := tr.OnForcedExit(context.Background(), "w", herobrine, player.Record{ForcedExitCount: 2}, fe)
	assert.Equal(t, Report{ThresholdReached: true, Warning: "count=2"}, report)
	assert.True(t, flag)
}
