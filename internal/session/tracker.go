package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/player"
)

// CountPlaceholder is replaced with the forced-exit count in warning templates.
const CountPlaceholder = "{count}"

// Report is the result of evaluating a forced-exit count.
type Report struct {
	ThresholdReached bool   `json:"threshold_reached"`
	Warning          string `json:"warning,omitempty"`
}

// Evaluate decides whether count reached the warning threshold. The
// threshold only applies when tracking is on and it is positive; the warning
// falls back to the default template when template is blank.
func Evaluate(tracking bool, threshold, count int, template string) Report {
	threshold = max(0, threshold)
	if !tracking || threshold == 0 || count < threshold {
		return Report{}
	}
	if strings.TrimSpace(template) == "" {
		template = config.DefaultForcedExitWarning
	}
	return Report{
		ThresholdReached: true,
		Warning:          strings.ReplaceAll(template, CountPlaceholder, strconv.Itoa(count)),
	}
}

// ForcedExitEvent is passed to hooks once per detected forced exit.
type ForcedExitEvent struct {
	ContextID        string
	PlayerID         uuid.UUID
	Record           player.Record // already persisted, with the new count
	ThresholdReached bool
}

// Hook reacts to a forced exit. Errors and panics are logged and dropped.
type Hook func(ctx context.Context, ev ForcedExitEvent) error

type hookEntry struct {
	id uint64
	fn Hook
}

// Tracker holds the registered forced-exit hooks.
type Tracker struct {
	logger *slog.Logger

	mu     sync.RWMutex
	hooks  []hookEntry
	nextID uint64
}

// NewTracker returns a Tracker with no hooks.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{logger: logger}
}

// AddHook registers h and returns a func that unregisters it. Calling the
// returned func more than once is harmless.
func (t *Tracker) AddHook(h Hook) (remove func()) {
	if h == nil {
		return func() {}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.hooks = append(t.hooks, hookEntry{id: id, fn: h})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, e := range t.hooks {
			if e.id == id {
				t.hooks = append(t.hooks[:i:i], t.hooks[i+1:]...)
				return
			}
		}
	}
}

// Hooks returns a copy of the registered hooks in registration order.
func (t *Tracker) Hooks() []Hook {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Hook, len(t.hooks))
	for i, e := range t.hooks {
		out[i] = e.fn
	}
	return out
}

// OnForcedExit evaluates rec's count against fe and notifies every hook.
func (t *Tracker) OnForcedExit(ctx context.Context, contextID string, id uuid.UUID, rec player.Record, fe config.ForcedExit) Report {
	report := Evaluate(fe.Tracking, fe.WarningThreshold, rec.ForcedExitCount, fe.WarningMessage)
	ev := ForcedExitEvent{
		ContextID:        contextID,
		PlayerID:         id,
		Record:           rec,
		ThresholdReached: report.ThresholdReached,
	}
	for i, h := range t.Hooks() {
		if err := t.call(ctx, h, ev); err != nil {
			t.logger.WarnContext(ctx, "forced-exit hook failed",
				"hook", i, "context", contextID, "player", id.String(), "error", err)
		}
	}
	return report
}

func (t *Tracker) call(ctx context.Context, h Hook, ev ForcedExitEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return h(ctx, ev)
}
