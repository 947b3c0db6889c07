// Package roll spends points on weighted draws from the reward table and
// applies the drawn reward's effects.
package roll

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/effect"
	"github.com/xtding233/offwork-lock/internal/gacha"
	"github.com/xtding233/offwork-lock/internal/metrics"
	"github.com/xtding233/offwork-lock/internal/player"
)

// Engine runs rolls against the current config snapshot and the player store.
type Engine struct {
	cfg     config.Source
	store   *player.Store
	rng     gacha.RandomSource
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithRNG swaps the random source used for reward selection.
func WithRNG(rng gacha.RandomSource) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine returns an Engine reading config from cfg and state from store.
func NewEngine(cfg config.Source, store *player.Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		store:  store,
		rng:    gacha.DefaultRNG(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanRoll reports whether the player holds at least the roll cost.
func (e *Engine) CanRoll(ctx context.Context, contextID string, id uuid.UUID) (bool, error) {
	snap := e.cfg.Current()
	rec, err := e.store.GetOrCreate(ctx, contextID, id)
	if err != nil {
		return false, err
	}
	return rec.Points >= max(0, snap.RollCost), nil
}

// RewardDisplays lists the current reward table with normalized chances.
func (e *Engine) RewardDisplays() []RewardDisplay {
	return Displays(e.cfg.Current().Rewards)
}

// Roll charges the roll cost, draws a reward and applies its effects in one
// store update. Refusals come back as an Outcome with Success false and
// leave the player untouched; only storage failures return an error.
func (e *Engine) Roll(ctx context.Context, contextID string, id uuid.UUID) (Outcome, error) {
	snap := e.cfg.Current()
	if len(snap.Rewards) == 0 {
		return e.refuse(ctx, contextID, id, FailureEmptyTable), nil
	}
	cost := max(0, snap.RollCost)

	var (
		refusal FailureCode
		out     Outcome
	)
	_, err := e.store.Modify(ctx, contextID, id, func(cur player.Record) (player.Record, error) {
		if cur.Points < cost {
			refusal = FailureInsufficientPoints
			return cur, player.ErrSkipUpdate
		}
		reward, ok := gacha.Pick(snap.Rewards, RewardWeight, e.rng)
		if !ok {
			refusal = FailureNoRewardSelected
			return cur, player.ErrSkipUpdate
		}
		var next player.Record
		next, out = apply(cur, reward, cost)
		return next, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if refusal != FailureNone {
		return e.refuse(ctx, contextID, id, refusal), nil
	}

	e.metrics.RecordRoll(metrics.ResultSuccess, out.Reward.ID)
	e.logger.InfoContext(ctx, "roll completed",
		"roll_id", out.ID.String(),
		"context", contextID,
		"player", id.String(),
		"reward", out.Reward.ID,
		"cost", out.Cost,
		"points_before", out.PointsBefore,
		"points_after", out.PointsAfter,
		"bonus", out.BonusPoints,
		"unlocked", out.Unlocked,
		"deferred", len(out.Deferred),
	)
	return out, nil
}

func (e *Engine) refuse(ctx context.Context, contextID string, id uuid.UUID, code FailureCode) Outcome {
	e.metrics.RecordRoll(string(code), "")
	e.logger.DebugContext(ctx, "roll refused", "context", contextID, "player", id.String(), "reason", string(code))
	return failed(code)
}

// apply charges cost and runs reward's effects against rec. It is pure.
func apply(rec player.Record, reward config.Reward, cost int) (player.Record, Outcome) {
	out := Outcome{
		ID:            ulid.Make(),
		Success:       true,
		Reward:        &reward,
		Cost:          cost,
		PointsBefore:  rec.Points,
		Deferred:      []effect.Descriptor{},
		Notifications: []string{},
	}

	work, _ := rec.AddPoints(-cost)
	out.Executed = effect.ParseAll(reward.Effects)
	for _, d := range out.Executed {
		switch d.Kind {
		case effect.KindUnlockExit:
			work.Unlocked = true
			out.Notifications = append(out.Notifications, UnlockNotice)

		case effect.KindAddPoints:
			delta := parseDelta(d.Arg(0))
			if delta == 0 {
				continue
			}
			var applied int
			work, applied = work.AddPoints(delta)
			if applied != 0 {
				out.BonusPoints += applied
				out.Notifications = append(out.Notifications, "Bonus points "+FormatSigned(applied))
			}

		case effect.KindMessage:
			msg := d.Raw
			if len(d.Args) > 0 {
				msg = strings.Join(d.Args, ":")
			}
			if strings.TrimSpace(msg) != "" {
				out.Notifications = append(out.Notifications, msg)
			}

		default:
			out.Deferred = append(out.Deferred, d)
		}
	}

	if strings.TrimSpace(reward.Name) != "" {
		out.Notifications = append([]string{reward.Name}, out.Notifications...)
	}
	out.PointsAfter = work.Points
	out.Unlocked = work.Unlocked
	return work, out
}

// parseDelta reads an add_points argument; anything unparseable is 0.
func parseDelta(s string) int {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

// FormatSigned renders a point delta such as "+50 pts" or "-10 pts".
func FormatSigned(n int) string {
	return fmt.Sprintf("%+d pts", n)
}
