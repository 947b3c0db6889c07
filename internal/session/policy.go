// Package session applies the join/leave rules: forced-exit detection,
// one-time versus permanent unlocks, and abuse reporting.
package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/metrics"
	"github.com/xtding233/offwork-lock/internal/player"
)

// StartResult is returned by HandleSessionStart.
type StartResult struct {
	Record             player.Record
	ForcedExitDetected bool
	Report             Report
}

// Policy drives session state for players.
type Policy struct {
	cfg     config.Source
	store   *player.Store
	tracker *Tracker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPolicy returns a Policy. tracker may be nil, in which case forced exits
// are still counted but never reported.
func NewPolicy(cfg config.Source, store *player.Store, tracker *Tracker, logger *slog.Logger, m *metrics.Metrics) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{cfg: cfg, store: store, tracker: tracker, logger: logger, metrics: m}
}

// Tracker returns the abuse tracker, or nil.
func (p *Policy) Tracker() *Tracker { return p.tracker }

// HandleSessionStart opens a session. A session that is still open from
// last time means the player left without a graceful exit; with tracking on
// that bumps the forced-exit count and notifies the tracker's hooks. The
// open flag is persisted before this returns.
func (p *Policy) HandleSessionStart(ctx context.Context, contextID string, id uuid.UUID) (StartResult, error) {
	snap := p.cfg.Current()
	fe := snap.ForcedExit

	var detected bool
	rec, err := p.store.Modify(ctx, contextID, id, func(cur player.Record) (player.Record, error) {
		detected = cur.SessionOpen
		next := cur
		next.SessionOpen = true
		if !fe.Tracking {
			next.ForcedExitCount = 0
		} else if detected {
			next.ForcedExitCount = player.SaturatingAdd(cur.ForcedExitCount, 1)
		}
		return next, nil
	})
	if err != nil {
		return StartResult{}, err
	}
	p.metrics.RecordSession("start")

	res := StartResult{Record: rec, ForcedExitDetected: detected}
	if !detected || !fe.Tracking {
		return res, nil
	}

	if p.tracker != nil {
		res.Report = p.tracker.OnForcedExit(ctx, contextID, id, rec, fe)
	}
	p.metrics.RecordForcedExit(res.Report.ThresholdReached)
	p.logger.WarnContext(ctx, "forced exit detected",
		"context", contextID,
		"player", id.String(),
		"count", rec.ForcedExitCount,
		"threshold_reached", res.Report.ThresholdReached,
	)
	return res, nil
}

// HandleGracefulExit closes the session. Under one-time unlock mode the
// unlock is consumed.
func (p *Policy) HandleGracefulExit(ctx context.Context, contextID string, id uuid.UUID) error {
	snap := p.cfg.Current()

	_, err := p.store.Modify(ctx, contextID, id, func(cur player.Record) (player.Record, error) {
		next := cur
		next.SessionOpen = false
		if snap.SessionMode == config.SessionModeOneTime && cur.Unlocked {
			next.Unlocked = false
		}
		if !snap.ForcedExit.Tracking {
			next.ForcedExitCount = 0
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	p.metrics.RecordSession("graceful_exit")
	p.logger.DebugContext(ctx, "session closed", "context", contextID, "player", id.String())
	return nil
}
