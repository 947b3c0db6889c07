// Package view builds read-only projections of player state for HUD and
// roll-screen renderers.
package view

import (
	"context"

	"github.com/google/uuid"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/player"
	"github.com/xtding233/offwork-lock/internal/roll"
)

type HUD struct {
	Visible         bool `json:"visible"`
	Points          int  `json:"points"`
	Cost            int  `json:"cost"`
	Unlocked        bool `json:"unlocked"`
	OffsetX         int  `json:"offset_x"`
	OffsetY         int  `json:"offset_y"`
	ShowCost        bool `json:"show_cost"`
	ShowUnlockState bool `json:"show_unlock_state"`
}

type RewardRow struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Probability     float64 `json:"probability"`
	ProbabilityText string  `json:"probability_text"`
}

type Screen struct {
	Points   int         `json:"points"`
	Cost     int         `json:"cost"`
	CanRoll  bool        `json:"can_roll"`
	Unlocked bool        `json:"unlocked"`
	Rewards  []RewardRow `json:"rewards"`
}

// BuildHUD projects rec for the HUD. A disabled HUD yields the zero HUD.
func BuildHUD(snap *config.Snapshot, rec player.Record) HUD {
	if !snap.HUD.Enabled {
		return HUD{}
	}
	return HUD{
		Visible:         true,
		Points:          max(0, rec.Points),
		Cost:            max(0, snap.RollCost),
		Unlocked:        rec.Unlocked,
		OffsetX:         snap.HUD.OffsetX,
		OffsetY:         snap.HUD.OffsetY,
		ShowCost:        snap.HUD.ShowCost,
		ShowUnlockState: snap.HUD.ShowUnlockState,
	}
}

// BuildScreen projects rec and the reward table for the roll screen.
func BuildScreen(snap *config.Snapshot, rec player.Record) Screen {
	points := max(0, rec.Points)
	cost := max(0, snap.RollCost)
	displays := roll.Displays(snap.Rewards)
	rows := make([]RewardRow, 0, len(displays))
	for _, d := range displays {
		rows = append(rows, RewardRow{
			ID:              d.Reward.ID,
			Name:            d.Reward.Name,
			Description:     d.Reward.Description,
			Probability:     d.Probability,
			ProbabilityText: d.ProbabilityText(),
		})
	}
	return Screen{
		Points:   points,
		Cost:     cost,
		CanRoll:  len(snap.Rewards) > 0 && points >= cost,
		Unlocked: rec.Unlocked,
		Rewards:  rows,
	}
}

// Projector reads the current snapshot and player record to build views.
type Projector struct {
	cfg   config.Source
	store *player.Store
}

func NewProjector(cfg config.Source, store *player.Store) *Projector {
	return &Projector{cfg: cfg, store: store}
}

func (p *Projector) HUD(ctx context.Context, contextID string, id uuid.UUID) (HUD, error) {
	snap := p.cfg.Current()
	if !snap.HUD.Enabled {
		return HUD{}, nil
	}
	rec, err := p.store.GetOrCreate(ctx, contextID, id)
	if err != nil {
		return HUD{}, err
	}
	return BuildHUD(snap, rec), nil
}

func (p *Projector) Screen(ctx context.Context, contextID string, id uuid.UUID) (Screen, error) {
	snap := p.cfg.Current()
	rec, err := p.store.GetOrCreate(ctx, contextID, id)
	if err != nil {
		return Screen{}, err
	}
	return BuildScreen(snap, rec), nil
}
