// Package wire holds the JSON shapes shared by the HTTP and gRPC adapters.
package wire

import (
	"github.com/xtding233/offwork-lock/internal/economy"
	"github.com/xtding233/offwork-lock/internal/effect"
	"github.com/xtding233/offwork-lock/internal/player"
	"github.com/xtding233/offwork-lock/internal/roll"
	"github.com/xtding233/offwork-lock/internal/session"
)

type RollResp struct {
	ID            string              `json:"id"`
	Success       bool                `json:"success"`
	Failure       string              `json:"failure,omitempty"`
	Reason        string              `json:"reason,omitempty"`
	RewardID      string              `json:"reward_id,omitempty"`
	RewardName    string              `json:"reward_name,omitempty"`
	Cost          int                 `json:"cost"`
	PointsBefore  int                 `json:"points_before"`
	PointsAfter   int                 `json:"points_after"`
	BonusPoints   int                 `json:"bonus_points"`
	Unlocked      bool                `json:"unlocked"`
	Deferred      []effect.Descriptor `json:"deferred,omitempty"`
	Notifications []string            `json:"notifications,omitempty"`
	Err           string              `json:"err,omitempty"`
}

func FromOutcome(o roll.Outcome) RollResp {
	r := RollResp{
		ID:            o.ID.String(),
		Success:       o.Success,
		Failure:       string(o.Failure),
		Reason:        o.Reason,
		Cost:          o.Cost,
		PointsBefore:  o.PointsBefore,
		PointsAfter:   o.PointsAfter,
		BonusPoints:   o.BonusPoints,
		Unlocked:      o.Unlocked,
		Deferred:      o.Deferred,
		Notifications: o.Notifications,
	}
	if o.Reward != nil {
		r.RewardID = o.Reward.ID
		r.RewardName = o.Reward.Name
	}
	return r
}

type CanRollResp struct {
	CanRoll bool   `json:"can_roll"`
	Err     string `json:"err,omitempty"`
}

type SessionResp struct {
	Record             player.Record `json:"record"`
	ForcedExitDetected bool          `json:"forced_exit_detected"`
	ThresholdReached   bool          `json:"threshold_reached"`
	Warning            string        `json:"warning,omitempty"`
	Err                string        `json:"err,omitempty"`
}

func FromStart(res session.StartResult) SessionResp {
	return SessionResp{
		Record:             res.Record,
		ForcedExitDetected: res.ForcedExitDetected,
		ThresholdReached:   res.Report.ThresholdReached,
		Warning:            res.Report.Warning,
	}
}

type ActionResp struct {
	Matched         bool   `json:"matched"`
	Changed         bool   `json:"changed"`
	Awarded         int    `json:"awarded"`
	Potential       int    `json:"potential"`
	Total           int    `json:"total"`
	SuppressDefault bool   `json:"suppress_default"`
	Message         string `json:"message,omitempty"`
	Err             string `json:"err,omitempty"`
}

func FromAward(a economy.AwardResult) ActionResp {
	return ActionResp{
		Matched:         a.Matched,
		Changed:         a.Changed,
		Awarded:         a.Awarded,
		Potential:       a.Potential,
		Total:           a.Total,
		SuppressDefault: a.SuppressDefault,
		Message:         a.Message,
	}
}

// ExchangeReq carries the item counts a player offers for exchange.
type ExchangeReq struct {
	Counts map[string]int `json:"counts"`
}

type ExchangeResp struct {
	Status   string         `json:"status"`
	Gained   int            `json:"gained"`
	Total    int            `json:"total"`
	Consumed map[string]int `json:"consumed,omitempty"`
	Message  string         `json:"message,omitempty"`
	Err      string         `json:"err,omitempty"`
}

func FromExchange(e economy.ExchangeResult) ExchangeResp {
	return ExchangeResp{
		Status:   string(e.Status),
		Gained:   e.Gained,
		Total:    e.Total,
		Consumed: e.Consumed,
		Message:  e.Message,
	}
}

type RewardResp struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Weight          float64 `json:"weight"`
	Probability     float64 `json:"probability"`
	ProbabilityText string  `json:"probability_text"`
}

func FromDisplays(ds []roll.RewardDisplay) []RewardResp {
	out := make([]RewardResp, 0, len(ds))
	for _, d := range ds {
		out = append(out, RewardResp{
			ID:              d.Reward.ID,
			Name:            d.Reward.Name,
			Description:     d.Reward.Description,
			Weight:          d.Reward.Weight,
			Probability:     d.Probability,
			ProbabilityText: d.ProbabilityText(),
		})
	}
	return out
}

// ErrResp is the body for requests that fail before reaching the engine.
type ErrResp struct {
	Err string `json:"err"`
}
