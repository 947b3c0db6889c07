package roll

import (
	"github.com/oklog/ulid/v2"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/effect"
)

// FailureCode is the stable reason a roll was refused.
type FailureCode string

const (
	FailureNone               FailureCode = ""
	FailureEmptyTable         FailureCode = "reward_table_empty"
	FailureInsufficientPoints FailureCode = "insufficient_points"
	FailureNoRewardSelected   FailureCode = "no_reward_selected"
)

// Message is the player-facing text for the failure.
func (c FailureCode) Message() string {
	switch c {
	case FailureEmptyTable:
		return "The reward table is empty."
	case FailureInsufficientPoints:
		return "Not enough points."
	case FailureNoRewardSelected:
		return "No valid reward could be selected."
	}
	return ""
}

// UnlockNotice is shown when a reward lifts the exit restriction.
const UnlockNotice = "Off work! Exit controls are enabled again."

// Outcome is the result of one roll. It is not persisted.
type Outcome struct {
	ID           ulid.ULID
	Success      bool
	Failure      FailureCode
	Reason       string
	Reward       *config.Reward
	Cost         int
	PointsBefore int
	PointsAfter  int
	BonusPoints  int
	Unlocked     bool

	// Deferred holds effects the caller must execute (currency, items,
	// status effects, custom commands).
	Deferred      []effect.Descriptor
	Notifications []string
	// Executed is every parsed effect in order, deferred ones included.
	Executed []effect.Descriptor
}

func failed(code FailureCode) Outcome {
	reason := code.Message()
	return Outcome{
		ID:            ulid.Make(),
		Failure:       code,
		Reason:        reason,
		Deferred:      []effect.Descriptor{},
		Notifications: []string{reason},
		Executed:      []effect.Descriptor{},
	}
}
