package roll

import (
	"fmt"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/effect"
	"github.com/xtding233/offwork-lock/internal/gacha"
)

// RewardDisplay is a reward with its normalized chance of being rolled.
type RewardDisplay struct {
	Reward      config.Reward
	Probability float64 // in [0, 1]
}

// ProbabilityText renders Probability with FormatProbability.
func (d RewardDisplay) ProbabilityText() string {
	return FormatProbability(d.Probability)
}

// Displays computes the chance of each reward in table order. Rewards with
// a non-positive weight, or any reward when no weight is positive, get 0.
func Displays(rewards []config.Reward) []RewardDisplay {
	total := gacha.TotalWeight(rewards, RewardWeight)
	out := make([]RewardDisplay, 0, len(rewards))
	for _, r := range rewards {
		p := 0.0
		if w := RewardWeight(r); total > 0 && w > 0 {
			p = w / total
		}
		out = append(out, RewardDisplay{Reward: r, Probability: p})
	}
	return out
}

// FormatProbability renders p as a percentage: "0%" for zero, one decimal
// place from 1% up, two decimal places below 1%.
func FormatProbability(p float64) string {
	percent := p * 100
	switch {
	case !(percent > 0):
		return "0%"
	case percent >= 1:
		return fmt.Sprintf("%.1f%%", percent)
	default:
		return fmt.Sprintf("%.2f%%", percent)
	}
}

// RewardWeight is the selector weight of r.
func RewardWeight(r config.Reward) float64 { return r.Weight }

// UnlocksExit reports whether any of r's effects lifts the exit restriction.
func UnlocksExit(r config.Reward) bool {
	for _, d := range effect.ParseAll(r.Effects) {
		if d.Kind == effect.KindUnlockExit {
			return true
		}
	}
	return false
}
