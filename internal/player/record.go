// Package player keeps per-context player records: points, the off-work
// unlock flag, and session bookkeeping.
package player

import (
	"math"

	"github.com/google/uuid"
)

// MaxPoints is the largest value Points or ForcedExitCount may hold.
const MaxPoints = math.MaxInt32

// Record is the persisted state of one player in one context. It is a value
// type: change it by building a new Record and handing it to the Store.
type Record struct {
	Points          int  `json:"points"`
	Unlocked        bool `json:"unlocked"`
	SessionOpen     bool `json:"session_open"`
	ForcedExitCount int  `json:"forced_exit_count"`
}

// Entry pairs a player id with its record.
type Entry struct {
	ID     uuid.UUID
	Record Record
}

// Clamp forces v into [0, MaxPoints].
func Clamp(v int64) int {
	if v < 0 {
		return 0
	}
	if v > MaxPoints {
		return MaxPoints
	}
	return int(v)
}

// SaturatingAdd adds delta to cur and clamps the result into [0, MaxPoints].
func SaturatingAdd(cur, delta int) int {
	c := int64(Clamp(int64(cur)))
	d := int64(delta)
	// c is bounded, so only extreme deltas could overflow int64
	switch {
	case d > MaxPoints:
		return MaxPoints
	case d < -MaxPoints:
		return 0
	}
	return Clamp(c + d)
}

// AddPoints returns r with delta applied to Points and the delta that was
// actually applied after clamping.
func (r Record) AddPoints(delta int) (Record, int) {
	before := r.Points
	r.Points = SaturatingAdd(r.Points, delta)
	return r, r.Points - before
}

// Normalized returns r with every counter clamped into range.
func (r Record) Normalized() Record {
	r.Points = Clamp(int64(r.Points))
	r.ForcedExitCount = Clamp(int64(r.ForcedExitCount))
	return r
}
