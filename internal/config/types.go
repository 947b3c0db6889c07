package config

// RawConfig mirrors offwork.yaml. Pointer and nil-able fields distinguish
// "absent" (take the default) from an explicit zero value.
type RawConfig struct {
	Version      string            `yaml:"version" json:"version,omitempty"`
	LockedZones  []string          `yaml:"locked_zones,omitempty" json:"locked_zones,omitempty"`
	ActionValues map[string]int    `yaml:"action_values,omitempty" json:"action_values,omitempty"`
	RollCost     *int              `yaml:"roll_cost,omitempty" json:"roll_cost,omitempty"`
	Rewards      []RawReward       `yaml:"rewards,omitempty" json:"rewards,omitempty"`
	PointMode    string            `yaml:"point_mode,omitempty" json:"point_mode,omitempty" jsonschema:"enum=automatic,enum=manual"`
	SessionMode  string            `yaml:"session_mode,omitempty" json:"session_mode,omitempty" jsonschema:"enum=one_time_unlock,enum=permanent_unlock"`
	HUD          *HUDConfig        `yaml:"hud,omitempty" json:"hud,omitempty"`
	Lock         *LockConfig       `yaml:"lock,omitempty" json:"lock,omitempty"`
	ForcedExit   *ForcedExitConfig `yaml:"forced_exit,omitempty" json:"forced_exit,omitempty"`
	Notes        string            `yaml:"notes,omitempty" json:"notes,omitempty"`
}

type RawReward struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Weight      *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
	Effects     []string `yaml:"effects,omitempty" json:"effects,omitempty"`
}

type HUDConfig struct {
	Enabled         *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	OffsetX         *int  `yaml:"offset_x,omitempty" json:"offset_x,omitempty"`
	OffsetY         *int  `yaml:"offset_y,omitempty" json:"offset_y,omitempty"`
	ShowCost        *bool `yaml:"show_cost,omitempty" json:"show_cost,omitempty"`
	ShowUnlockState *bool `yaml:"show_unlock_state,omitempty" json:"show_unlock_state,omitempty"`
}

type LockConfig struct {
	HideButtons *bool   `yaml:"hide_buttons,omitempty" json:"hide_buttons,omitempty"`
	Message     *string `yaml:"message,omitempty" json:"message,omitempty"`
}

type ForcedExitConfig struct {
	Tracking         *bool   `yaml:"tracking,omitempty" json:"tracking,omitempty"`
	WarningThreshold *int    `yaml:"warning_threshold,omitempty" json:"warning_threshold,omitempty"`
	WarningMessage   *string `yaml:"warning_message,omitempty" json:"warning_message,omitempty"`
}

// PointMode selects how qualifying actions turn into points.
type PointMode string

const (
	PointModeAutomatic PointMode = "automatic"
	PointModeManual    PointMode = "manual"
)

// SessionMode selects what a graceful exit does to an unlock.
type SessionMode string

const (
	SessionModeOneTime   SessionMode = "one_time_unlock"
	SessionModePermanent SessionMode = "permanent_unlock"
)

// Reward is one entry of the roll table.
type Reward struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Weight      float64  `json:"weight"`
	Effects     []string `json:"effects"`
}

type HUD struct {
	Enabled         bool
	OffsetX         int
	OffsetY         int
	ShowCost        bool
	ShowUnlockState bool
}

type Lock struct {
	HideButtons bool
	Message     string
}

type ForcedExit struct {
	Tracking         bool
	WarningThreshold int // never negative
	WarningMessage   string
}

// Snapshot is the normalized, immutable configuration the engine reads.
// Nothing mutates a Snapshot after it has been published; build a new one
// (see Clone) to change settings.
type Snapshot struct {
	Version      string
	LockedZones  []string
	ActionValues map[string]int
	RollCost     int
	Rewards      []Reward
	PointMode    PointMode
	SessionMode  SessionMode
	HUD          HUD
	Lock         Lock
	ForcedExit   ForcedExit
}

// ActionValue returns the configured point value for an action key.
// Absent and non-positive entries are reported as not found.
func (s *Snapshot) ActionValue(key string) (int, bool) {
	v, ok := s.ActionValues[key]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Clone returns a deep copy that may be modified before publishing.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.LockedZones = append([]string(nil), s.LockedZones...)
	out.ActionValues = make(map[string]int, len(s.ActionValues))
	for k, v := range s.ActionValues {
		out.ActionValues[k] = v
	}
	out.Rewards = make([]Reward, len(s.Rewards))
	for i, r := range s.Rewards {
		r.Effects = append([]string(nil), r.Effects...)
		out.Rewards[i] = r
	}
	return &out
}

// Source hands out the current snapshot. Callers capture it once per
// operation and use that value to completion.
type Source interface {
	Current() *Snapshot
}

// Static is a Source that never changes.
type Static struct{ Snap *Snapshot }

func (s Static) Current() *Snapshot { return s.Snap }
