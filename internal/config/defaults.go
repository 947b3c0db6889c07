package config

import "strings"

// CurrentVersion is written into newly created config files.
const CurrentVersion = "1.0.0"

const (
	DefaultRollCost            = 100
	DefaultLockMessage         = "Roll an off-work ticket before you can leave."
	DefaultForcedExitWarning   = "Forced exit detected {count} times."
	DefaultForcedExitThreshold = 3
	DefaultHUDOffset           = 4
	defaultRewardWeight        = 1.0
	defaultPointMode           = PointModeAutomatic
	defaultSessionMode         = SessionModeOneTime
)

// Defaults returns the configuration a fresh install starts with.
func Defaults() *Snapshot {
	return &Snapshot{
		Version:     CurrentVersion,
		LockedZones: []string{"minecraft:overworld", "minecraft:the_nether", "minecraft:the_end"},
		ActionValues: map[string]int{
			"minecraft:coal_ore":    1,
			"minecraft:iron_ore":    2,
			"minecraft:gold_ore":    3,
			"minecraft:diamond_ore": 5,
		},
		RollCost: DefaultRollCost,
		Rewards: []Reward{
			{ID: "OFF_WORK", Name: "Off work!", Description: "Lifts the exit restriction.", Weight: 1, Effects: []string{"unlock_exit"}},
			{ID: "POINTS_BONUS", Name: "Bonus points", Description: "Grants extra points.", Weight: 3, Effects: []string{"add_points:50"}},
			{ID: "NOTHING", Name: "Miss", Description: "Nothing happens.", Weight: 5, Effects: []string{"message:better-luck-next-time"}},
		},
		PointMode:   defaultPointMode,
		SessionMode: defaultSessionMode,
		HUD: HUD{
			Enabled:         true,
			OffsetX:         DefaultHUDOffset,
			OffsetY:         DefaultHUDOffset,
			ShowCost:        true,
			ShowUnlockState: true,
		},
		Lock: Lock{Message: DefaultLockMessage},
		ForcedExit: ForcedExit{
			Tracking:         true,
			WarningThreshold: DefaultForcedExitThreshold,
			WarningMessage:   DefaultForcedExitWarning,
		},
	}
}

// Normalize fills every absent field of raw with its default and returns the
// resulting snapshot. It assumes raw already passed ValidateRaw.
func Normalize(raw RawConfig) *Snapshot {
	out := Defaults()
	if raw.Version != "" {
		out.Version = raw.Version
	}
	if raw.LockedZones != nil {
		out.LockedZones = make([]string, 0, len(raw.LockedZones))
		for _, z := range raw.LockedZones {
			if z = strings.TrimSpace(z); z != "" {
				out.LockedZones = append(out.LockedZones, z)
			}
		}
	}
	if raw.ActionValues != nil {
		out.ActionValues = make(map[string]int, len(raw.ActionValues))
		for k, v := range raw.ActionValues {
			out.ActionValues[strings.TrimSpace(k)] = v
		}
	}
	if raw.RollCost != nil {
		out.RollCost = *raw.RollCost
	}
	if raw.Rewards != nil {
		out.Rewards = make([]Reward, 0, len(raw.Rewards))
		for _, r := range raw.Rewards {
			out.Rewards = append(out.Rewards, normalizeReward(r))
		}
	}
	if raw.PointMode != "" {
		out.PointMode = PointMode(raw.PointMode)
	}
	if raw.SessionMode != "" {
		out.SessionMode = SessionMode(raw.SessionMode)
	}

	if h := raw.HUD; h != nil {
		setBool(&out.HUD.Enabled, h.Enabled)
		setInt(&out.HUD.OffsetX, h.OffsetX)
		setInt(&out.HUD.OffsetY, h.OffsetY)
		setBool(&out.HUD.ShowCost, h.ShowCost)
		setBool(&out.HUD.ShowUnlockState, h.ShowUnlockState)
	}
	if l := raw.Lock; l != nil {
		setBool(&out.Lock.HideButtons, l.HideButtons)
		if l.Message != nil {
			out.Lock.Message = *l.Message
		}
	}
	if f := raw.ForcedExit; f != nil {
		setBool(&out.ForcedExit.Tracking, f.Tracking)
		setInt(&out.ForcedExit.WarningThreshold, f.WarningThreshold)
		if f.WarningMessage != nil {
			out.ForcedExit.WarningMessage = *f.WarningMessage
		}
	}
	out.ForcedExit.WarningThreshold = max(0, out.ForcedExit.WarningThreshold)
	return out
}

func normalizeReward(r RawReward) Reward {
	id := strings.TrimSpace(r.ID)
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = id
	}
	weight := defaultRewardWeight
	if r.Weight != nil {
		weight = *r.Weight
	}
	effects := make([]string, 0, len(r.Effects))
	for _, e := range r.Effects {
		if e = strings.TrimSpace(e); e != "" {
			effects = append(effects, e)
		}
	}
	return Reward{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(r.Description),
		Weight:      weight,
		Effects:     effects,
	}
}

// ToRaw converts a snapshot back into its file form with every field explicit.
func ToRaw(s *Snapshot) RawConfig {
	raw := RawConfig{
		Version:      s.Version,
		LockedZones:  append([]string{}, s.LockedZones...),
		ActionValues: make(map[string]int, len(s.ActionValues)),
		RollCost:     ptr(s.RollCost),
		Rewards:      make([]RawReward, 0, len(s.Rewards)),
		PointMode:    string(s.PointMode),
		SessionMode:  string(s.SessionMode),
		HUD: &HUDConfig{
			Enabled:         ptr(s.HUD.Enabled),
			OffsetX:         ptr(s.HUD.OffsetX),
			OffsetY:         ptr(s.HUD.OffsetY),
			ShowCost:        ptr(s.HUD.ShowCost),
			ShowUnlockState: ptr(s.HUD.ShowUnlockState),
		},
		Lock: &LockConfig{
			HideButtons: ptr(s.Lock.HideButtons),
			Message:     ptr(s.Lock.Message),
		},
		ForcedExit: &ForcedExitConfig{
			Tracking:         ptr(s.ForcedExit.Tracking),
			WarningThreshold: ptr(s.ForcedExit.WarningThreshold),
			WarningMessage:   ptr(s.ForcedExit.WarningMessage),
		},
	}
	for k, v := range s.ActionValues {
		raw.ActionValues[k] = v
	}
	for _, r := range s.Rewards {
		raw.Rewards = append(raw.Rewards, RawReward{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Weight:      ptr(r.Weight),
			Effects:     append([]string(nil), r.Effects...),
		})
	}
	return raw
}

func ptr[T any](v T) *T { return &v }

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
