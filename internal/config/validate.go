package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// Error codes returned by this package.
const (
	CodeInvalid = "config_invalid"
	CodeIO      = "config_io"
)

// SupportedVersions is the range of config schema versions this build reads.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

var supported = mustConstraint(SupportedVersions)

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

// ValidateRaw checks semantic constraints of a RawConfig and reports every
// violation at once.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	if cfg.Version != "" {
		v, err := semver.NewVersion(cfg.Version)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("version %q is not a semantic version", cfg.Version))
		case !supported.Check(v):
			errs = append(errs, fmt.Sprintf("version %s is outside the supported range %s", v, SupportedVersions))
		}
	}

	if cfg.RollCost != nil && *cfg.RollCost < 0 {
		errs = append(errs, "roll_cost must be >= 0")
	}

	for k := range cfg.ActionValues {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, "action_values keys must not be blank")
			break
		}
	}

	seen := make(map[string]bool, len(cfg.Rewards))
	for i, r := range cfg.Rewards {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			errs = append(errs, fmt.Sprintf("rewards[%d].id is required", i))
		} else if seen[id] {
			errs = append(errs, fmt.Sprintf("rewards[%d].id %q is duplicated", i, id))
		}
		seen[id] = true
		if r.Weight != nil {
			w := *r.Weight
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				errs = append(errs, fmt.Sprintf("rewards[%d].weight must be a finite number >= 0", i))
			}
		}
	}

	switch PointMode(cfg.PointMode) {
	case "", PointModeAutomatic, PointModeManual:
	default:
		errs = append(errs, "point_mode must be one of: automatic, manual")
	}
	switch SessionMode(cfg.SessionMode) {
	case "", SessionModeOneTime, SessionModePermanent:
	default:
		errs = append(errs, "session_mode must be one of: one_time_unlock, permanent_unlock")
	}

	if len(errs) > 0 {
		return oops.
			Code(CodeInvalid).
			In("config").
			Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
