// Package zone decides whether leaving is restricted in a given zone (a
// world, dimension or server region).
package zone

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/glob"

	"github.com/xtding233/offwork-lock/internal/config"
)

// Decision is what the UI-interception layer needs to render a menu.
type Decision struct {
	Restricted  bool   `json:"restricted"`
	Message     string `json:"message,omitempty"`
	HideButtons bool   `json:"hide_buttons"`
}

// Guard answers zone lock queries from a cache rebuilt only when the
// configured zone list actually changes.
type Guard struct {
	cfg config.Source

	mu       sync.Mutex
	lastSnap *config.Snapshot
	version  uint64
	exact    map[string]struct{}
	patterns []glob.Glob
}

// NewGuard returns a Guard over cfg.
func NewGuard(cfg config.Source) *Guard {
	return &Guard{cfg: cfg}
}

// Normalize trims and lowercases a zone id.
func Normalize(zoneID string) string {
	return strings.ToLower(strings.TrimSpace(zoneID))
}

// Version hashes a zone list after normalization. Equal lists hash equal.
func Version(zones []string) uint64 {
	d := xxhash.New()
	for _, z := range zones {
		_, _ = d.WriteString(Normalize(z))
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// IsLocked reports whether zoneID matches a configured locked zone. Entries
// containing glob metacharacters are matched as patterns.
func (g *Guard) IsLocked(zoneID string) bool {
	z := Normalize(zoneID)
	if z == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.refresh(g.cfg.Current())

	if _, ok := g.exact[z]; ok {
		return true
	}
	for _, p := range g.patterns {
		if p.Match(z) {
			return true
		}
	}
	return false
}

// Decide combines the zone lock with the player's unlock flag.
func (g *Guard) Decide(zoneID string, unlocked bool) Decision {
	snap := g.cfg.Current()
	d := Decision{HideButtons: snap.Lock.HideButtons}
	if unlocked || !g.IsLocked(zoneID) {
		return d
	}
	d.Restricted = true
	d.Message = snap.Lock.Message
	if strings.TrimSpace(d.Message) == "" {
		d.Message = config.DefaultLockMessage
	}
	return d
}

// refresh rebuilds the cache if snap's zones differ from the cached ones.
// Callers hold g.mu.
func (g *Guard) refresh(snap *config.Snapshot) {
	if snap == g.lastSnap && g.exact != nil {
		return
	}
	g.lastSnap = snap
	v := Version(snap.LockedZones)
	if g.exact != nil && v == g.version {
		return
	}

	g.version = v
	g.exact = make(map[string]struct{}, len(snap.LockedZones))
	g.patterns = g.patterns[:0]
	for _, raw := range snap.LockedZones {
		z := Normalize(raw)
		if z == "" {
			continue
		}
		if strings.ContainsAny(z, "*?[{") {
			if p, err := glob.Compile(z); err == nil {
				g.patterns = append(g.patterns, p)
				continue
			}
		}
		g.exact[z] = struct{}{}
	}
}

// CacheVersion returns the content version of the cached zone list.
func (g *Guard) CacheVersion() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refresh(g.cfg.Current())
	return g.version
}
