package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the config directory.
const FileName = "offwork.yaml"

// Paths helper for the config and player-data locations.
type Paths struct {
	ConfigDir string // e.g. /etc/offwork or ./config
	DataDir   string // e.g. ./playerdata
}

func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, FileName)
}

// DefaultPaths mirrors the layout a server uses when nothing is configured.
func DefaultPaths() Paths {
	return Paths{ConfigDir: "config", DataDir: "playerdata"}
}

// Manager owns the config file and publishes snapshots atomically. Readers
// never block on a reload; a failed reload keeps the previous snapshot.
type Manager struct {
	path    string
	logger  *slog.Logger
	mu      sync.Mutex // serializes Reload and Save
	current atomic.Pointer[Snapshot]
}

// NewManager loads dir/offwork.yaml, writing the defaults first if the file
// does not exist yet.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, oops.Code(CodeIO).In("config").With("dir", dir).Wrapf(err, "create config directory")
	}
	m := &Manager{path: filepath.Join(dir, FileName), logger: logger}

	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		if err := writeSnapshot(m.path, Defaults()); err != nil {
			return nil, err
		}
		logger.Info("wrote default config", "path", m.path)
	}

	snap, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.current.Store(snap)
	return m, nil
}

// Path returns the config file location.
func (m *Manager) Path() string { return m.path }

// Current returns the latest published snapshot.
func (m *Manager) Current() *Snapshot { return m.current.Load() }

// Reload re-reads the file and swaps the snapshot in one step.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := Load(m.path)
	if err != nil {
		return err
	}
	m.current.Store(snap)
	m.logger.Info("config reloaded",
		"path", m.path,
		"version", snap.Version,
		"rewards", len(snap.Rewards),
		"roll_cost", snap.RollCost,
	)
	return nil
}

// Save persists snap and publishes it.
func (m *Manager) Save(snap *Snapshot) error {
	if snap == nil {
		return oops.Code(CodeInvalid).In("config").Errorf("nil snapshot")
	}
	raw := ToRaw(snap)
	if err := ValidateRaw(raw); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := writeSnapshot(m.path, snap); err != nil {
		return err
	}
	m.current.Store(Normalize(raw))
	return nil
}

// Load reads, validates, and normalizes a config file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code(CodeIO).In("config").With("path", path).Wrapf(err, "read config")
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return snap, nil
}

// Parse validates YAML bytes and returns the normalized snapshot.
func Parse(data []byte) (*Snapshot, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code(CodeInvalid).In("config").Wrap(err)
	}
	var raw RawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, oops.Code(CodeInvalid).In("config").Wrapf(err, "decode config")
	}
	if err := ValidateRaw(raw); err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}

// Marshal renders a snapshot as YAML.
func Marshal(snap *Snapshot) ([]byte, error) {
	b, err := yaml.Marshal(ToRaw(snap))
	if err != nil {
		return nil, oops.Code(CodeInvalid).In("config").Wrapf(err, "encode config")
	}
	return b, nil
}

// writeSnapshot replaces path atomically via a temp file in the same directory.
func writeSnapshot(path string, snap *Snapshot) error {
	body, err := Marshal(snap)
	if err != nil {
		return err
	}
	header := []byte("# Off-work lock configuration. Reloaded automatically when changed.\n")

	tmp, err := os.CreateTemp(filepath.Dir(path), ".offwork-*.yaml")
	if err != nil {
		return oops.Code(CodeIO).In("config").With("path", path).Wrapf(err, "create temp config")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup after rename

	if _, err := tmp.Write(append(header, body...)); err != nil {
		tmp.Close()
		return oops.Code(CodeIO).In("config").With("path", path).Wrapf(err, "write config")
	}
	if err := tmp.Close(); err != nil {
		return oops.Code(CodeIO).In("config").With("path", path).Wrapf(err, "close config")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return oops.Code(CodeIO).In("config").With("path", path).Wrapf(err, "replace config")
	}
	return nil
}
