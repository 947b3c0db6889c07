package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
)

// Settings are process-level options for offworkd, read from the environment
// and overridable by flags.
type Settings struct {
	ConfigDir     string        `env:"OFFWORK_CONFIG_DIR" envDefault:"config"`
	DataDir       string        `env:"OFFWORK_DATA_DIR" envDefault:"playerdata"`
	Store         string        `env:"OFFWORK_STORE" envDefault:"file"`
	HTTPAddr      string        `env:"OFFWORK_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr      string        `env:"OFFWORK_GRPC_ADDR" envDefault:""`
	LogFormat     string        `env:"OFFWORK_LOG_FORMAT" envDefault:"json"`
	WatchInterval time.Duration `env:"OFFWORK_WATCH_INTERVAL" envDefault:"2s"`
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, oops.Code(CodeInvalid).In("config").Wrapf(err, "parse env")
	}
	return s, nil
}

// Validate checks Settings values that flags and env cannot constrain.
func (s Settings) Validate() error {
	switch s.Store {
	case "file", "sqlite":
	default:
		return oops.Code(CodeInvalid).In("config").Errorf("store must be 'file' or 'sqlite', got %q", s.Store)
	}
	if s.LogFormat != "json" && s.LogFormat != "text" {
		return oops.Code(CodeInvalid).In("config").Errorf("log-format must be 'json' or 'text', got %q", s.LogFormat)
	}
	if s.HTTPAddr == "" && s.GRPCAddr == "" {
		return oops.Code(CodeInvalid).In("config").Errorf("at least one of http-addr or grpc-addr is required")
	}
	return nil
}

// Paths returns the directories named by s.
func (s Settings) Paths() Paths {
	return Paths{ConfigDir: s.ConfigDir, DataDir: s.DataDir}
}
