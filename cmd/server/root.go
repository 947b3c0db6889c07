package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/xtding233/offwork-lock/internal/config"
)

// NewRootCmd creates the root command for offworkd.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offworkd",
		Short: "Off-work lock engine daemon",
		Long: `offworkd keeps players locked in until they roll an off-work ticket.
It serves the engine over HTTP and gRPC and ships tools to inspect
and validate the reward config.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSimulateCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}

// settingsFlags binds the flags shared by commands that read Settings. Env
// values become the flag defaults, so an explicit flag wins.
func settingsFlags(cmd *cobra.Command, s *config.Settings) {
	cmd.Flags().StringVar(&s.ConfigDir, "config-dir", s.ConfigDir, "directory holding "+config.FileName+" (env OFFWORK_CONFIG_DIR)")
	cmd.Flags().StringVar(&s.DataDir, "data-dir", s.DataDir, "player data directory (env OFFWORK_DATA_DIR)")
}

// loadSettings reads the environment. On a parse error it still returns
// usable defaults so flags can be bound; RunE reports the error.
func loadSettings() (config.Settings, error) {
	s, err := config.LoadSettings()
	if err != nil {
		paths := config.DefaultPaths()
		return config.Settings{
			ConfigDir:     paths.ConfigDir,
			DataDir:       paths.DataDir,
			Store:         "file",
			HTTPAddr:      ":8080",
			LogFormat:     "json",
			WatchInterval: 2 * time.Second,
		}, err
	}
	return s, nil
}
