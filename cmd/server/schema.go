package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/offwork-lock/internal/config"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func newValidateCmd() *cobra.Command {
	s, envErr := loadSettings()

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a config file without starting the engine",
		Long: `Validate parses the file against the schema and the semantic rules
the engine enforces on reload. With no argument it checks
<config-dir>/` + config.FileName + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				if envErr != nil {
					return envErr
				}
				path = s.Paths().ConfigFile()
			}
			snap, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (version %s, %d rewards, %d locked zones)\n",
				path, snap.Version, len(snap.Rewards), len(snap.LockedZones))
			return nil
		},
	}
	settingsFlags(cmd, &s)
	return cmd
}
