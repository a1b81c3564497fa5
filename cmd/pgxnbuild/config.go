// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pgxnbuild/internal/config"
)

// newConfigCommand creates the `pgxnbuild config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pgxnbuild configuration",
		Long: `Manage pgxnbuild configuration.

Configuration is stored in:
  - Linux: $XDG_CONFIG_HOME/pgxnbuild/config.cue (~/.config when unset)
  - macOS: ~/Library/Application Support/pgxnbuild/config.cue
  - Windows: %APPDATA%\pgxnbuild\config.cue

PGXNBUILD_* environment variables and command-line flags take precedence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.settings(cmd)
			if err != nil {
				return app.fail(cmd, err, "load configuration", "")
			}
			path, err := config.FilePath(config.LoadOptions{ConfigFilePath: app.flags.configPath})
			if err != nil {
				return app.fail(cmd, err, "locate configuration", "")
			}
			if !fileExists(path) {
				path = "(using defaults)"
			}
			fmt.Fprintf(app.stdout, "// file: %s\n", path)
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath(config.LoadOptions{ConfigFilePath: app.flags.configPath})
			if err != nil {
				return app.fail(cmd, err, "locate configuration", "")
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath(config.LoadOptions{ConfigFilePath: app.flags.configPath})
			if err != nil {
				return app.fail(cmd, err, "locate configuration", "")
			}
			if err := config.WriteDefault(path, force); err != nil {
				return app.fail(cmd, err, "write configuration", "")
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
