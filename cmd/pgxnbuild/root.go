// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the pgxnbuild command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "pgxnbuild",
		Short: "Build and install PostgreSQL extensions from PGXN",
		Long: TitleStyle.Render("pgxnbuild") + SubtitleStyle.Render(" - Build and install PostgreSQL extensions") + `

pgxnbuild works out how an extension is built, PGXS Makefiles or pgrx
crates, and drives its configure, compile, test and install steps against
the PostgreSQL installation that pg_config describes.

` + SubtitleStyle.Render("Examples:") + `
  pgxnbuild detect                 Show which build pipeline applies here
  pgxnbuild build --test           Build and test the extension in .
  pgxnbuild install pair@0.1.7     Fetch, build and install a PGXN release
  pgxnbuild pg-config pkglibdir    Print one pg_config setting`,
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pgxnbuild/config.cue)")
	f.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&app.flags.pgConfig, "pg-config", "", "pg_config program of the target PostgreSQL installation")
	f.BoolVar(&app.flags.sudo, "sudo", false, "elevate the install step when the library directory is not writable")
	f.StringVar(&app.flags.color, "color", "", "color build output: auto, always or never")
	f.StringVar(&app.flags.registry, "registry", "", "PGXN API or mirror URL")

	root.AddCommand(
		newBuildCommand(app),
		newDetectCommand(app),
		newPgConfigCommand(app),
		newFetchCommand(app),
		newInstallCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command tree with os.Args and exits the process.
func Execute() {
	app := NewApp(Dependencies{})

	// fang overrides root.Version, so the version is passed as an option.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
