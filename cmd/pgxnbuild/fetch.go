// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pgxnbuild/internal/api"
	"pgxnbuild/internal/config"
	"pgxnbuild/pkg/pgxnmeta"
)

var errReleaseSpec = errors.New("expected NAME or NAME@VERSION")

func newFetchCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "fetch NAME[@VERSION]",
		Short: "Download and unpack a release from PGXN",
		Long: `Download a release from the configured PGXN mirror, verify its digest,
unpack it, and print the directory it was unpacked into. Without a version
the latest stable release is fetched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.settings(cmd)
			if err != nil {
				return app.fail(cmd, err, "load configuration", "")
			}
			if dir != "" {
				cfg.WorkDir = dir
			}
			src, _, err := app.fetch(cmd.Context(), cfg, args[0])
			if err != nil {
				return app.fail(cmd, err, "fetch", args[0])
			}
			fmt.Fprintln(app.stdout, src)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to unpack into (default: work_dir, or a new temporary directory)")
	return cmd
}

func newInstallCommand(app *App) *cobra.Command {
	var steps buildSteps

	cmd := &cobra.Command{
		Use:   "install NAME[@VERSION]",
		Short: "Fetch, build and install a release from PGXN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.settings(cmd)
			if err != nil {
				return app.fail(cmd, err, "load configuration", "")
			}
			src, rel, err := app.fetch(cmd.Context(), cfg, args[0])
			if err != nil {
				return app.fail(cmd, err, "fetch", args[0])
			}
			steps.install = true
			if err := app.build(cmd.Context(), cfg, src, rel, steps); err != nil {
				return app.fail(cmd, err, "install", rel.Name()+"@"+rel.Version())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&steps.test, "test", false, "run the extension's tests before installing")
	return cmd
}

// parseReleaseSpec splits NAME[@VERSION].
func parseReleaseSpec(spec string) (name, version string, err error) {
	name, version, found := strings.Cut(spec, "@")
	if name == "" || (found && version == "") || strings.ContainsAny(name, "/\\") {
		return "", "", fmt.Errorf("%q: %w", spec, errReleaseSpec)
	}
	return name, version, nil
}

// fetch downloads, verifies and unpacks the release spec names. It returns
// the unpacked source directory and the release metadata.
func (a *App) fetch(ctx context.Context, cfg *config.Config, spec string) (string, *pgxnmeta.Release, error) {
	name, version, err := parseReleaseSpec(spec)
	if err != nil {
		return "", nil, err
	}

	client, err := a.registry(ctx, cfg)
	if err != nil {
		return "", nil, err
	}

	if version == "" {
		dist, err := client.Dist(ctx, name)
		if err != nil {
			return "", nil, err
		}
		latest, ok := dist.LatestStable()
		if !ok {
			return "", nil, fmt.Errorf("%s has no stable release: %w", name, api.ErrNotFound)
		}
		slog.Info("latest stable release", "dist", name, "version", latest)
		version = latest
	}

	rel, err := client.Meta(ctx, name, version)
	if err != nil {
		return "", nil, err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		if workDir, err = os.MkdirTemp("", "pgxnbuild-"); err != nil {
			return "", nil, err
		}
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", nil, err
	}

	archive, err := client.DownloadTo(ctx, workDir, rel)
	if err != nil {
		return "", nil, err
	}
	src, err := api.Unpack(workDir, archive)
	if err != nil {
		return "", nil, err
	}
	return src, rel, nil
}
