// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"pgxnbuild/internal/builder"
	"pgxnbuild/internal/config"
	"pgxnbuild/internal/pgconfig"
	"pgxnbuild/internal/pipeline"
	"pgxnbuild/pkg/pgxnmeta"
)

// metaFile is the release metadata file at the top of a distribution.
const metaFile = "META.json"

type buildSteps struct {
	test    bool
	install bool
}

func newBuildCommand(app *App) *cobra.Command {
	var (
		steps    buildSteps
		pipeName string
	)

	cmd := &cobra.Command{
		Use:   "build [DIR]",
		Short: "Configure and compile the extension in DIR",
		Long: `Configure and compile the extension in DIR (default: the current directory).

The build pipeline is the one named by META.json's dependencies.pipeline,
or --pipeline, or else the one detected from the files in DIR.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cfg, err := app.settings(cmd)
			if err != nil {
				return app.fail(cmd, err, "load configuration", "")
			}
			rel, err := loadLocalRelease(dir, pipeName)
			if err != nil {
				return app.fail(cmd, err, "read release metadata", dir)
			}
			if err := app.build(cmd.Context(), cfg, dir, rel, steps); err != nil {
				return app.fail(cmd, err, "build extension", dir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&steps.test, "test", false, "run the extension's tests after compiling")
	cmd.Flags().BoolVar(&steps.install, "install", false, "install the extension after compiling")
	cmd.Flags().StringVar(&pipeName, "pipeline", "", "build pipeline to use instead of detection (pgxs or pgrx)")
	return cmd
}

// loadLocalRelease reads DIR/META.json. Source trees without one get a
// placeholder release named after the directory. A non-empty pipeName
// replaces the declared pipeline.
func loadLocalRelease(dir, pipeName string) (*pgxnmeta.Release, error) {
	rel, err := pgxnmeta.LoadFile(filepath.Join(dir, metaFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return nil, absErr
		}
		slog.Debug("no release metadata, using directory name", "dir", abs)
		return pgxnmeta.New(filepath.Base(abs), "0.0.0", pipeName), nil
	case err != nil:
		return nil, err
	case pipeName != "":
		return pgxnmeta.New(rel.Name(), rel.Version(), pipeName), nil
	default:
		return rel, nil
	}
}

// build probes pg_config and runs the lifecycle of rel's source tree in dir.
func (a *App) build(ctx context.Context, cfg *config.Config, dir string, rel *pgxnmeta.Release, steps buildSteps) error {
	pg, err := pgconfig.New(ctx, cfg.PgConfig)
	if err != nil {
		return err
	}

	b, err := builder.New(dir, rel, pg, builder.Options{
		Stdout: a.stdout,
		Stderr: a.stderr,
		Color:  a.color,
		Pipeline: pipeline.Options{
			Sudo:     cfg.Sudo,
			Elevator: cfg.Elevator,
			Make:     cfg.Make,
		},
	})
	if err != nil {
		return err
	}
	slog.Info("building", "release", rel.Name()+"-"+rel.Version(), "pipeline", b.Pipeline())

	run := []func(context.Context) error{b.Configure, b.Compile}
	if steps.test {
		run = append(run, b.Test)
	}
	if steps.install {
		run = append(run, b.Install)
	}
	for _, step := range run {
		if err := step(ctx); err != nil {
			return err
		}
	}

	verb := "built"
	if steps.install {
		verb = "installed"
	}
	fmt.Fprintf(a.stdout, "%s %s %s %s with %s\n", SuccessStyle.Render("✓"),
		rel.Name(), rel.Version(), verb, CmdStyle.Render(b.Pipeline().String()))
	return nil
}
