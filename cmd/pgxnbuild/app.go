// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"pgxnbuild/internal/api"
	"pgxnbuild/internal/config"
	"pgxnbuild/internal/executor"
	"pgxnbuild/internal/logging"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and read settings, output streams and the registry through it.
	App struct {
		Config     ConfigProvider
		HTTPClient *http.Client
		stdout     io.Writer
		stderr     io.Writer

		flags   globalFlags
		verbose bool
		color   executor.Color
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		HTTPClient *http.Client
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// globalFlags holds the persistent flags of the root command.
	globalFlags struct {
		configPath string
		verbose    bool
		pgConfig   string
		sudo       bool
		color      string
		registry   string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}

	return &App{
		Config:     deps.Config,
		HTTPClient: deps.HTTPClient,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

// settings loads the configuration, applies the flags the user set
// explicitly, and installs the logger. Flags win over the file and the
// environment.
func (a *App) settings(cmd *cobra.Command) (*config.Config, error) {
	a.verbose = a.flags.verbose

	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}
	if changed("verbose") {
		cfg.Verbose = a.flags.verbose
	}
	if changed("pg-config") {
		cfg.PgConfig = a.flags.pgConfig
	}
	if changed("sudo") {
		cfg.Sudo = a.flags.sudo
	}
	if changed("registry") {
		cfg.Registry.URL = a.flags.registry
	}
	if changed("color") {
		mode := config.ColorMode(a.flags.color)
		if ok, errs := mode.IsValid(); !ok {
			return nil, errs[0]
		}
		cfg.Color = mode
	}

	a.verbose = cfg.Verbose
	a.color = executor.Color{
		Stdout: colorEnabled(cfg.Color, a.stdout),
		Stderr: colorEnabled(cfg.Color, a.stderr),
	}
	logging.Install(logging.New(a.stderr, cfg.Verbose))
	return cfg, nil
}

// registry connects to the configured PGXN mirror.
func (a *App) registry(ctx context.Context, cfg *config.Config) (*api.Client, error) {
	return api.New(ctx, cfg.Registry.URL,
		api.WithHTTPClient(a.HTTPClient),
		api.WithTimeout(cfg.Registry.Timeout),
		api.WithUserAgent("pgxnbuild/"+Version),
	)
}

// colorEnabled resolves a color mode for output written to w.
func colorEnabled(mode config.ColorMode, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		f, ok := w.(*os.File)
		return ok && executor.SupportsColor(f)
	}
}
