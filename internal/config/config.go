// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"pgxnbuild/internal/issue"
	"pgxnbuild/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "pgxnbuild"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "PGXNBUILD"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the pgxnbuild configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file that opts select, whether or not it exists.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// LoadWithPath loads the configuration selected by opts and reports which file
// was used. A missing default file is not an error; a missing explicit file is.
func LoadWithPath(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := FilePath(opts)
	if err != nil {
		return nil, err
	}

	resolvedPath := ""
	switch {
	case fileExists(path):
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.Wrap(&LoadError{Path: path, Err: err}, "load configuration", "").
				WithSuggestion(
					"Check that the file contains valid CUE syntax",
					"Verify the configuration values match the expected schema",
					"Run 'pgxnbuild config init --force' to start over from the defaults",
				)
		}
		resolvedPath = path
	case opts.ConfigFilePath != "":
		return nil, issue.Wrap(&LoadError{Path: path, Err: fs.ErrNotExist}, "load configuration", "").
			WithSuggestion(
				"Verify the file path is correct",
				"Run 'pgxnbuild config path' to see where the default file lives",
			)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to parse config: %w", err)}
	}
	if ok, errs := cfg.Validate(); !ok {
		return nil, issue.Wrap(&LoadError{Path: path, Err: errors.Join(errs...)}, "validate configuration", "").
			WithSuggestion("Check " + EnvPrefix + "_* environment variables as well as the file")
	}

	return &Loaded{Config: &cfg, Path: resolvedPath}, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("pg_config", defaults.PgConfig)
	v.SetDefault("sudo", defaults.Sudo)
	v.SetDefault("elevator", defaults.Elevator)
	v.SetDefault("make", defaults.Make)
	v.SetDefault("color", string(defaults.Color))
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("registry.url", defaults.Registry.URL)
	v.SetDefault("registry.timeout", defaults.Registry.Timeout.String())
	v.SetDefault("work_dir", defaults.WorkDir)
}

// loadCUEIntoViper validates a CUE file against the #Config schema and merges
// its contents into Viper over the defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	unified, err := cueutil.Unify(configSchema, "#Config", data, path)
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%s: %w", path, fs.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pgxnbuild configuration\n\n")
	fmt.Fprintf(&sb, "pg_config: %q\n", cfg.PgConfig)
	fmt.Fprintf(&sb, "sudo:      %v\n", cfg.Sudo)
	fmt.Fprintf(&sb, "elevator:  %q\n", cfg.Elevator)
	fmt.Fprintf(&sb, "make:      %q\n", cfg.Make)
	fmt.Fprintf(&sb, "color:     %q\n", cfg.Color)
	fmt.Fprintf(&sb, "verbose:   %v\n", cfg.Verbose)
	if cfg.WorkDir != "" {
		fmt.Fprintf(&sb, "work_dir:  %q\n", cfg.WorkDir)
	}

	sb.WriteString("\nregistry: {\n")
	fmt.Fprintf(&sb, "\turl:     %q\n", cfg.Registry.URL)
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Registry.Timeout.String())
	sb.WriteString("}\n")

	return sb.String()
}
