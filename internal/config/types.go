// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ColorAuto colors build output when stdout is a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces colored output.
	ColorAlways ColorMode = "always"
	// ColorNever disables colored output.
	ColorNever ColorMode = "never"
)

var (
	// ErrConfigLoad is the sentinel error wrapped by LoadError.
	ErrConfigLoad = errors.New("cannot load configuration")
	// ErrInvalidColorMode is returned when a ColorMode value is not recognized.
	ErrInvalidColorMode = errors.New("invalid color mode")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorMode selects when build output is colored.
	ColorMode string

	// InvalidColorModeError is returned when a ColorMode value is not recognized.
	// It wraps ErrInvalidColorMode for errors.Is() compatibility.
	InvalidColorModeError struct {
		Value ColorMode
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// LoadError reports a config file that could not be read, parsed or
	// validated.
	LoadError struct {
		Path string
		Err  error
	}

	// Config holds the application configuration.
	Config struct {
		// PgConfig is the pg_config program to probe.
		PgConfig string `json:"pg_config" mapstructure:"pg_config"`
		// Sudo allows elevating the install step.
		Sudo bool `json:"sudo" mapstructure:"sudo"`
		// Elevator is the elevation program, "sudo" by default.
		Elevator string `json:"elevator" mapstructure:"elevator"`
		// Make is the make program.
		Make string `json:"make" mapstructure:"make"`
		// Color selects when build output is colored.
		Color ColorMode `json:"color" mapstructure:"color"`
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Registry configures the PGXN API client.
		Registry RegistryConfig `json:"registry" mapstructure:"registry"`
		// WorkDir is where fetched distributions are unpacked. Empty means a
		// fresh temporary directory per run.
		WorkDir string `json:"work_dir" mapstructure:"work_dir"`
	}

	// RegistryConfig configures the PGXN API client.
	RegistryConfig struct {
		URL     string        `json:"url" mapstructure:"url"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		PgConfig: "pg_config",
		Elevator: "sudo",
		Make:     "make",
		Color:    ColorAuto,
		Registry: RegistryConfig{
			URL:     "https://api.pgxn.org/",
			Timeout: 5 * time.Second,
		},
	}
}

// Error implements the error interface.
func (e *InvalidColorModeError) Error() string {
	return fmt.Sprintf("%s %q (valid: auto, always, never)", ErrInvalidColorMode, e.Value)
}

// Unwrap returns ErrInvalidColorMode so callers can use errors.Is for programmatic detection.
func (e *InvalidColorModeError) Unwrap() error { return ErrInvalidColorMode }

// IsValid returns whether the ColorMode is one of the defined modes,
// and a list of validation errors if it is not.
func (m ColorMode) IsValid() (bool, []error) {
	switch m {
	case ColorAuto, ColorAlways, ColorNever:
		return true, nil
	default:
		return false, []error{&InvalidColorModeError{Value: m}}
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidConfig, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrConfigLoad, e.Path, e.Err)
}

// Unwrap returns ErrConfigLoad and the underlying cause.
func (e *LoadError) Unwrap() []error { return []error{ErrConfigLoad, e.Err} }

// Validate checks the constraints that hold after environment overrides,
// which bypass the CUE schema.
func (c *Config) Validate() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.Color.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.PgConfig == "" {
		errs = append(errs, errors.New("pg_config must not be empty"))
	}
	if c.Make == "" {
		errs = append(errs, errors.New("make must not be empty"))
	}
	if c.Sudo && c.Elevator == "" {
		errs = append(errs, errors.New("elevator must be set when sudo is enabled"))
	}
	if c.Registry.Timeout < 0 {
		errs = append(errs, fmt.Errorf("registry.timeout %s is negative", c.Registry.Timeout))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}
