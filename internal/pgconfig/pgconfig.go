// SPDX-License-Identifier: MPL-2.0

// Package pgconfig runs PostgreSQL's pg_config discovery tool and exposes its
// output as a lookup table.
package pgconfig

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"maps"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"pgxnbuild/internal/executor"
)

// DefaultProgram is the discovery tool looked up on PATH when none is
// configured.
const DefaultProgram = "pg_config"

// PgConfig holds the key/value pairs reported by pg_config. Keys are always
// lowercase. A PgConfig is immutable once created and safe for concurrent
// reads.
type PgConfig struct {
	path string
	cfg  map[string]string
}

// New runs the pg_config executable named by program with no arguments and
// parses its output. program may be a bare name resolved through PATH or a
// path to the executable.
//
// A tool that cannot be started yields an *executor.LaunchError. A tool that
// exits unsuccessfully yields an *executor.CommandError whose Output carries
// the tool's standard error, or its standard output when standard error is
// empty.
func New(ctx context.Context, program string) (*PgConfig, error) {
	if program == "" {
		program = DefaultProgram
	}

	cmd := exec.CommandContext(ctx, program)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	desc := executor.Describe(cmd)

	slog.Debug("running pg_config", "command", desc)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &executor.LaunchError{Command: desc, Err: err}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(string(out))
		}
		return nil, &executor.CommandError{
			Command:  desc,
			ExitCode: exitErr.ExitCode(),
			Signaled: exitErr.ExitCode() < 0,
			Output:   msg,
		}
	}

	// Callers hand the path to tools running in other directories.
	path := cmd.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &PgConfig{path: path, cfg: Parse(string(out))}, nil
}

// FromMap returns a PgConfig backed by a copy of cfg with its keys lowercased.
// path is reported by Path and may be empty.
func FromMap(path string, cfg map[string]string) *PgConfig {
	lowered := make(map[string]string, len(cfg))
	for k, v := range cfg {
		lowered[strings.ToLower(k)] = v
	}
	return &PgConfig{path: path, cfg: lowered}
}

// Parse parses pg_config output. Each line is split on the first " = "; the
// key is lowercased and the value kept verbatim apart from a trailing
// carriage return. Lines without the delimiter are skipped.
func Parse(output string) map[string]string {
	cfg := make(map[string]string)
	for line := range strings.Lines(output) {
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		key, value, found := strings.Cut(line, " = ")
		if !found {
			continue
		}
		cfg[strings.ToLower(key)] = value
	}
	return cfg
}

// Get returns the value for key. Lookups are exact: keys are stored
// lowercase, so "BINDIR" is never found.
func (c *PgConfig) Get(key string) (string, bool) {
	v, ok := c.cfg[key]
	return v, ok
}

// Path returns the resolved path of the pg_config executable that produced
// the table, or "" when the table was not produced by running one.
func (c *PgConfig) Path() string {
	return c.path
}

// Len returns the number of keys.
func (c *PgConfig) Len() int {
	return len(c.cfg)
}

// Keys returns all keys in sorted order.
func (c *PgConfig) Keys() []string {
	return slices.Sorted(maps.Keys(c.cfg))
}

// All iterates over the key/value pairs in sorted key order.
func (c *PgConfig) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range c.Keys() {
			if !yield(k, c.cfg[k]) {
				return
			}
		}
	}
}
