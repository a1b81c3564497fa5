// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"log/slog"
	"os"
	"os/exec"

	"pgxnbuild/internal/executor"
	"pgxnbuild/internal/pgconfig"
)

const (
	// DefaultElevator is the privilege escalation program.
	DefaultElevator = "sudo"
	// DefaultMake is the make program used by the PGXS pipeline.
	DefaultMake = "make"

	// elevationDirKey is the pg_config key naming the directory whose
	// writability decides whether elevation is needed.
	elevationDirKey = "pkglibdir"
)

type (
	// Pipeline configures, compiles, tests, and installs the distribution in
	// its working directory. Steps may be called in any order and any number
	// of times; each call spawns fresh processes.
	Pipeline interface {
		// Kind returns the pipeline kind.
		Kind() Kind
		// Dir returns the source directory the pipeline builds.
		Dir() string
		// Configure prepares the source tree for building.
		Configure(ctx context.Context) error
		// Compile builds the extension.
		Compile(ctx context.Context) error
		// Test runs the extension's test suite.
		Test(ctx context.Context) error
		// Install installs the built extension into PostgreSQL.
		Install(ctx context.Context) error

		sealed()
	}

	// Options tune how pipelines run external tools.
	Options struct {
		// Sudo allows install steps to be elevated when the PostgreSQL
		// library directory is not writable.
		Sudo bool
		// Elevator is the program that elevates a command. Defaults to
		// DefaultElevator.
		Elevator string
		// Make is the make program. Defaults to DefaultMake.
		Make string
	}

	// base carries the state and helpers shared by every pipeline.
	base struct {
		exec *executor.Executor
		cfg  *pgconfig.PgConfig
		opts Options
	}
)

func (o Options) withDefaults() Options {
	if o.Elevator == "" {
		o.Elevator = DefaultElevator
	}
	if o.Make == "" {
		o.Make = DefaultMake
	}
	return o
}

func newBase(exec *executor.Executor, cfg *pgconfig.PgConfig, opts Options) base {
	if cfg == nil {
		cfg = pgconfig.FromMap("", nil)
	}
	return base{exec: exec, cfg: cfg, opts: opts.withDefaults()}
}

// Dir returns the directory commands run in.
func (b *base) Dir() string { return b.exec.Dir() }

func (b *base) sealed() {}

// maybeElevate returns a command that runs program with args. When wantSudo
// is true and pg_config reports a pkglibdir the current user cannot write
// to, the command is prefixed with the elevation program. The directory is
// probed on every call.
func (b *base) maybeElevate(ctx context.Context, wantSudo bool, program string, args ...string) *exec.Cmd {
	if wantSudo {
		if dir, ok := b.cfg.Get(elevationDirKey); ok && !IsWritable(dir) {
			slog.Debug("elevating command", "elevator", b.opts.Elevator, "program", program, "dir", dir)
			return exec.CommandContext(ctx, b.opts.Elevator, append([]string{program}, args...)...)
		}
	}
	return exec.CommandContext(ctx, program, args...)
}

// run executes program in the working directory, elevated per maybeElevate.
func (b *base) run(ctx context.Context, wantSudo bool, program string, args ...string) error {
	return b.exec.Execute(b.maybeElevate(ctx, wantSudo, program, args...))
}

// IsWritable reports whether the current user can create files in dir. It
// creates, writes, and removes a temporary file rather than inspecting
// permission bits, so ACLs, read-only mounts, and full disks are accounted
// for.
func IsWritable(dir string) bool {
	slog.Debug("testing write access", "dir", dir)
	f, err := os.CreateTemp(dir, "pgxn-*.test")
	if err != nil {
		return false
	}
	defer func() { _ = os.Remove(f.Name()) }()

	_, werr := f.WriteString("ok")
	cerr := f.Close()
	return werr == nil && cerr == nil
}
