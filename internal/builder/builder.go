// SPDX-License-Identifier: MPL-2.0

// Package builder builds one PGXN release in a source directory.
//
// A Builder selects its pipeline once, at construction, and then forwards
// each lifecycle step to it. It imposes no ordering on the steps; callers
// typically run Configure, Compile, optionally Test, and Install.
package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"pgxnbuild/internal/executor"
	"pgxnbuild/internal/pgconfig"
	"pgxnbuild/internal/pipeline"
	"pgxnbuild/pkg/pgxnmeta"
)

type (
	// Options configure a Builder.
	Options struct {
		// Stdout receives the standard output of build tools. Defaults to
		// os.Stdout.
		Stdout io.Writer
		// Stderr receives the standard error of build tools. Defaults to
		// os.Stderr.
		Stderr io.Writer
		// Color styles tool output per stream: stdout dim grey, stderr red.
		Color executor.Color
		// Pipeline tunes how tools are run.
		Pipeline pipeline.Options
	}

	// Builder builds a single release.
	Builder struct {
		pipe pipeline.Pipeline
		meta *pgxnmeta.Release
	}
)

// New creates a Builder for the release unpacked in dir. The pipeline is the
// one declared by rel when present, otherwise the one detected from dir's
// contents.
func New(dir string, rel *pgxnmeta.Release, cfg *pgconfig.PgConfig, opts Options) (*Builder, error) {
	if rel == nil {
		return nil, &pipeline.ConfigurationError{Reason: "no release metadata"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &pipeline.ConfigurationError{Reason: "source directory " + dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &pipeline.ConfigurationError{Reason: dir + " is not a directory"}
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	exec := executor.New(dir, stdout, stderr, opts.Color)

	name, _ := rel.Pipeline()
	pipe, err := pipeline.Select(name, exec, cfg, opts.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("%s-%s: %w", rel.Name(), rel.Version(), err)
	}

	slog.Debug("builder ready", "release", rel.Name(), "version", rel.Version(), "pipeline", pipe.Kind())
	return &Builder{pipe: pipe, meta: rel}, nil
}

// Release returns the release being built.
func (b *Builder) Release() *pgxnmeta.Release { return b.meta }

// Pipeline returns the kind of the selected pipeline.
func (b *Builder) Pipeline() pipeline.Kind { return b.pipe.Kind() }

// Dir returns the source directory.
func (b *Builder) Dir() string { return b.pipe.Dir() }

// Configure prepares the release for building.
func (b *Builder) Configure(ctx context.Context) error { return b.pipe.Configure(ctx) }

// Compile builds the release.
func (b *Builder) Compile(ctx context.Context) error { return b.pipe.Compile(ctx) }

// Test runs the release's tests.
func (b *Builder) Test(ctx context.Context) error { return b.pipe.Test(ctx) }

// Install installs the release.
func (b *Builder) Install(ctx context.Context) error { return b.pipe.Install(ctx) }
