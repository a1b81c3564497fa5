// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

var (
	// makefileNames are checked in order; the first that exists is scanned.
	makefileNames = []string{"GNUmakefile", "makefile", "Makefile"}

	// pgConfigVar matches an assignment to PG_CONFIG.
	pgConfigVar = regexp.MustCompile(`^PG_CONFIG\s*[:?]?=\s*`)
	// pgxsVar matches an assignment to one of the PGXS build variables.
	pgxsVar = regexp.MustCompile(`^(MODULE(?:S|_big)|PROGRAM|EXTENSION|DATA(?:_built)?)\s*[:?]?=`)
)

// PGXS confidence levels.
const (
	pgxsFull     uint8 = 255
	pgxsProbable uint8 = 200
	pgxsWeak     uint8 = 127
)

// Pgxs builds extensions with PostgreSQL's PGXS make infrastructure.
type Pgxs struct {
	base
}

// Kind returns KindPGXS.
func (*Pgxs) Kind() Kind { return KindPGXS }

// Configure runs ./configure when the source tree has one. It is never
// elevated.
func (p *Pgxs) Configure(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(p.Dir(), "configure")); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("cannot stat configure script", "error", err)
		}
		return nil
	}
	slog.Info("running configure")
	return p.run(ctx, false, "."+string(filepath.Separator)+"configure")
}

// Compile runs `make all`. It is never elevated.
func (p *Pgxs) Compile(ctx context.Context) error {
	slog.Info("building extension")
	return p.run(ctx, false, p.opts.Make, p.makeArgs("all")...)
}

// Test runs `make installcheck` as the invoking user.
func (p *Pgxs) Test(ctx context.Context) error {
	slog.Info("testing extension")
	return p.run(ctx, false, p.opts.Make, p.makeArgs("installcheck")...)
}

// Install runs `make install`, elevated when Options.Sudo is set and the
// PostgreSQL library directory is not writable.
func (p *Pgxs) Install(ctx context.Context) error {
	slog.Info("installing extension")
	return p.run(ctx, p.opts.Sudo, p.opts.Make, p.makeArgs("install")...)
}

// makeArgs returns the make arguments for target, pinning PG_CONFIG to the
// probed executable when its path is known.
func (p *Pgxs) makeArgs(target string) []string {
	if path := p.cfg.Path(); path != "" {
		return []string{target, "PG_CONFIG=" + path}
	}
	return []string{target}
}

// pgxsConfidence rates dir for the PGXS pipeline:
//
//   - 0 when it has no makefile
//   - 255 when the makefile assigns PG_CONFIG
//   - 200 when it assigns MODULES, MODULE_big, PROGRAM, EXTENSION, DATA, or DATA_built
//   - 127 otherwise
func pgxsConfidence(dir string) uint8 {
	path, ok := findMakefile(dir)
	if !ok {
		return 0
	}

	score := pgxsWeak
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("cannot read makefile", "path", path, "error", err)
		return score
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if pgConfigVar.Match(line) {
			return pgxsFull
		}
		if pgxsVar.Match(line) {
			score = pgxsProbable
		}
	}
	if err := sc.Err(); err != nil {
		slog.Debug("stopped reading makefile", "path", path, "error", err)
	}
	return score
}

func findMakefile(dir string) (string, bool) {
	for _, name := range makefileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
