// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	cargoManifest = "Cargo.toml"
	pgrxCrate     = "pgrx"
)

// cargoToml is the subset of a Cargo manifest inspected for detection.
type cargoToml struct {
	Dependencies map[string]any `toml:"dependencies"`
	Workspace    *struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
}

// Pgrx recognizes Rust extensions built with the pgrx framework. Its steps
// do not run any tools yet.
type Pgrx struct {
	base
}

// Kind returns KindPgrx.
func (*Pgrx) Kind() Kind { return KindPgrx }

// Configure is a no-op.
func (p *Pgrx) Configure(context.Context) error { return p.skip("configure") }

// Compile is a no-op.
func (p *Pgrx) Compile(context.Context) error { return p.skip("compile") }

// Test is a no-op.
func (p *Pgrx) Test(context.Context) error { return p.skip("test") }

// Install is a no-op.
func (p *Pgrx) Install(context.Context) error { return p.skip("install") }

func (p *Pgrx) skip(step string) error {
	slog.Debug("no pgrx command for step", "step", step, "dir", p.Dir())
	return nil
}

// pgrxConfidence rates dir for the pgrx pipeline: 0 without a Cargo.toml,
// 255 when it depends on pgrx directly or through workspace dependencies,
// and 1 otherwise, including when the manifest cannot be parsed.
func pgrxConfidence(dir string) uint8 {
	path := filepath.Join(dir, cargoManifest)
	data, err := os.ReadFile(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return 0
		}
		slog.Debug("cannot read Cargo manifest", "path", path, "error", err)
		return 1
	}

	var manifest cargoToml
	if err := toml.Unmarshal(data, &manifest); err != nil {
		slog.Debug("cannot parse Cargo manifest", "path", path, "error", err)
		return 1
	}
	if _, ok := manifest.Dependencies[pgrxCrate]; ok {
		return 255
	}
	if manifest.Workspace != nil {
		if _, ok := manifest.Workspace.Dependencies[pgrxCrate]; ok {
			return 255
		}
	}
	return 1
}
