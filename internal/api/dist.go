// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

type (
	// Dist is the release history of a distribution, as served by the
	// "dist" template.
	Dist struct {
		Name     string   `json:"name"`
		Releases Releases `json:"releases"`
	}

	// Releases groups a distribution's releases by status.
	Releases struct {
		Stable   []DistRelease `json:"stable,omitempty"`
		Testing  []DistRelease `json:"testing,omitempty"`
		Unstable []DistRelease `json:"unstable,omitempty"`
	}

	// DistRelease is one released version.
	DistRelease struct {
		Version string    `json:"version"`
		Date    time.Time `json:"date"`
	}
)

// Dist fetches the release history of the distribution called name.
func (c *Client) Dist(ctx context.Context, name string) (*Dist, error) {
	u, err := c.URLFor("dist", map[string]string{"dist": name})
	if err != nil {
		return nil, err
	}
	var d Dist
	if err := c.fetchJSON(ctx, u, &d); err != nil {
		return nil, fmt.Errorf("fetching distribution %s: %w", name, err)
	}
	return &d, nil
}

// LatestStable returns the highest stable version by semantic version
// precedence. Versions that are not valid semantic versions sort last.
func (d *Dist) LatestStable() (string, bool) {
	if len(d.Releases.Stable) == 0 {
		return "", false
	}
	versions := make([]string, 0, len(d.Releases.Stable))
	for _, r := range d.Releases.Stable {
		versions = append(versions, r.Version)
	}
	slices.SortStableFunc(versions, func(a, b string) int {
		return semver.Compare(normalizeVersion(b), normalizeVersion(a))
	})
	return versions[0], true
}

// Has reports whether version was released under any status.
func (d *Dist) Has(version string) bool {
	for _, group := range [][]DistRelease{d.Releases.Stable, d.Releases.Testing, d.Releases.Unstable} {
		for _, r := range group {
			if r.Version == version {
				return true
			}
		}
	}
	return false
}

// normalizeVersion adds the "v" prefix expected by x/mod/semver.
func normalizeVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
