// SPDX-License-Identifier: MPL-2.0

// Package api is a client for PGXN mirrors and the PGXN API.
//
// A mirror publishes an index.json document mapping resource names ("dist",
// "meta", "download", ...) to URI templates such as
// "/dist/{dist}/{version}/META.json". New loads those templates once; every
// later request expands a template relative to the mirror's base URL.
//
// The package is organized into four concerns:
//   - client.go: Client construction, template expansion, and fetching over
//     http(s) or from file: mirrors
//   - dist.go: the release list of a distribution and latest-version selection
//   - download.go: release metadata and verified archive downloads
//   - unpack.go: zip extraction guarded against path traversal
package api
