// SPDX-License-Identifier: MPL-2.0

// Package pgxnmeta loads PGXN release metadata (META.json).
//
// Both the v1 and v2 metadata formats are accepted. Only the fields a build
// needs are exposed: the distribution name and version, the explicitly
// declared build pipeline (v2 "dependencies.pipeline"), and the archive
// digests used to verify a download.
package pgxnmeta
