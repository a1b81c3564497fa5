// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against embedded schemas and turns
// CUE errors into messages that name the offending field:
//
//	config.cue: registry.timeout: invalid value "soon" (out of bound =~"^...$")
package cueutil
