// SPDX-License-Identifier: MPL-2.0

// Package config handles pgxnbuild configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/pgxnbuild/config.cue (~/.config
// when unset) on Linux, ~/Library/Application Support/pgxnbuild/config.cue on
// macOS and %APPDATA%\pgxnbuild\config.cue on Windows, or from an explicit
// path. Files are validated against an embedded CUE schema before being merged
// over the defaults. PGXNBUILD_* environment variables override both, with
// dots in key names replaced by underscores (PGXNBUILD_REGISTRY_URL).
package config
