// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides file helpers (MustMkdirAll, MustWriteFile, MustCreate) it installs
// fake external commands (FakeCommand) that stand in for pg_config, make and
// sudo, and records how they were invoked.
package testutil
