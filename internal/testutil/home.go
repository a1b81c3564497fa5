// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// SetHomeDir points the user's home directory at dir for the rest of the
// test: USERPROFILE on Windows, HOME elsewhere. Like t.Setenv, it cannot be
// used in parallel tests.
func SetHomeDir(t *testing.T, dir string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", dir)
		return
	}
	t.Setenv("HOME", dir)
}
