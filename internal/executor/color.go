// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"os"

	"golang.org/x/term"
)

// SupportsColor reports whether colored output should be written to f.
//
// NO_COLOR disables color and FORCE_COLOR or CLICOLOR_FORCE enable it
// regardless of the terminal. Otherwise color is used when f is a terminal
// and TERM is not "dumb".
func SupportsColor(f *os.File) bool {
	if v, ok := os.LookupEnv("NO_COLOR"); ok && v != "" && v != "0" {
		return false
	}
	for _, name := range []string{"FORCE_COLOR", "CLICOLOR_FORCE"} {
		if v, ok := os.LookupEnv(name); ok && v != "" && v != "0" {
			return true
		}
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
