// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"os/exec"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Describe renders cmd's argument list as a shell-quoted command line suitable
// for logs and error messages, so that users can copy and re-run it.
func Describe(cmd *exec.Cmd) string {
	args := cmd.Args
	if len(args) == 0 {
		args = []string{cmd.Path}
	}
	return Join(args)
}

// Join shell-quotes each argument and joins them with spaces.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(arg string) string {
	q, err := syntax.Quote(arg, syntax.LangBash)
	if err != nil {
		// Quote rejects strings bash cannot represent, such as NUL bytes.
		return strconv.Quote(arg)
	}
	return q
}
