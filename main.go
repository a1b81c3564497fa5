// SPDX-License-Identifier: MPL-2.0

package main

import cmd "pgxnbuild/cmd/pgxnbuild"

func main() {
	cmd.Execute()
}
