// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pgxnbuild/internal/pgconfig"
)

func newPgConfigCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pg-config [NAME...]",
		Short: "Print the settings reported by pg_config",
		Long: `Run pg_config and print its settings. With NAMEs, print only the value of
each named setting, one per line. Names are case-insensitive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.settings(cmd)
			if err != nil {
				return app.fail(cmd, err, "load configuration", "")
			}
			pg, err := pgconfig.New(cmd.Context(), cfg.PgConfig)
			if err != nil {
				return app.fail(cmd, err, "probe", cfg.PgConfig)
			}

			if len(args) == 0 {
				for key, val := range pg.All() {
					fmt.Fprintf(app.stdout, "%s = %s\n", CmdStyle.Render(strings.ToUpper(key)), val)
				}
				return nil
			}
			for _, name := range args {
				val, ok := pg.Get(strings.ToLower(name))
				if !ok {
					return app.fail(cmd, fmt.Errorf("pg_config reports no %s", strings.ToUpper(name)), "probe", cfg.PgConfig)
				}
				fmt.Fprintln(app.stdout, val)
			}
			return nil
		},
	}
}
