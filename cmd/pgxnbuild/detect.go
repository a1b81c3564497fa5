// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pgxnbuild/internal/pipeline"
)

func newDetectCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [DIR]",
		Short: "Show how confident each build pipeline is about DIR",
		Long: `Score every known build pipeline against DIR (default: the current
directory) and report the winner. Scores range from 0, cannot build, to 255,
certain. Ties go to the pipeline listed first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if _, err := app.settings(cmd); err != nil {
				return app.fail(cmd, err, "load configuration", "")
			}

			winner, detectErr := pipeline.Detect(dir)
			for _, s := range pipeline.Scores(dir) {
				line := fmt.Sprintf("%-6s %3d", s.Kind, s.Confidence)
				if detectErr == nil && s.Kind == winner {
					line = CmdStyle.Render(line)
				} else {
					line = VerboseStyle.Render(line)
				}
				fmt.Fprintln(app.stdout, line)
			}
			if detectErr != nil {
				return app.fail(cmd, detectErr, "detect build pipeline", dir)
			}

			fmt.Fprintf(app.stdout, "\n%s %s\n", SubtitleStyle.Render("pipeline:"), CmdStyle.Render(winner.String()))
			return nil
		},
	}
}
