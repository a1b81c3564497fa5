// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pgxnbuild/internal/api"
	"pgxnbuild/internal/config"
	"pgxnbuild/internal/executor"
	"pgxnbuild/internal/issue"
	"pgxnbuild/internal/pipeline"
	"pgxnbuild/pkg/pgxnmeta"
)

// fail turns err into an ExitError after printing its suggestions and the
// matching issue catalog entry to stderr. fang prints the one-line message.
func (a *App) fail(cmd *cobra.Command, err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		ae = issue.Wrap(err, operation, resource)
	}

	// Commands that never load settings still honour --verbose.
	if details := ae.Details(a.verbose || a.flags.verbose); details != "" {
		fmt.Fprintln(a.stderr, strings.TrimPrefix(details, "\n"))
	}
	if id, ok := classifyError(err); ok {
		a.renderIssue(id)
	}
	return &ExitError{Code: exitCode(err), Err: ae}
}

func (a *App) renderIssue(id issue.Id) {
	style := "notty"
	if a.color.Stderr {
		style = "dark"
	}
	rendered, err := issue.Get(id).Render(style)
	if err != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", err)
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// classifyError maps an error to the issue catalog entry that best explains
// it. A failing pg_config is also a failing command, so it is checked first.
func classifyError(err error) (issue.Id, bool) {
	var (
		launch  *executor.LaunchError
		command *executor.CommandError
	)
	isLaunch := errors.As(err, &launch)
	isCommand := errors.As(err, &command)

	switch {
	case err == nil:
		return 0, false
	case errors.Is(err, config.ErrConfigLoad), errors.Is(err, config.ErrInvalidColorMode):
		return issue.ConfigLoadFailedId, true
	case isLaunch && isPgConfig(launch.Command):
		return issue.PgConfigNotFoundId, true
	case isCommand && isPgConfig(command.Command):
		return issue.PgConfigFailedId, true
	case errors.Is(err, pipeline.ErrNoPipeline):
		return issue.NoPipelineId, true
	case errors.Is(err, pipeline.ErrUnknownPipeline):
		return issue.UnknownPipelineId, true
	case errors.Is(err, pgxnmeta.ErrDigestMismatch), errors.Is(err, pgxnmeta.ErrNoDigest):
		return issue.DigestMismatchId, true
	case errors.Is(err, api.ErrUnsafeArchive):
		return issue.UnsafeArchiveId, true
	case errors.Is(err, api.ErrNotFound):
		return issue.DistributionNotFoundId, true
	case errors.Is(err, pgxnmeta.ErrInvalidMeta):
		return issue.InvalidMetaId, true
	case isLaunch && errors.Is(launch.Err, fs.ErrPermission):
		return issue.PermissionDeniedId, true
	case isLaunch:
		return issue.CommandNotFoundId, true
	case isCommand:
		return issue.BuildFailedId, true
	}
	return 0, false
}

// exitCode propagates the exit status of a failed build command.
func exitCode(err error) int {
	var command *executor.CommandError
	if errors.As(err, &command) && command.ExitCode > 0 {
		return command.ExitCode
	}
	return 1
}

// isPgConfig reports whether a described command line runs pg_config.
func isPgConfig(command string) bool {
	program, _, _ := strings.Cut(command, " ")
	if rest, ok := strings.CutPrefix(command, "'"); ok {
		program, _, _ = strings.Cut(rest, "'")
	}
	return strings.HasPrefix(filepath.Base(strings.Trim(program, `'"`)), "pg_config")
}
