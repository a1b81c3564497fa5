// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for command output. Tuned for dark terminals; lipgloss drops the
// colors when stdout is not a terminal or NO_COLOR is set.
const (
	colorTitle   = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorAccent  = lipgloss.Color("#3B82F6")
	colorFaint   = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle renders the program name in help output.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)

	// SubtitleStyle renders labels and help section headers.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)

	// SuccessStyle renders the check mark after a finished build.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorSuccess)

	// CmdStyle renders pipeline names and pg_config keys.
	CmdStyle = lipgloss.NewStyle().Foreground(colorAccent)

	// VerboseStyle renders detection scores of pipelines that lost.
	VerboseStyle = lipgloss.NewStyle().Foreground(colorFaint)
)
