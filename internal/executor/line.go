// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	// stdoutColor is the 256-color palette index for child stdout (grey).
	stdoutColor = lipgloss.Color("244")
	// stderrColor is the basic ANSI red used for child stderr.
	stderrColor = lipgloss.Color("1")
)

type (
	// LineWriter receives complete lines of child output, without their
	// trailing line terminators.
	LineWriter interface {
		WriteLine(line string) error
	}

	// plainLine writes each line unmodified followed by a newline.
	plainLine struct {
		w io.Writer
	}

	// ColorLine writes each line rendered with a lipgloss style.
	ColorLine struct {
		w     io.Writer
		style lipgloss.Style
	}
)

// NewLineWriter returns a LineWriter that writes lines to w as-is.
func NewLineWriter(w io.Writer) LineWriter {
	return &plainLine{w: w}
}

// WriteLine writes line and a newline to the underlying writer.
func (p *plainLine) WriteLine(line string) error {
	_, err := io.WriteString(p.w, line+"\n")
	return err
}

// NewColorLine returns a LineWriter that styles every line with style.
func NewColorLine(w io.Writer, style lipgloss.Style) *ColorLine {
	return &ColorLine{w: w, style: style}
}

// WriteLine writes the styled line and a newline to the underlying writer.
func (c *ColorLine) WriteLine(line string) error {
	_, err := io.WriteString(c.w, c.style.Render(line)+"\n")
	return err
}

// StdoutStyle returns the dimmed grey style applied to child stdout lines
// written to w. Colors are always emitted; callers decide whether color is
// wanted before choosing a ColorLine.
func StdoutStyle(w io.Writer) lipgloss.Style {
	return forcedRenderer(w).NewStyle().
		Faint(true).
		Foreground(stdoutColor).
		TabWidth(lipgloss.NoTabConversion)
}

// StderrStyle returns the red style applied to child stderr lines written to w.
func StderrStyle(w io.Writer) lipgloss.Style {
	return forcedRenderer(w).NewStyle().
		Foreground(stderrColor).
		TabWidth(lipgloss.NoTabConversion)
}

// forcedRenderer returns a renderer for w that does not sniff the terminal.
func forcedRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return r
}
