// SPDX-License-Identifier: MPL-2.0

// Package logging builds the charmbracelet/log logger that backs log/slog.
package logging

import (
	"io"
	stdlog "log"
	"log/slog"

	"github.com/charmbracelet/log"
)

// Prefix is printed before every log line.
const Prefix = "pgxnbuild"

// New returns a logger writing to w at Info level, or Debug level when
// verbose is set.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		ReportTimestamp: false,
		Level:           level,
	})
}

// Install makes l the handler of the default slog logger and returns a
// function restoring the previous default. slog.SetDefault also redirects the
// standard log package, so its output and flags are restored too.
func Install(l *log.Logger) (restore func()) {
	prev := slog.Default()
	prevOut, prevFlags := stdlog.Writer(), stdlog.Flags()
	slog.SetDefault(slog.New(l))
	return func() {
		slog.SetDefault(prev)
		stdlog.SetOutput(prevOut)
		stdlog.SetFlags(prevFlags)
	}
}
