// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"log"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := New(&buf, tt.verbose)
			l.Debug("probing", "program", "pg_config")
			l.Info("building extension", "dir", "/src/pair")

			out := buf.String()
			if got := strings.Contains(out, "probing"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v: %q", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "building extension") || !strings.Contains(out, "dir=/src/pair") {
				t.Errorf("info line missing: %q", out)
			}
			if !strings.Contains(out, Prefix) {
				t.Errorf("prefix missing: %q", out)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	var stdOut bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&stdOut)
	log.SetFlags(log.Lmsgprefix)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})

	var buf bytes.Buffer
	restore := Install(New(&buf, false))

	slog.Info("installing extension", "pipeline", "pgxs")
	restore()
	slog.Info("after restore")

	out := buf.String()
	if !strings.Contains(out, "installing extension") || !strings.Contains(out, "pipeline=pgxs") {
		t.Errorf("slog output not routed through the logger: %q", out)
	}
	if strings.Contains(out, "after restore") {
		t.Error("restore did not reinstate the previous default")
	}
	if !strings.Contains(stdOut.String(), "after restore") {
		t.Errorf("log output after restore = %q, want the previous writer", stdOut.String())
	}
	if log.Writer() != &stdOut || log.Flags() != log.Lmsgprefix {
		t.Error("restore did not reinstate the log package's writer and flags")
	}
}
