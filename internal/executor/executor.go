// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

type (
	// Executor runs commands in a fixed working directory, streaming their
	// output to a pair of line sinks.
	Executor struct {
		dir string
		out LineWriter
		err LineWriter
	}

	// Color selects which output streams are styled.
	Color struct {
		Stdout bool
		Stderr bool
	}

	// output is one line of child output tagged with the stream it came from.
	output struct {
		line  string
		isErr bool
	}
)

// New creates an Executor rooted at dir that writes child stdout lines to out
// and child stderr lines to errOut. With color.Stdout set, stdout lines are
// rendered dim grey; with color.Stderr set, stderr lines are rendered red.
func New(dir string, out, errOut io.Writer, color Color) *Executor {
	outSink, errSink := NewLineWriter(out), NewLineWriter(errOut)
	if color.Stdout {
		outSink = NewColorLine(out, StdoutStyle(out))
	}
	if color.Stderr {
		errSink = NewColorLine(errOut, StderrStyle(errOut))
	}
	return NewWithSinks(dir, outSink, errSink)
}

// NewWithSinks creates an Executor with caller-supplied line sinks.
func NewWithSinks(dir string, out, errOut LineWriter) *Executor {
	return &Executor{dir: dir, out: out, err: errOut}
}

// Dir returns the working directory commands are run in.
func (e *Executor) Dir() string {
	return e.dir
}

// Execute runs cmd in the Executor's directory and blocks until the process
// exits and both of its output streams have been fully consumed. Each line of
// output is forwarded to the matching sink as soon as it is read.
//
// Execute overrides cmd.Dir, cmd.Stdout, and cmd.Stderr. The command's
// environment and context are left as configured by the caller.
func (e *Executor) Execute(cmd *exec.Cmd) error {
	cmd.Dir = e.dir
	desc := Describe(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &LaunchError{Command: desc, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &LaunchError{Command: desc, Err: err}
	}

	slog.Debug("executing", "command", desc, "dir", e.dir)
	if err := cmd.Start(); err != nil {
		return &LaunchError{Command: desc, Err: err}
	}

	lines := make(chan output)
	var g errgroup.Group
	g.Go(func() error { return readLines("stdout", stdout, false, lines) })
	g.Go(func() error { return readLines("stderr", stderr, true, lines) })

	readErr := make(chan error, 1)
	go func() {
		readErr <- g.Wait()
		close(lines)
	}()

	// Keep draining after a sink fails so that the child never blocks on a
	// full pipe.
	var writeErr error
	for o := range lines {
		sink := e.out
		if o.isErr {
			sink = e.err
		}
		if err := sink.WriteLine(o.line); err != nil && writeErr == nil {
			writeErr = err
		}
	}

	streamErr := <-readErr
	waitErr := cmd.Wait()

	switch {
	case streamErr != nil:
		return streamErr
	case waitErr != nil:
		return commandError(desc, waitErr)
	case writeErr != nil:
		return fmt.Errorf("writing output of %s: %w", desc, writeErr)
	}

	slog.Debug("command finished", "command", desc)
	return nil
}

// readLines reads r line by line and sends each line, stripped of its "\n" or
// "\r\n" terminator, to lines. A final line without a terminator is sent too.
func readLines(name string, r io.Reader, isErr bool, lines chan<- output) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			lines <- output{line: line, isErr: isErr}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		// Drain whatever is left so the child can exit.
		_, _ = io.Copy(io.Discard, r)
		return &StreamError{Stream: name, Err: err}
	}
}
