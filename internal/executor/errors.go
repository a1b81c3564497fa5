// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	// ErrLaunch is the sentinel error wrapped by LaunchError.
	ErrLaunch = errors.New("launch failed")
	// ErrCommand is the sentinel error wrapped by CommandError.
	ErrCommand = errors.New("command failed")
	// ErrStream is the sentinel error wrapped by StreamError.
	ErrStream = errors.New("stream failed")
)

type (
	// LaunchError is returned when an external tool cannot be spawned, for
	// example because the executable does not exist or is not executable.
	LaunchError struct {
		// Command is the shell-quoted command line that was attempted.
		Command string
		// Err is the underlying OS error.
		Err error
	}

	// CommandError is returned when an external tool ran but did not succeed.
	CommandError struct {
		// Command is the shell-quoted command line that failed.
		Command string
		// ExitCode is the process exit status, or -1 when the process did not
		// exit normally.
		ExitCode int
		// Signaled is true when the process was terminated by a signal.
		Signaled bool
		// State is the process state description reported by the OS
		// (e.g. "signal: killed"). Only set when Signaled is true.
		State string
		// Output is diagnostic output captured from the tool, if any.
		Output string
		// Err is an underlying error other than a plain exit status, such as
		// context cancellation.
		Err error
	}

	// StreamError is returned when reading a child's stdout or stderr fails.
	StreamError struct {
		// Stream is "stdout" or "stderr".
		Stream string
		// Err is the underlying I/O error.
		Err error
	}
)

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("cannot launch %s: %s", e.Command, e.Kind())
}

// Unwrap returns ErrLaunch and the underlying OS error.
func (e *LaunchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLaunch}
	}
	return []error{ErrLaunch, e.Err}
}

// Kind classifies the underlying OS error.
func (e *LaunchError) Kind() string {
	switch {
	case e.Err == nil:
		return "unknown error"
	case errors.Is(e.Err, exec.ErrNotFound), errors.Is(e.Err, fs.ErrNotExist):
		return "entity not found"
	case errors.Is(e.Err, fs.ErrPermission):
		return "permission denied"
	default:
		return e.Err.Error()
	}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	var msg strings.Builder
	msg.WriteString("command failed: ")
	msg.WriteString(e.Command)
	msg.WriteString(": ")

	switch {
	case e.Output != "":
		msg.WriteString(e.Output)
	case e.Signaled:
		msg.WriteString("process terminated by signal")
		if e.State != "" {
			msg.WriteString(" (" + e.State + ")")
		}
	case e.Err != nil:
		msg.WriteString(e.Err.Error())
	default:
		fmt.Fprintf(&msg, "exited with status code: %d", e.ExitCode)
	}

	return msg.String()
}

// Unwrap returns ErrCommand and the underlying cause, if any.
func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCommand}
	}
	return []error{ErrCommand, e.Err}
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Stream, e.Err)
}

// Unwrap returns ErrStream and the underlying I/O error.
func (e *StreamError) Unwrap() []error {
	return []error{ErrStream, e.Err}
}

// commandError converts an error returned by (*exec.Cmd).Wait into a
// *CommandError for the command described by desc.
func commandError(desc string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return &CommandError{Command: desc, ExitCode: code}
		}
		return &CommandError{
			Command:  desc,
			ExitCode: -1,
			Signaled: true,
			State:    exitErr.String(),
		}
	}
	return &CommandError{Command: desc, ExitCode: -1, Err: err}
}
