// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is an error with context for user-facing error messages.
// It records what was attempted, what it was attempted on, and hints for
// fixing it.
//
//	err := issue.Wrap(buildErr, "build extension", "./pair-0.1.7").
//		WithSuggestion("Run 'pgxnbuild detect' to see the chosen pipeline")
type ActionableError struct {
	// Operation is a verb phrase such as "build extension" or "fetch release".
	Operation string

	// Resource identifies the directory, file or distribution involved (optional).
	Resource string

	// Suggestions are hints on how to fix the issue (optional).
	Suggestions []string

	// Cause is the underlying error (optional).
	Cause error
}

// Wrap wraps err with operation and resource context. It returns nil for a
// nil err.
func Wrap(err error, operation, resource string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{
		Operation: operation,
		Resource:  resource,
		Cause:     err,
	}
}

// WithSuggestion appends a hint and returns e.
func (e *ActionableError) WithSuggestion(s ...string) *ActionableError {
	e.Suggestions = append(e.Suggestions, s...)
	return e
}

// Error returns the concise message used in non-verbose output.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(" ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the underlying cause for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the message followed by Details:
//
//	failed to <operation> <resource>: <cause>
//
//	  • <suggestion>
//
//	Error chain:
//	  1. <cause>
//	  2. <wrapped cause>
func (e *ActionableError) Format(verbose bool) string {
	return e.Error() + e.Details(verbose)
}

// Details renders the suggestions and, when verbose is set, the full error
// chain. It is empty when there is nothing to add to Error.
func (e *ActionableError) Details(verbose bool) string {
	var msg strings.Builder

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, s := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = unwrapOne(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}
	return msg.String()
}

// unwrapOne follows the first branch of multi-error wrappers so that typed
// errors such as executor.CommandError still show their cause.
func unwrapOne(err error) error {
	if next := errors.Unwrap(err); next != nil {
		return next
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		errs := multi.Unwrap()
		// The first element is the package sentinel; the cause follows it.
		if len(errs) > 1 {
			return errs[len(errs)-1]
		}
	}
	return nil
}
