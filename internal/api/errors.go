// SPDX-License-Identifier: MPL-2.0

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a mirror has no such resource.
	ErrNotFound = errors.New("not found")
	// ErrUnknownTemplate is the sentinel error wrapped by UnknownTemplateError.
	ErrUnknownTemplate = errors.New("unknown URI template")
	// ErrUnsupportedScheme is returned for base URLs other than file, http,
	// and https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrNoURLFile is returned when a download URL does not end in a file name.
	ErrNoURLFile = errors.New("no file name in URL")
	// ErrInvalidResponse is the sentinel error wrapped by ResponseError.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrUnsafeArchive is returned when a zip entry would be written outside
	// the target directory.
	ErrUnsafeArchive = errors.New("unsafe archive entry")
	// ErrEmptyArchive is returned when a zip archive has no entries.
	ErrEmptyArchive = errors.New("empty archive")
)

type (
	// UnknownTemplateError is returned when the mirror index lacks a template.
	UnknownTemplateError struct {
		Name string
	}

	// ResponseError reports an unusable response from the mirror.
	ResponseError struct {
		URL    string
		Status int
		Err    error
	}
)

// Error implements the error interface.
func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownTemplate, e.Name)
}

// Unwrap returns ErrUnknownTemplate so callers can use errors.Is for programmatic detection.
func (e *UnknownTemplateError) Unwrap() error { return ErrUnknownTemplate }

// Error implements the error interface.
func (e *ResponseError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s from %s: status %d: %v", ErrInvalidResponse, e.URL, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s from %s: unexpected status %d", ErrInvalidResponse, e.URL, e.Status)
	default:
		return fmt.Sprintf("%s from %s: %v", ErrInvalidResponse, e.URL, e.Err)
	}
}

// Unwrap returns ErrInvalidResponse and the underlying cause, if any.
func (e *ResponseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidResponse}
	}
	return []error{ErrInvalidResponse, e.Err}
}
