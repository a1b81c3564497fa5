// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPipeline is the sentinel error wrapped by UnknownPipelineError.
	ErrUnknownPipeline = errors.New("unknown build pipeline")
	// ErrNoPipeline is returned when no pipeline has any confidence that it
	// can build a directory.
	ErrNoPipeline = errors.New("cannot detect build pipeline and none specified")
	// ErrConfiguration is the sentinel error wrapped by ConfigurationError.
	ErrConfiguration = errors.New("invalid build configuration")
)

type (
	// UnknownPipelineError is returned when a pipeline is requested by a name
	// that matches no known Kind.
	UnknownPipelineError struct {
		Name string
	}

	// ConfigurationError reports a build setup problem, such as a source
	// directory that does not exist.
	ConfigurationError struct {
		Reason string
		Err    error
	}
)

// Error implements the error interface.
func (e *UnknownPipelineError) Error() string {
	return fmt.Sprintf("unknown build pipeline `%s`", e.Name)
}

// Unwrap returns ErrUnknownPipeline so callers can use errors.Is for programmatic detection.
func (e *UnknownPipelineError) Unwrap() error { return ErrUnknownPipeline }

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrConfiguration, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

// Unwrap returns ErrConfiguration and the underlying cause, if any.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}
