// SPDX-License-Identifier: MPL-2.0

package pgxnmeta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultMetaSpec is assumed when metadata does not declare its meta-spec
// version. The PGXN v1 API strips the field from release metadata.
const DefaultMetaSpec = "1.0.0"

var (
	// ErrInvalidMeta is the sentinel error wrapped by InvalidMetaError.
	ErrInvalidMeta = errors.New("invalid release metadata")
)

type (
	// Release is immutable metadata for one released version of a
	// distribution.
	Release struct {
		name     string
		version  string
		abstract string
		metaSpec string
		status   string
		pipeline string
		digests  Digests
	}

	// InvalidMetaError is returned when metadata cannot be decoded or lacks a
	// required field.
	InvalidMetaError struct {
		// Field is the offending field, or "" when the document itself is
		// malformed.
		Field string
		Err   error
	}

	// rawRelease mirrors the JSON fields read from META.json.
	rawRelease struct {
		Name          string          `json:"name"`
		Version       string          `json:"version"`
		Abstract      string          `json:"abstract"`
		MetaSpec      json.RawMessage `json:"meta-spec"`
		ReleaseStatus string          `json:"release_status"`
		Dependencies  *struct {
			Pipeline string `json:"pipeline"`
		} `json:"dependencies"`
		SHA1    string   `json:"sha1"`
		SHA256  string   `json:"sha256"`
		SHA512  string   `json:"sha512"`
		Digests *Digests `json:"digests"`
	}
)

// Error implements the error interface.
func (e *InvalidMetaError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrInvalidMeta, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: missing %s", ErrInvalidMeta, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", ErrInvalidMeta, e.Err)
	default:
		return ErrInvalidMeta.Error()
	}
}

// Unwrap returns ErrInvalidMeta and the underlying cause, if any.
func (e *InvalidMetaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidMeta}
	}
	return []error{ErrInvalidMeta, e.Err}
}

// Parse decodes META.json content.
func Parse(data []byte) (*Release, error) {
	var raw rawRelease
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, &InvalidMetaError{Err: err}
	}

	if raw.Name == "" {
		return nil, &InvalidMetaError{Field: "name"}
	}
	if raw.Version == "" {
		return nil, &InvalidMetaError{Field: "version"}
	}
	spec, err := parseMetaSpec(raw.MetaSpec)
	if err != nil {
		return nil, &InvalidMetaError{Field: "meta-spec", Err: err}
	}

	rel := &Release{
		name:     raw.Name,
		version:  raw.Version,
		abstract: raw.Abstract,
		metaSpec: spec,
		status:   raw.ReleaseStatus,
		digests:  Digests{SHA1: raw.SHA1, SHA256: raw.SHA256, SHA512: raw.SHA512},
	}
	if raw.Digests != nil {
		rel.digests = rel.digests.merge(*raw.Digests)
	}
	if raw.Dependencies != nil {
		rel.pipeline = raw.Dependencies.Pipeline
	}
	return rel, nil
}

// Load decodes META.json content read from r.
func Load(r io.Reader) (*Release, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading release metadata: %w", err)
	}
	return Parse(data)
}

// LoadFile decodes the META.json file at path.
func LoadFile(path string) (*Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading release metadata: %w", err)
	}
	rel, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rel, nil
}

// New returns metadata for a release that has no META.json, such as a local
// source tree. pipeline may be "" to request detection.
func New(name, version, pipeline string) *Release {
	return &Release{name: name, version: version, metaSpec: DefaultMetaSpec, pipeline: pipeline}
}

// Name returns the distribution name.
func (r *Release) Name() string { return r.name }

// Version returns the release version.
func (r *Release) Version() string { return r.version }

// Abstract returns the one-line description of the distribution.
func (r *Release) Abstract() string { return r.abstract }

// MetaSpec returns the metadata format version.
func (r *Release) MetaSpec() string { return r.metaSpec }

// Status returns the release status (stable, testing, or unstable), or "".
func (r *Release) Status() string { return r.status }

// Pipeline returns the explicitly declared build pipeline, if any.
func (r *Release) Pipeline() (string, bool) {
	return r.pipeline, r.pipeline != ""
}

// Digests returns the archive digests recorded for the release.
func (r *Release) Digests() Digests { return r.digests }

// parseMetaSpec extracts the version from a meta-spec field, which is an
// object with a "version" key. A missing field yields DefaultMetaSpec.
func parseMetaSpec(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultMetaSpec, nil
	}
	var spec struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &spec); err != nil {
		return "", err
	}
	if spec.Version == "" {
		return "", errors.New("no version")
	}
	return spec.Version, nil
}
