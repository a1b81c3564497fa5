// SPDX-License-Identifier: MPL-2.0

package pgxnmeta

import (
	"crypto/sha1" //nolint:gosec // PGXN v1 publishes SHA-1 digests.
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

var (
	// ErrNoDigest is returned when a release carries no digest to verify.
	ErrNoDigest = errors.New("release has no digest")
	// ErrDigestMismatch is the sentinel error wrapped by DigestMismatchError.
	ErrDigestMismatch = errors.New("digest mismatch")
)

type (
	// Digests are hex-encoded checksums of a release archive. Empty fields are
	// unknown.
	Digests struct {
		SHA1   string `json:"sha1,omitempty"`
		SHA256 string `json:"sha256,omitempty"`
		SHA512 string `json:"sha512,omitempty"`
	}

	// DigestMismatchError is returned when a file does not match a digest.
	DigestMismatchError struct {
		Path      string
		Algorithm string
		Want      string
		Got       string
	}
)

// Error implements the error interface.
func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("%s %s: %s is %s, want %s", ErrDigestMismatch, e.Path, e.Algorithm, e.Got, e.Want)
}

// Unwrap returns ErrDigestMismatch so callers can use errors.Is for programmatic detection.
func (e *DigestMismatchError) Unwrap() error { return ErrDigestMismatch }

// IsZero reports whether no digest is known.
func (d Digests) IsZero() bool {
	return d.SHA1 == "" && d.SHA256 == "" && d.SHA512 == ""
}

// Validate checks the file at path against every known digest in one pass.
// It returns ErrNoDigest when there is nothing to check.
func (d Digests) Validate(path string) error {
	if d.IsZero() {
		return ErrNoDigest
	}

	type check struct {
		alg  string
		want string
		h    hash.Hash
	}
	var checks []check
	if d.SHA1 != "" {
		checks = append(checks, check{"sha1", d.SHA1, sha1.New()}) //nolint:gosec // see import
	}
	if d.SHA256 != "" {
		checks = append(checks, check{"sha256", d.SHA256, sha256.New()})
	}
	if d.SHA512 != "" {
		checks = append(checks, check{"sha512", d.SHA512, sha512.New()})
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	writers := make([]io.Writer, len(checks))
	for i, c := range checks {
		writers[i] = c.h
	}
	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}

	for _, c := range checks {
		got := hex.EncodeToString(c.h.Sum(nil))
		if !strings.EqualFold(got, c.want) {
			return &DigestMismatchError{Path: path, Algorithm: c.alg, Want: c.want, Got: got}
		}
	}
	return nil
}

// merge fills empty fields of d from other.
func (d Digests) merge(other Digests) Digests {
	if d.SHA1 == "" {
		d.SHA1 = other.SHA1
	}
	if d.SHA256 == "" {
		d.SHA256 = other.SHA256
	}
	if d.SHA512 == "" {
		d.SHA512 = other.SHA512
	}
	return d
}
