// SPDX-License-Identifier: MPL-2.0

package pgxnmeta

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const metaV1 = `{
  "name": "pair",
  "version": "0.1.7",
  "abstract": "A key/value pair data type",
  "release_status": "stable",
  "sha1": "1234567890abcdef1234567890abcdef12345678",
  "provides": {"pair": {"file": "sql/pair.sql", "version": "0.1.7"}}
}`

const metaV2 = `{
  "name": "pair",
  "version": "0.2.0",
  "abstract": "A key/value pair data type",
  "meta-spec": {"version": "2.0.0", "url": "https://rfcs.pgxn.org/0003-meta-spec-v2.html"},
  "dependencies": {
    "pipeline": "pgrx",
    "postgres": {"version": "14.0"}
  },
  "digests": {"sha256": "abc123"}
}`

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		data         string
		wantVersion  string
		wantSpec     string
		wantPipeline string
		wantExplicit bool
		wantDigests  Digests
	}{
		{
			name:        "v1 without meta-spec",
			data:        metaV1,
			wantVersion: "0.1.7",
			wantSpec:    DefaultMetaSpec,
			wantDigests: Digests{SHA1: "1234567890abcdef1234567890abcdef12345678"},
		},
		{
			name:         "v2 with pipeline",
			data:         metaV2,
			wantVersion:  "0.2.0",
			wantSpec:     "2.0.0",
			wantPipeline: "pgrx",
			wantExplicit: true,
			wantDigests:  Digests{SHA256: "abc123"},
		},
		{
			name:        "v2 without pipeline",
			data:        `{"name": "pair", "version": "1.0.0", "meta-spec": {"version": "2.0.0"}, "dependencies": {"postgres": {"version": "16"}}}`,
			wantVersion: "1.0.0",
			wantSpec:    "2.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rel, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if rel.Name() != "pair" {
				t.Errorf("Name() = %q, want %q", rel.Name(), "pair")
			}
			if rel.Version() != tt.wantVersion {
				t.Errorf("Version() = %q, want %q", rel.Version(), tt.wantVersion)
			}
			if rel.MetaSpec() != tt.wantSpec {
				t.Errorf("MetaSpec() = %q, want %q", rel.MetaSpec(), tt.wantSpec)
			}
			pipe, ok := rel.Pipeline()
			if pipe != tt.wantPipeline || ok != tt.wantExplicit {
				t.Errorf("Pipeline() = (%q, %v), want (%q, %v)", pipe, ok, tt.wantPipeline, tt.wantExplicit)
			}
			if rel.Digests() != tt.wantDigests {
				t.Errorf("Digests() = %+v, want %+v", rel.Digests(), tt.wantDigests)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		wantField string
	}{
		{"not json", `{"name": `, ""},
		{"array", `["pair"]`, ""},
		{"missing name", `{"version": "1.0.0"}`, "name"},
		{"missing version", `{"name": "pair"}`, "version"},
		{"meta-spec without version", `{"name": "pair", "version": "1.0.0", "meta-spec": {}}`, "meta-spec"},
		{"meta-spec wrong type", `{"name": "pair", "version": "1.0.0", "meta-spec": "2.0.0"}`, "meta-spec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, ErrInvalidMeta) {
				t.Fatalf("Parse() error = %v, want ErrInvalidMeta", err)
			}
			var metaErr *InvalidMetaError
			if !errors.As(err, &metaErr) {
				t.Fatalf("error type = %T, want *InvalidMetaError", err)
			}
			if metaErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", metaErr.Field, tt.wantField)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "META.json")
	if err := os.WriteFile(path, []byte(metaV2), 0o644); err != nil {
		t.Fatal(err)
	}

	rel, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if rel.Abstract() != "A key/value pair data type" {
		t.Errorf("Abstract() = %q", rel.Abstract())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	rel, err := Load(strings.NewReader(metaV1))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rel.Status() != "stable" {
		t.Errorf("Status() = %q, want stable", rel.Status())
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	rel := New("pair", "0.1.0", "")
	if _, ok := rel.Pipeline(); ok {
		t.Error("Pipeline() reported an explicit pipeline for an empty name")
	}
	if rel.MetaSpec() != DefaultMetaSpec {
		t.Errorf("MetaSpec() = %q, want %q", rel.MetaSpec(), DefaultMetaSpec)
	}
	if !rel.Digests().IsZero() {
		t.Errorf("Digests() = %+v, want zero", rel.Digests())
	}

	if pipe, ok := New("pair", "0.1.0", "pgxs").Pipeline(); !ok || pipe != "pgxs" {
		t.Errorf("Pipeline() = (%q, %v), want (pgxs, true)", pipe, ok)
	}
}

func TestDigests_Validate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pair-0.1.7.zip")
	content := []byte("not really a zip")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	good := hex.EncodeToString(sum[:])

	t.Run("match", func(t *testing.T) {
		t.Parallel()

		if err := (Digests{SHA256: good}).Validate(path); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
		if err := (Digests{SHA256: strings.ToUpper(good)}).Validate(path); err != nil {
			t.Errorf("Validate() uppercase error = %v", err)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()

		err := Digests{SHA256: good, SHA1: "0000000000000000000000000000000000000000"}.Validate(path)
		var mismatch *DigestMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Validate() error = %v, want *DigestMismatchError", err)
		}
		if mismatch.Algorithm != "sha1" {
			t.Errorf("Algorithm = %q, want sha1", mismatch.Algorithm)
		}
		if !errors.Is(err, ErrDigestMismatch) {
			t.Error("error does not wrap ErrDigestMismatch")
		}
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		if err := (Digests{}).Validate(path); !errors.Is(err, ErrNoDigest) {
			t.Errorf("Validate() error = %v, want ErrNoDigest", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		err := Digests{SHA256: good}.Validate(filepath.Join(dir, "missing.zip"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Validate() error = %v, want os.ErrNotExist", err)
		}
	})
}
