// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

const testSchema = `
#Config: {
	name?:  string & !=""
	count?: int & >=0
	items?: [...{id: string}]
}
`

func TestUnify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr []string
	}{
		{name: "empty document", data: ``},
		{name: "valid fields", data: `name: "pair", count: 3`},
		{name: "syntax error", data: `name: "pair`, wantErr: []string{"test.cue"}},
		{name: "wrong type", data: `count: "three"`, wantErr: []string{"test.cue", "count:"}},
		{name: "out of bound", data: `count: -1`, wantErr: []string{"count:"}},
		{name: "unknown field", data: `nmae: "pair"`, wantErr: []string{"nmae"}},
		{name: "list element", data: `items: [{id: 1}]`, wantErr: []string{"items[0].id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := Unify(testSchema, "#Config", []byte(tt.data), "test.cue")
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Unify() error = %v", err)
				}
				if !v.Exists() {
					t.Error("Unify() returned a missing value")
				}
				return
			}
			if err == nil {
				t.Fatal("Unify() error = nil, want failure")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Unify() error = %q, want it to contain %q", err, want)
				}
			}
		})
	}
}

func TestUnify_BadSchema(t *testing.T) {
	t.Parallel()

	if _, err := Unify(`#Config: {`, "#Config", nil, "x.cue"); err == nil {
		t.Error("Unify() with a broken schema should fail")
	}
	if _, err := Unify(testSchema, "#Missing", nil, "x.cue"); err == nil {
		t.Error("Unify() with a missing definition should fail")
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "test.cue") != nil {
		t.Error("FormatError(nil) should return nil")
	}

	orig := errors.New("some error")
	err := FormatError(orig, "test.cue")
	if err.Error() != "test.cue: some error" {
		t.Errorf("FormatError() = %q", err)
	}
	if !errors.Is(err, orig) {
		t.Error("non-CUE errors should stay wrapped")
	}

	err = FormatError(fmt.Errorf("reading config: %w", fs.ErrPermission), "test.cue")
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("FormatError() = %v, want it to wrap fs.ErrPermission", err)
	}
	if !strings.HasPrefix(err.Error(), "test.cue: reading config: ") {
		t.Errorf("FormatError() = %q", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"pg_config"}, "pg_config"},
		{[]string{"registry", "url"}, "registry.url"},
		{[]string{"items", "0", "id"}, "items[0].id"},
		{[]string{"#Config", "registry", "timeout"}, "registry.timeout"},
		{[]string{"0"}, "0"},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "a.cue"); err != nil {
		t.Errorf("CheckFileSize(at limit) error = %v", err)
	}
	err := CheckFileSize(make([]byte, 11), 10, "a.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum 10 bytes") {
		t.Errorf("CheckFileSize(over limit) error = %v", err)
	}
}
