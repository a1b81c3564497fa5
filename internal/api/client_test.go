// SPDX-License-Identifier: MPL-2.0

package api

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const testIndex = `{
  "download": "/dist/{dist}/{version}/{dist}-{version}.zip",
  "readme": "/dist/{dist}/{version}/README.txt",
  "meta": "/dist/{dist}/{version}/META.json",
  "dist": "/dist/{dist}.json",
  "extension": "/extension/{extension}.json",
  "user": "/user/{user}.json",
  "tag": "/tag/{tag}.json",
  "stats": "/stats/{stats}.json",
  "mirrors": "/meta/mirrors.json",
  "spec": "/meta/spec.{format}"
}`

// mirror lays out a PGXN mirror on disk with one release of "pair".
type mirror struct {
	root    string
	archive []byte
}

func newMirror(t *testing.T) *mirror {
	t.Helper()

	m := &mirror{root: t.TempDir(), archive: buildZip(t, map[string]string{
		"pair-0.1.7/":               "",
		"pair-0.1.7/Makefile":       "EXTENSION = pair\n",
		"pair-0.1.7/META.json":      `{"name":"pair","version":"0.1.7"}`,
		"pair-0.1.7/sql/pair.sql":   "SELECT 1;\n",
		"pair-0.1.7/doc/pair.md":    "# pair\n",
		"pair-0.1.7/test/sql/a.sql": "SELECT 2;\n",
	})}
	sum := sha256.Sum256(m.archive)

	m.write(t, "index.json", testIndex)
	m.write(t, "dist/pair.json", `{
  "name": "pair",
  "releases": {
    "stable": [
      {"version": "0.1.7", "date": "2011-04-20T23:47:22Z"},
      {"version": "0.1.10", "date": "2012-01-02T10:00:00Z"},
      {"version": "0.1.2", "date": "2010-10-29T22:44:42Z"}
    ],
    "testing": [{"version": "0.2.0-beta1", "date": "2012-03-04T05:06:07Z"}]
  }
}`)
	m.write(t, "dist/pair/0.1.7/META.json", `{
  "name": "pair",
  "version": "0.1.7",
  "abstract": "A key/value pair data type",
  "release_status": "stable",
  "sha256": "`+hex.EncodeToString(sum[:])+`"
}`)
	m.write(t, "dist/pair/0.1.7/pair-0.1.7.zip", string(m.archive))
	m.write(t, "dist/pair/0.2.0/META.json", `{
  "name": "pair",
  "version": "0.2.0",
  "meta-spec": {"version": "2.0.0"},
  "dependencies": {"pipeline": "pgxs"},
  "digests": {"sha256": "0000"}
}`)
	m.write(t, "dist/pair/0.2.0/pair-0.2.0.zip", string(m.archive))
	return m
}

func (m *mirror) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(m.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// serve exposes the mirror over HTTP. The returned function reports the
// paths requested so far.
func (m *mirror) serve(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		paths []string
	)
	fileServer := http.FileServer(http.Dir(m.root))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.EscapedPath())
		mu.Unlock()
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fileServer.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return slices.Clone(paths)
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	// The top-level directory must come first.
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNew_FileMirror(t *testing.T) {
	t.Parallel()

	m := newMirror(t)
	for _, raw := range []string{m.root, "file://" + filepath.ToSlash(m.root), m.root + "/"} {
		c, err := New(context.Background(), raw)
		if err != nil {
			t.Fatalf("New(%q) error = %v", raw, err)
		}
		if !strings.HasSuffix(c.BaseURL(), "/") {
			t.Errorf("BaseURL() = %q, want trailing slash", c.BaseURL())
		}
		if !strings.HasPrefix(c.BaseURL(), "file://") {
			t.Errorf("BaseURL() = %q, want file URL", c.BaseURL())
		}
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported scheme", func(t *testing.T) {
		t.Parallel()
		if _, err := New(context.Background(), "ftp://example.com/"); !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("New() error = %v, want ErrUnsupportedScheme", err)
		}
	})

	t.Run("missing index", func(t *testing.T) {
		t.Parallel()
		if _, err := New(context.Background(), t.TempDir()); !errors.Is(err, ErrNotFound) {
			t.Errorf("New() error = %v, want ErrNotFound", err)
		}
	})

	tests := []struct {
		name  string
		index string
	}{
		{"not json", `{"dist": `},
		{"non-string template", `{"dist": 42}`},
		{"unbalanced braces", `{"dist": "/dist/{dist.json"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &mirror{root: t.TempDir()}
			m.write(t, "index.json", tt.index)
			_, err := New(context.Background(), m.root)
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("New() error = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestClient_URLFor(t *testing.T) {
	t.Parallel()

	server, _ := newMirror(t).serve(t)
	c, err := New(context.Background(), server.URL+"/", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{"download", "download", map[string]string{"dist": "pair", "version": "0.1.7"}, "/dist/pair/0.1.7/pair-0.1.7.zip"},
		{"meta", "meta", map[string]string{"dist": "pair", "version": "0.1.7"}, "/dist/pair/0.1.7/META.json"},
		{"dist", "dist", map[string]string{"dist": "pair"}, "/dist/pair.json"},
		{"space is escaped", "tag", map[string]string{"tag": "hi there"}, "/tag/hi%20there.json"},
		{"slash is escaped", "tag", map[string]string{"tag": "a/b"}, "/tag/a%2Fb.json"},
		{"unicode is escaped", "tag", map[string]string{"tag": "😍"}, "/tag/%F0%9F%98%8D.json"},
		{"missing variable expands empty", "user", nil, "/user/.json"},
		{"no variables", "mirrors", nil, "/meta/mirrors.json"},
		{"format variable", "spec", map[string]string{"format": "txt"}, "/meta/spec.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := c.URLFor(tt.template, tt.vars)
			if err != nil {
				t.Fatalf("URLFor() error = %v", err)
			}
			if got := u.EscapedPath(); got != tt.want {
				t.Errorf("URLFor() path = %q, want %q", got, tt.want)
			}
			if want := server.URL + tt.want; u.String() != want {
				t.Errorf("URLFor() = %q, want %q", u.String(), want)
			}
		})
	}

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		_, err := c.URLFor("nonesuch", nil)
		var unknown *UnknownTemplateError
		if !errors.As(err, &unknown) || unknown.Name != "nonesuch" {
			t.Errorf("URLFor() error = %v, want UnknownTemplateError", err)
		}
		if !errors.Is(err, ErrUnknownTemplate) {
			t.Error("error does not wrap ErrUnknownTemplate")
		}
	})
}

func TestClient_Dist(t *testing.T) {
	t.Parallel()

	c, err := New(context.Background(), newMirror(t).root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	d, err := c.Dist(context.Background(), "pair")
	if err != nil {
		t.Fatalf("Dist() error = %v", err)
	}
	if d.Name != "pair" {
		t.Errorf("Name = %q, want pair", d.Name)
	}
	if len(d.Releases.Stable) != 3 || len(d.Releases.Testing) != 1 {
		t.Errorf("Releases = %+v", d.Releases)
	}
	want := time.Date(2011, 4, 20, 23, 47, 22, 0, time.UTC)
	if !d.Releases.Stable[0].Date.Equal(want) {
		t.Errorf("Date = %v, want %v", d.Releases.Stable[0].Date, want)
	}
	if latest, ok := d.LatestStable(); !ok || latest != "0.1.10" {
		t.Errorf("LatestStable() = (%q, %v), want (0.1.10, true)", latest, ok)
	}
	if !d.Has("0.2.0-beta1") || d.Has("9.9.9") {
		t.Error("Has() reported the wrong releases")
	}

	if _, err := c.Dist(context.Background(), "nonesuch"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Dist(nonesuch) error = %v, want ErrNotFound", err)
	}
}

func TestDist_LatestStableEmpty(t *testing.T) {
	t.Parallel()

	d := &Dist{Name: "pair", Releases: Releases{Testing: []DistRelease{{Version: "1.0.0"}}}}
	if v, ok := d.LatestStable(); ok {
		t.Errorf("LatestStable() = %q, want none", v)
	}
}

func TestClient_Meta(t *testing.T) {
	t.Parallel()

	server, _ := newMirror(t).serve(t)
	c, err := New(context.Background(), server.URL, WithHTTPClient(server.Client()), WithUserAgent("pgxnbuild-test"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	t.Run("v1 gets a meta-spec", func(t *testing.T) {
		t.Parallel()

		rel, err := c.Meta(ctx, "pair", "0.1.7")
		if err != nil {
			t.Fatalf("Meta() error = %v", err)
		}
		if rel.MetaSpec() != "1.0.0" {
			t.Errorf("MetaSpec() = %q, want 1.0.0", rel.MetaSpec())
		}
		if rel.Abstract() != "A key/value pair data type" {
			t.Errorf("Abstract() = %q", rel.Abstract())
		}
	})

	t.Run("v2 keeps its meta-spec", func(t *testing.T) {
		t.Parallel()

		rel, err := c.Meta(ctx, "pair", "0.2.0")
		if err != nil {
			t.Fatalf("Meta() error = %v", err)
		}
		if rel.MetaSpec() != "2.0.0" {
			t.Errorf("MetaSpec() = %q, want 2.0.0", rel.MetaSpec())
		}
		if pipe, ok := rel.Pipeline(); !ok || pipe != "pgxs" {
			t.Errorf("Pipeline() = (%q, %v), want (pgxs, true)", pipe, ok)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		if _, err := c.Meta(ctx, "pair", "9.9.9"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Meta() error = %v, want ErrNotFound", err)
		}
	})
}

func TestClient_HTTPStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.json" {
			_, _ = w.Write([]byte(testIndex))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	c, err := New(context.Background(), server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = c.Dist(context.Background(), "pair")
	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.Status != http.StatusBadGateway {
		t.Fatalf("Dist() error = %v, want ResponseError with status 502", err)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()

	server, _ := newMirror(t).serve(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(ctx, server.URL, WithHTTPClient(server.Client())); !errors.Is(err, context.Canceled) {
		t.Errorf("New() error = %v, want context.Canceled", err)
	}
}

func TestClient_DownloadTo(t *testing.T) {
	t.Parallel()

	m := newMirror(t)
	server, paths := m.serve(t)
	c, err := New(context.Background(), server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	rel, err := c.Meta(ctx, "pair", "0.1.7")
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	dir := t.TempDir()
	file, err := c.DownloadTo(ctx, dir, rel)
	if err != nil {
		t.Fatalf("DownloadTo() error = %v", err)
	}
	if want := filepath.Join(dir, "pair-0.1.7.zip"); file != want {
		t.Errorf("DownloadTo() = %q, want %q", file, want)
	}
	got, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, m.archive) {
		t.Error("downloaded archive differs from the mirror's")
	}
	requested := paths()
	if last := requested[len(requested)-1]; last != "/dist/pair/0.1.7/pair-0.1.7.zip" {
		t.Errorf("last request = %q", last)
	}
}

func TestClient_DownloadToDigestMismatch(t *testing.T) {
	t.Parallel()

	c, err := New(context.Background(), newMirror(t).root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	rel, err := c.Meta(ctx, "pair", "0.2.0")
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	dir := t.TempDir()
	if _, err := c.DownloadTo(ctx, dir, rel); err == nil {
		t.Fatal("DownloadTo() error = nil, want digest mismatch")
	}
	if _, err := os.Stat(filepath.Join(dir, "pair-0.2.0.zip")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("archive left behind after failed verification: %v", err)
	}
}

func TestUnpack(t *testing.T) {
	t.Parallel()

	m := newMirror(t)
	archive := filepath.Join(t.TempDir(), "pair-0.1.7.zip")
	if err := os.WriteFile(archive, m.archive, 0o644); err != nil {
		t.Fatal(err)
	}

	into := t.TempDir()
	top, err := Unpack(into, archive)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if want := filepath.Join(into, "pair-0.1.7"); top != want {
		t.Errorf("Unpack() = %q, want %q", top, want)
	}
	for _, name := range []string{"Makefile", "META.json", "sql/pair.sql", "test/sql/a.sql"} {
		if _, err := os.Stat(filepath.Join(top, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestUnpack_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{"parent traversal", map[string]string{"../evil.sh": "boom"}, ErrUnsafeArchive},
		{"nested traversal", map[string]string{"pair/../../evil.sh": "boom"}, ErrUnsafeArchive},
		{"absolute path", map[string]string{"/tmp/evil.sh": "boom"}, ErrUnsafeArchive},
		{"empty", map[string]string{}, ErrEmptyArchive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			archive := filepath.Join(t.TempDir(), "bad.zip")
			if err := os.WriteFile(archive, buildZip(t, tt.files), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Unpack(t.TempDir(), archive); !errors.Is(err, tt.wantErr) {
				t.Errorf("Unpack() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("not a zip", func(t *testing.T) {
		t.Parallel()

		archive := filepath.Join(t.TempDir(), "bad.zip")
		if err := os.WriteFile(archive, []byte("nope"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Unpack(t.TempDir(), archive); err == nil {
			t.Error("Unpack() error = nil, want failure")
		}
	})
}
