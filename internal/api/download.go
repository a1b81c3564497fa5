// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"pgxnbuild/pkg/pgxnmeta"
)

// maxDownloadBytes is the upper bound on a release archive (500 MB).
const maxDownloadBytes = 500 << 20

// Meta fetches the metadata of release version of distribution name. The
// PGXN v1 API omits "meta-spec" from release metadata, so a missing field is
// filled in as version 1.0.0.
func (c *Client) Meta(ctx context.Context, name, version string) (*pgxnmeta.Release, error) {
	u, err := c.URLFor("meta", map[string]string{"dist": name, "version": version})
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := c.fetchJSON(ctx, u, &doc); err != nil {
		return nil, fmt.Errorf("fetching metadata for %s %s: %w", name, version, err)
	}
	if _, ok := doc["meta-spec"]; !ok {
		doc["meta-spec"] = json.RawMessage(`{"version":"` + pgxnmeta.DefaultMetaSpec + `"}`)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	slog.Debug("parsing", "url", u.String())
	rel, err := pgxnmeta.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u, err)
	}
	return rel, nil
}

// DownloadTo downloads the archive of rel into dir and verifies it against
// rel's digests. It returns the path of the downloaded file. A file that
// fails verification is removed.
func (c *Client) DownloadTo(ctx context.Context, dir string, rel *pgxnmeta.Release) (string, error) {
	u, err := c.URLFor("download", map[string]string{"dist": rel.Name(), "version": rel.Version()})
	if err != nil {
		return "", err
	}
	file, err := c.downloadURLTo(ctx, dir, u)
	if err != nil {
		return "", err
	}
	if err := rel.Digests().Validate(file); err != nil {
		_ = os.Remove(file)
		return "", fmt.Errorf("verifying %s: %w", filepath.Base(file), err)
	}
	return file, nil
}

// downloadURLTo copies the resource at u into dir, named after the last
// segment of the URL path.
func (c *Client) downloadURLTo(ctx context.Context, dir string, u *url.URL) (string, error) {
	name := path.Base(u.Path)
	if u.Path == "" || name == "/" || name == "." {
		return "", fmt.Errorf("%s: %w", u, ErrNoURLFile)
	}
	dst := filepath.Join(dir, name)
	slog.Info("downloading", "from", u.String(), "to", dir)

	rc, err := c.open(ctx, u)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }() // read-only body

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}
	n, copyErr := io.Copy(out, io.LimitReader(rc, maxDownloadBytes+1))
	closeErr := out.Close()
	if copyErr == nil && n > maxDownloadBytes {
		copyErr = fmt.Errorf("archive exceeds %d bytes", maxDownloadBytes)
	}
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("downloading %s: %w", name, err)
	}
	return dst, nil
}
