// SPDX-License-Identifier: MPL-2.0

package api

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxEntryBytes is the upper bound on one extracted file (1 GB). Prevents
// decompression bombs.
const maxEntryBytes = 1 << 30

// Unpack extracts the zip archive file into the directory into and returns
// the path of the archive's top-level directory. Entries that would land
// outside into are rejected and symbolic links are skipped.
func Unpack(into, file string) (string, error) {
	slog.Info("unpacking", "archive", filepath.Base(file))
	zr, err := zip.OpenReader(file)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return "", fmt.Errorf("%s: %w", filepath.Base(file), ErrUnsafeArchive)
	}
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", file, err)
	}
	defer func() { _ = zr.Close() }()

	if len(zr.File) == 0 {
		return "", fmt.Errorf("%s: %w", filepath.Base(file), ErrEmptyArchive)
	}
	for _, f := range zr.File {
		if err := extract(into, f); err != nil {
			return "", fmt.Errorf("unpacking %s: %w", filepath.Base(file), err)
		}
	}

	top, _, _ := strings.Cut(strings.TrimPrefix(zr.File[0].Name, "./"), "/")
	return filepath.Join(into, top), nil
}

func extract(into string, f *zip.File) error {
	rel := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(rel) || strings.Contains(f.Name, `\`) {
		return fmt.Errorf("%w: %s", ErrUnsafeArchive, f.Name)
	}
	dst := filepath.Join(into, rel)

	mode := f.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(dst, 0o755)
	case mode&fs.ModeSymlink != 0:
		slog.Warn("skipping symbolic link in archive", "entry", f.Name)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	perm := mode.Perm() | 0o600
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	n, copyErr := io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	closeErr := out.Close()
	if copyErr == nil && n > maxEntryBytes {
		copyErr = fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntryBytes)
	}
	return errors.Join(copyErr, closeErr)
}
