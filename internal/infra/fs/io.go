// Package fs provides crash-safe file primitives over an afero.Fs.
package fs

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// WriteFileAtomic writes data to a file atomically using temp file + rename.
// The temp file lives in the destination directory so the rename never crosses
// filesystems.
func WriteFileAtomic(afs afero.Fs, path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("write file atomic: path is empty")
	}

	dir := filepath.Dir(path)
	if err := afs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write file atomic %s: failed to create directory: %w", path, err)
	}

	tmpFile, err := afero.TempFile(afs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write file atomic %s: failed to create temp file: %w", path, err)
	}
	tmpPath := tmpFile.Name()

	// No-op after a successful rename
	defer afs.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write file atomic %s: failed to write temp file: %w", path, err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write file atomic %s: failed to sync temp file: %w", path, err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("write file atomic %s: failed to close temp file: %w", path, err)
	}

	if err := afs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("write file atomic %s: failed to rename temp file: %w", path, err)
	}

	return nil
}

// WriteJSONAtomic pretty-prints v and writes it atomically, terminated by a newline.
func WriteJSONAtomic(afs afero.Fs, path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("write json %s: %w", path, err)
	}
	return WriteFileAtomic(afs, path, append(b, '\n'))
}

// MoveFile renames src to dst, creating dst's parent directory first.
// When the rename crosses filesystems (EXDEV) it falls back to copy + remove.
func MoveFile(afs afero.Fs, src, dst string) error {
	if src == "" || dst == "" {
		return fmt.Errorf("move file: empty path (src=%q, dst=%q)", src, dst)
	}

	if err := afs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("move %s -> %s: failed to create parent dir: %w", src, dst, err)
	}

	err := afs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("move %s -> %s: %w", src, dst, err)
	}

	GetLogger().Debug("cross-device move %s -> %s, falling back to copy", src, dst)
	if err := copyFile(afs, src, dst); err != nil {
		return fmt.Errorf("move %s -> %s: copy fallback: %w", src, dst, err)
	}
	if err := afs.Remove(src); err != nil {
		return fmt.Errorf("move %s -> %s: copied but failed to remove source: %w", src, dst, err)
	}
	return nil
}

// Exists reports whether path exists. Errors other than not-exist are returned.
func Exists(afs afero.Fs, path string) (bool, error) {
	return afero.Exists(afs, path)
}

func copyFile(afs afero.Fs, src, dst string) error {
	in, err := afs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := afs.OpenFile(dst, osCreateExclusive, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		afs.Remove(dst)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func isCrossDevice(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "cross-device") || strings.Contains(msg, "invalid cross-device")
}
