// Package fsutil holds filesystem helpers for preparing a search.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyDir recursively copies the tree at src into dst, which must exist.
// src itself may be a symlink to a directory. Below it, symlinks to regular
// files are copied as regular files holding the target's content; symlinked
// directories and dangling links are skipped.
func CopyDir(src, dst string) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", src, err)
	}
	src = resolved

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(targetPath, info.Mode().Perm()|0o700)
		}

		info, err := os.Stat(path)
		if err != nil {
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		return copyFile(path, targetPath, info.Mode().Perm())
	})
}

// copyFile copies a single file.
func copyFile(src, dst string, mode os.FileMode) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode|0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return destFile.Close()
}

// TempCopy copies src into a new temporary directory and returns its path
// with a cleanup function that removes it
func TempCopy(src string) (string, func() error, error) {
	dir, err := os.MkdirTemp("", "closest-snapshot-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	if err := CopyDir(src, dir); err != nil {
		_ = cleanup()
		return "", nil, fmt.Errorf("failed to copy snapshot: %w", err)
	}

	return dir, cleanup, nil
}
