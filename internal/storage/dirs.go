package storage

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

const dirPerm = 0o755

// EnsureDir creates path and its parents if missing. An existing directory is
// left untouched; a non-directory at path (or at a parent) yields a
// *PathConflictError. A directory created concurrently by someone else counts
// as success.
func EnsureDir(path string) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil
		}
		return &PathConflictError{Path: path}
	}

	mkErr := os.MkdirAll(path, dirPerm)
	if mkErr == nil {
		return nil
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil
		}
		return &PathConflictError{Path: path}
	}
	if errors.Is(mkErr, syscall.ENOTDIR) {
		return &PathConflictError{Path: path, Err: mkErr}
	}
	return fmt.Errorf("create directory %s: %w", path, mkErr)
}

// EnsureDirs runs EnsureDir on each path in order and stops at the first error.
func EnsureDirs(paths ...string) error {
	for _, p := range paths {
		if err := EnsureDir(p); err != nil {
			return err
		}
	}
	return nil
}
