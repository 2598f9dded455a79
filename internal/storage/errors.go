package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigParse indicates the persisted configuration file exists but cannot be trusted.
	ErrConfigParse = errors.New("config file cannot be parsed")
	// ErrPathConflict indicates a directory was expected where something else exists.
	ErrPathConflict = errors.New("path exists and is not a directory")
)

// ConfigParseError is returned when an existing config file is malformed.
// It matches both ErrConfigParse and the underlying cause with errors.Is.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() []error {
	return []error{ErrConfigParse, e.Err}
}

// PathConflictError is returned when path, or one of its parents, is occupied
// by a non-directory.
type PathConflictError struct {
	Path string
	Err  error
}

func (e *PathConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("directory %s: %v", e.Path, ErrPathConflict)
}

// Unwrap exposes ErrPathConflict and, when known, the file system cause.
func (e *PathConflictError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPathConflict}
	}
	return []error{ErrPathConflict, e.Err}
}
