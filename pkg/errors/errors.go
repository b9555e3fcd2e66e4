// Copyright (c) 2025 A Bit of Help, Inc.

// Package errors provides custom error types and error handling utilities for the application.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors that can be used for comparison with errors.Is
var (
	// ErrOpenFailed indicates a source file could not be opened
	ErrOpenFailed = errors.New("open failed")

	// ErrReadFailed indicates a source file could not be read to the end
	ErrReadFailed = errors.New("read failed")

	// ErrCompress indicates the codec rejected a file's bytes
	ErrCompress = errors.New("compression failed")

	// ErrPathEncoding indicates a relative path cannot be represented in the archive format
	ErrPathEncoding = errors.New("path not encodable")

	// ErrArchiveIO indicates the archive file or the extraction target could
	// not be opened, written, or finalized
	ErrArchiveIO = errors.New("archive I/O failed")

	// ErrDecode indicates a corrupt or truncated archive stream
	ErrDecode = errors.New("archive decode failed")

	// ErrUnsafePath indicates an archive entry tried to escape the output directory
	ErrUnsafePath = errors.New("unsafe entry path")
)

// perFile lists the error kinds that are contained to a single file and
// never abort a run.
var perFile = []error{ErrOpenFailed, ErrReadFailed, ErrCompress, ErrPathEncoding}

// FileError is an error attributable to one file of a run. It carries the
// relative path the pipeline was processing so failures can be reported
// against the right file.
type FileError struct {
	// Path is the relative path of the file inside the run
	Path string

	// Op is the operation being performed when the error occurred
	Op string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError creates a new FileError
func NewFileError(path, op string, err error) *FileError {
	return &FileError{Path: path, Op: op, Err: err}
}

// IsPerFile reports whether the error is one of the contained per-file
// kinds. Anything else is treated as fatal to the whole run.
func IsPerFile(err error) bool {
	for _, kind := range perFile {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
