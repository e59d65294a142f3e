// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"errors"
	"fmt"
)

var (
	// ErrNullByte is returned when a path component contains a NUL byte.
	// The path is rejected before any syscall is issued.
	ErrNullByte = errors.New("path contains NUL byte")

	// ErrInvalidName is returned when the pipe directory name is not a
	// single path element.
	ErrInvalidName = errors.New("invalid pipe directory name")

	// ErrNotFIFO is returned when a pipe path is occupied by something
	// other than a named pipe.
	ErrNotFIFO = errors.New("path exists and is not a FIFO")

	// ErrNoReader is returned by InboundWriter when no process has the
	// inbound pipe open for reading. The line is dropped.
	ErrNoReader = errors.New("no reader on inbound pipe")

	// ErrPipeFull is returned by InboundWriter when the reader is not
	// draining the inbound pipe fast enough. The line is dropped.
	ErrPipeFull = errors.New("inbound pipe is full")
)

// DirectoryError reports a failure to create the directory holding the
// pipe pair.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("fifo: failed to create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// PipeCreationError reports a failure to create one of the named pipes.
// Err is ErrNullByte, ErrNotFIFO, or the underlying syscall error.
type PipeCreationError struct {
	Path string
	Err  error
}

func (e *PipeCreationError) Error() string {
	return fmt.Sprintf("fifo: failed to create pipe %s: %v", e.Path, e.Err)
}

func (e *PipeCreationError) Unwrap() error { return e.Err }
