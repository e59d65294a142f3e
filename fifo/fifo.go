// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	// InName and OutName are the file names of the two pipes.
	InName  = "in"
	OutName = "out"

	// pipeMode is owner read/write/execute (S_IRWXU).
	pipeMode = 0o700

	directoryMode = 0o700
)

// Pair is a prepared pair of named pipes.
type Pair struct {
	// Directory is <base>/<name>, the directory holding both pipes.
	Directory string

	// In receives lines arriving from the network.
	In string

	// Out is drained by the relay and forwarded to the network.
	Out string

	// Reused lists the pipe paths that already existed as FIFOs when
	// Prepare ran. Empty when both pipes were freshly created.
	Reused []string
}

// Prepare ensures baseDirectory/name exists and contains the "in" and
// "out" FIFOs. Intermediate directories are created as needed. Pipes are
// created sequentially: if "out" fails after "in" succeeded, "in" stays
// on disk and a later Prepare reuses it.
func Prepare(baseDirectory, name string) (*Pair, error) {
	directory := filepath.Join(baseDirectory, name)
	pair := &Pair{
		Directory: directory,
		In:        filepath.Join(directory, InName),
		Out:       filepath.Join(directory, OutName),
	}

	if strings.IndexByte(baseDirectory, 0) >= 0 || strings.IndexByte(name, 0) >= 0 {
		return nil, &PipeCreationError{Path: pair.In, Err: ErrNullByte}
	}
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return nil, &DirectoryError{Path: directory, Err: ErrInvalidName}
	}

	if err := os.MkdirAll(directory, directoryMode); err != nil {
		return nil, &DirectoryError{Path: directory, Err: err}
	}

	for _, path := range []string{pair.In, pair.Out} {
		reused, err := makeFIFO(path)
		if err != nil {
			return nil, err
		}
		if reused {
			pair.Reused = append(pair.Reused, path)
		}
	}
	return pair, nil
}

// makeFIFO creates a named pipe at path. It reports reused=true when a
// FIFO was already present, and fails with ErrNotFIFO when something
// else occupies the path.
func makeFIFO(path string) (reused bool, err error) {
	if strings.IndexByte(path, 0) >= 0 {
		return false, &PipeCreationError{Path: path, Err: ErrNullByte}
	}

	err = unix.Mkfifo(path, pipeMode)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, unix.EEXIST) {
		return false, &PipeCreationError{Path: path, Err: os.NewSyscallError("mkfifo", err)}
	}

	info, statErr := os.Lstat(path)
	if statErr != nil {
		return false, &PipeCreationError{Path: path, Err: statErr}
	}
	if info.Mode().Type() != fs.ModeNamedPipe {
		return false, &PipeCreationError{Path: path, Err: ErrNotFIFO}
	}
	return true, nil
}

// IsFIFO reports whether path names an existing named pipe.
func IsFIFO(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().Type() == fs.ModeNamedPipe
}
