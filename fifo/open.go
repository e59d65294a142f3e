// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// OpenOutbound opens the "out" pipe for reading.
//
// The pipe is opened read-write. While any writer holds a FIFO open,
// reads block until data arrives; opening it with our own write
// reference means reads never see EOF when external producers come and
// go, so the caller blocks on Read instead of spinning on zero-length
// results. Open does not block waiting for a producer.
//
// The returned file is registered with the runtime poller: Close from
// another goroutine unblocks a pending Read with os.ErrClosed.
func (p *Pair) OpenOutbound() (*os.File, error) {
	if !IsFIFO(p.Out) {
		return nil, fmt.Errorf("fifo: open %s: %w", p.Out, ErrNotFIFO)
	}
	file, err := os.OpenFile(p.Out, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("fifo: open %s: %w", p.Out, err)
	}
	return file, nil
}

// InboundWriter returns a writer for the "in" pipe.
func (p *Pair) InboundWriter() *InboundWriter {
	return &InboundWriter{path: p.In, fd: -1}
}

// InboundWriter writes to the "in" pipe without ever blocking the
// caller. Delivery is best effort: the pipe has no reader most of the
// time, and a slow reader must not stall the network side of the relay.
//
// The pipe is opened lazily on the first Write with O_NONBLOCK. With no
// reader attached the open fails with ENXIO and Write returns
// ErrNoReader. When the pipe buffer is full Write returns ErrPipeFull.
// When the reader goes away the descriptor is dropped and the next Write
// reopens. Writes of at most PIPE_BUF (4096) bytes are atomic. A longer
// line can be cut short by a full pipe; the next Write then terminates
// the fragment with a newline before writing its own line, so a reader
// never sees two lines run together.
//
// InboundWriter is safe for concurrent use.
type InboundWriter struct {
	path string

	mutex sync.Mutex
	fd    int

	// partial is set while the pipe holds the head of a line whose tail
	// was never written.
	partial bool
}

// Write writes p to the pipe. See the type documentation for the
// meaning of the returned errors.
func (w *InboundWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fd < 0 {
		fd, err := unix.Open(w.path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			if errors.Is(err, unix.ENXIO) {
				return 0, ErrNoReader
			}
			return 0, &fs.PathError{Op: "open", Path: w.path, Err: err}
		}
		w.fd = fd
	}

	if w.partial {
		if _, err := w.writeAll(lineTerminator); err != nil {
			return 0, err
		}
		w.partial = false
	}

	written, err := w.writeAll(p)
	if err != nil && written > 0 && written < len(p) && w.fd >= 0 {
		w.partial = true
	}
	return written, err
}

var lineTerminator = []byte{'\n'}

// writeAll writes p to the open descriptor, stopping at the first
// failure. Callers hold the mutex.
func (w *InboundWriter) writeAll(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(w.fd, p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil && n == 0:
			return written, ErrPipeFull
		case err == nil:
		case errors.Is(err, unix.EINTR):
		case errors.Is(err, unix.EAGAIN):
			return written, ErrPipeFull
		case errors.Is(err, unix.EPIPE):
			w.closeLocked()
			return written, ErrNoReader
		default:
			w.closeLocked()
			return written, &fs.PathError{Op: "write", Path: w.path, Err: err}
		}
	}
	return written, nil
}

// Close releases the pipe descriptor, if one is open.
func (w *InboundWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.closeLocked()
}

func (w *InboundWriter) closeLocked() error {
	if w.fd < 0 {
		return nil
	}
	err := unix.Close(w.fd)
	w.fd = -1
	w.partial = false
	return err
}
