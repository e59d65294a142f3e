// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
)

// LineSink receives lines arriving from the connection. line includes
// its trailing delimiter, except for a final fragment the peer sent
// without one before closing. Deliver must not retain line after
// returning.
//
// A Deliver error is counted and logged; it never terminates the
// inbound direction.
type LineSink interface {
	Deliver(line []byte) error
}

// LogSink surfaces each line as an Info record on Logger, with the
// trailing CR/LF removed.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(line []byte) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("received", "line", string(trimDelimiter(line)))
	return nil
}

// WriterSink writes each line, delimiter included, to Writer. Used with
// fifo.InboundWriter to mirror traffic into the "in" pipe.
type WriterSink struct {
	Writer io.Writer
}

func (s WriterSink) Deliver(line []byte) error {
	_, err := s.Writer.Write(line)
	return err
}

// MultiSink delivers every line to each sink in order. All sinks see
// the line even if an earlier one fails; the errors are joined.
type MultiSink []LineSink

func (m MultiSink) Deliver(line []byte) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Deliver(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func trimDelimiter(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
