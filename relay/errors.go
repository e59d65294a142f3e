// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
)

// Direction names one half of the relay.
type Direction string

const (
	// Outbound drains the "out" FIFO into the connection.
	Outbound Direction = "outbound"

	// Inbound drains the connection into the line sink.
	Inbound Direction = "inbound"
)

// ErrPipeRemoved is returned by Relay when the "in" or "out" pipe is
// removed or renamed while the session is running.
var ErrPipeRemoved = errors.New("relay: pipe removed")

// ConnectError reports a failed DNS lookup or TCP connect.
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("relay: failed to connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ReadError reports a read failure on a direction's source: the "out"
// FIFO for Outbound, the connection for Inbound.
type ReadError struct {
	Direction Direction
	Err       error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("relay: %s read failed: %v", e.Direction, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a write failure on a direction's sink.
type WriteError struct {
	Direction Direction
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("relay: %s write failed: %v", e.Direction, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
