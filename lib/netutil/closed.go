// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal termination:
// EOF, a closed connection or file, broken pipe, or connection reset.
// These errors occur during relay teardown when one side finishes and
// the other side's blocked read or write fails as a result.
//
// A relay that full-closes the connection (rather than half-closing via
// CloseWrite) produces ECONNRESET and EPIPE instead of EOF on the
// surviving side. All of these are expected and should not be logged as
// errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
