// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides connection helpers shared by the relay.
//
// [IsExpectedCloseError] classifies errors that occur during normal
// teardown of a duplex relay: when one direction finishes and the session
// closes the connection and the outbound FIFO, the surviving direction's
// in-flight read or write fails with one of these errors. They are not
// the cause of the session ending and should not be reported as such.
package netutil
