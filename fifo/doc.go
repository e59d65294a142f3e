// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fifo manages the pair of named pipes a relay session exchanges
// lines through.
//
// [Prepare] creates <base>/<name>/ and the two FIFOs inside it: "out",
// which an external producer writes and the relay drains to the network,
// and "in", which receives lines arriving from the network when an
// external reader has it open. Both are created with owner-only
// permissions. Pipes outlive the session; this package never deletes
// them.
//
// Prepare is idempotent: a FIFO already present at either path is
// reused and reported in [Pair].Reused. A non-FIFO at either path is a
// conflict and fails with a [*PipeCreationError] wrapping [ErrNotFIFO].
//
// [Pair.OpenOutbound] opens "out" for blocking reads. [Pair.InboundWriter]
// returns a non-blocking, drop-on-no-reader writer for "in". [Watch]
// reports removal of either pipe so a session can terminate instead of
// reading from an unlinked inode forever.
package fifo
