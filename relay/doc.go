// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay moves newline-delimited text between a pair of local
// named pipes and one remote TCP connection.
//
// A [Session] is built from a [Target] and walks a fixed state machine:
//
//	Idle --Connect--> Connected --Relay--> Relaying --> Terminated
//	  \--Connect fails--> Failed
//
// [New] prepares the pipe pair (see package fifo) before anything
// touches the network, so a pipe setup failure never produces a
// connection attempt. [Session.Connect] dials the target once, with no
// retry. [Session.Relay] runs two forwarding directions concurrently:
//
//   - outbound: lines read from the "out" FIFO are written to the
//     connection, one Write per line, in order.
//   - inbound: lines read from the connection are handed to a
//     [LineSink]. The default sink logs each line and mirrors it into
//     the "in" FIFO when a reader has it open.
//
// The connection's read side belongs to the inbound direction and its
// write side to the outbound direction; the directions share no other
// state. When either direction finishes (peer EOF, an I/O failure), the
// caller's context is cancelled, or one of the pipes is removed, Relay
// closes the connection and the FIFO to unblock the other direction and
// waits for both goroutines to exit before returning. Peer EOF and
// caller cancellation return nil; everything else returns a typed error
// ([*ConnectError], [*ReadError], [*WriteError], [ErrPipeRemoved]).
//
// The relay never interprets the bytes it moves.
package relay
