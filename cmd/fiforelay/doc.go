// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Fiforelay bridges a pair of named pipes to one remote TCP connection.
// Lines written to <dir>/<host>/out are sent to host:port; lines received
// from the connection are logged and mirrored into <dir>/<host>/in when
// a reader has it open. The process exits when the session ends: peer
// EOF and SIGINT/SIGTERM exit 0, every other outcome prints the error
// and exits 1.
package main
