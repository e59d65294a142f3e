// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint error handler.
//
// main() in cmd/fiforelay reports the single terminal outcome of a relay
// session through [Fatal]. The structured logger may not be initialized
// when run() fails (a bad flag, an unreadable config file), so Fatal
// writes to stderr directly.
package process
