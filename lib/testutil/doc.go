// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for fiforelay packages.
//
// [TempDir] creates a short-named temporary directory in /tmp. FIFO and
// relay tests use it instead of t.TempDir() so that paths stay short
// and predictable when build systems nest TEST_TMPDIR deeply.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. Relay tests block on
// goroutines that read from FIFOs and sockets; a bug there should fail
// the test, not hang it. [RequireNoReceive] is the inverse: it asserts
// that a blocking read is still blocked after a short wait.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no fiforelay-internal dependencies.
package testutil
