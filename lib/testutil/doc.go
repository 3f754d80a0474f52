// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for termdrift packages.
//
// [OpenPTY] allocates a pseudo-terminal pair (Linux devpts) so tests
// can exercise raw-mode acquisition and the capture protocol against a
// real terminal line discipline while the test itself plays the
// terminal emulator on the master side.
//
// [ArtifactDir] builds a capture directory (stty reports, transcript,
// protocol snapshots) from an in-memory file map for analysis tests.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with time.After fallback) so tests waiting on a PTY emulator
// goroutine never hang.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no termdrift-internal dependencies.
package testutil
