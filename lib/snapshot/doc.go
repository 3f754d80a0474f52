// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot captures the terminal's protocol state at one point
// in time and reads and writes the resulting JSON document.
//
// A capture runs in three phases. The unsupported-terminal guard comes
// first: an empty or dumb TERM produces a skipped snapshot without any
// query, because a terminal that cannot answer would otherwise read as
// "every mode unset". Next the terminal is acquired through
// [rawmode.Acquire] and flushed. Finally [Query] asks for each mode
// strictly in sequence, giving every query its own read window, and
// then asks once for the kitty keyboard flags.
//
// DECRQM has no request identifier, so queries are never pipelined:
// each answer is read before the next question is written. A slow
// answer to one mode costs only that mode's window.
//
// [Capture] never returns an error. Failures inside the raw-mode window
// (not a terminal, I/O errors, panics) become a snapshot with
// [StatusError] and a message, and the terminal is restored before
// Capture returns. The capture command always has a document to write.
//
// A [Snapshot] is a value. It is built once by Capture or [Load] and
// not modified afterwards; the analysis borrows it read-only.
package snapshot
