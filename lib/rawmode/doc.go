// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rawmode grants scoped, restorable access to a controlling
// terminal for query/response round trips.
//
// [Acquire] checks that both descriptors are terminals before touching
// anything, records the input descriptor's termios attributes and file
// status flags, and switches it to raw, non-blocking mode. The returned
// [Session] is the only handle through which the terminal is read or
// written while raw. [Session.Close] restores the recorded attributes
// and flags exactly, and callers defer it immediately after a
// successful Acquire:
//
//	session, err := rawmode.Acquire(inputFd, outputFd, clock.Real())
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
// A terminal left in raw mode by this package would look exactly like
// the drift the rest of the module is built to detect, so Close runs on
// every exit path: normal return, early return after a failed write or
// read, and panics unwinding through the deferred call. There is no
// process-wide restore handler.
//
// Reads are bounded: [Session.ReadFor] polls in short slices until a
// wall-clock deadline passes, and [Session.Flush] performs a fixed
// number of non-blocking drain reads. A terminal that never answers, or
// never stops sending, cannot hang the caller past its timeout.
package rawmode
