// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rawmode

import "errors"

// ErrNotATerminal is returned by Acquire when either descriptor is not
// a terminal. Nothing has been modified when it is returned.
var ErrNotATerminal = errors.New("not a terminal")

// IOError is a read or write failure on the terminal while a Session is
// active. The terminal state is still restored by Session.Close.
type IOError struct {
	// Op is the failing operation: "read", "write", "flush", or "poll".
	Op string

	// Err is the underlying error.
	Err error
}

func (e *IOError) Error() string { return "terminal " + e.Op + ": " + e.Err.Error() }

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error { return e.Err }
