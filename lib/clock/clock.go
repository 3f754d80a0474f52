// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by deadline polling loops.
// Production code injects Real(); tests inject Fake() with
// deterministic time control.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the caller for at least duration d. Equivalent to
	// time.Sleep.
	Sleep(d time.Duration)
}

// Remaining returns how long is left until deadline according to c,
// or zero once the deadline has passed.
func Remaining(c Clock, deadline time.Time) time.Duration {
	remaining := deadline.Sub(c.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
