// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for the
// deadline polling loops in the terminal transport.
//
// Production code accepts a Clock instead of calling time.Now or
// time.Sleep directly. In production, Real() provides the standard
// library behavior. In tests, Fake() provides a clock whose time moves
// only when the test (or the code under test, through Sleep) moves it.
//
// # Wiring Pattern
//
// Add a Clock field to the struct that owns the loop:
//
//	type Session struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	s := &Session{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c.SetAutoAdvance(10 * time.Millisecond)
//	s := &Session{clock: c}
//	// every Now() inside the loop now moves time forward, so a
//	// 100ms read window ends after a bounded number of iterations.
package clock
