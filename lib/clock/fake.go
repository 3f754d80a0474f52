// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance or Sleep is called, or until auto-advance is
// enabled with SetAutoAdvance.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing.
//
// The code under test is single-threaded: a deadline loop reads Now,
// does bounded work, and reads Now again. There is no second goroutine
// to call Advance, so Sleep moves the fake time forward itself and
// SetAutoAdvance makes every Now call step the clock. Either way a
// deadline loop driven by a FakeClock always terminates.
type FakeClock struct {
	mu          sync.Mutex
	current     time.Time
	autoAdvance time.Duration
	nowCalls    int
	slept       time.Duration
}

// Now returns the current fake time, then steps the clock by the
// auto-advance interval if one is set.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.autoAdvance)
	c.nowCalls++
	return now
}

// Sleep advances the fake time by d without blocking. Negative and
// zero durations are no-ops.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	c.slept += d
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// SetAutoAdvance makes every subsequent Now call step the clock by d
// after reading it. Zero disables auto-advance.
func (c *FakeClock) SetAutoAdvance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoAdvance = d
}

// NowCalls returns how many times Now has been called. Tests use it to
// bound the iteration count of polling loops.
func (c *FakeClock) NowCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowCalls
}

// Slept returns the total duration passed to Sleep.
func (c *FakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}
