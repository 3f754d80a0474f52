// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockSleepAdvances(t *testing.T) {
	clock := Fake(epoch)
	clock.Sleep(250 * time.Millisecond)
	clock.Sleep(0)
	clock.Sleep(-time.Second)

	if got := clock.Now(); !got.Equal(epoch.Add(250 * time.Millisecond)) {
		t.Errorf("Now() after Sleep = %v", got)
	}
	if got := clock.Slept(); got != 250*time.Millisecond {
		t.Errorf("Slept() = %v, want 250ms", got)
	}
}

func TestFakeClockAutoAdvance(t *testing.T) {
	clock := Fake(epoch)
	clock.SetAutoAdvance(20 * time.Millisecond)

	first := clock.Now()
	second := clock.Now()
	if !first.Equal(epoch) {
		t.Errorf("first Now() = %v, want epoch", first)
	}
	if got := second.Sub(first); got != 20*time.Millisecond {
		t.Errorf("step = %v, want 20ms", got)
	}
	if got := clock.NowCalls(); got != 2 {
		t.Errorf("NowCalls() = %d, want 2", got)
	}

	clock.SetAutoAdvance(0)
	if a, b := clock.Now(), clock.Now(); !a.Equal(b) {
		t.Errorf("auto-advance not disabled: %v then %v", a, b)
	}
}

func TestAutoAdvanceBoundsDeadlineLoop(t *testing.T) {
	clock := Fake(epoch)
	clock.SetAutoAdvance(10 * time.Millisecond)

	deadline := clock.Now().Add(100 * time.Millisecond)
	iterations := 0
	for Remaining(clock, deadline) > 0 {
		iterations++
		if iterations > 1000 {
			t.Fatal("deadline loop did not terminate")
		}
	}
	if iterations != 9 {
		t.Errorf("iterations = %d, want 9", iterations)
	}
}

func TestRemaining(t *testing.T) {
	clock := Fake(epoch)
	if got := Remaining(clock, epoch.Add(time.Second)); got != time.Second {
		t.Errorf("Remaining = %v, want 1s", got)
	}
	if got := Remaining(clock, epoch.Add(-time.Second)); got != 0 {
		t.Errorf("Remaining past deadline = %v, want 0", got)
	}
}

func TestRealClock(t *testing.T) {
	before := time.Now()
	now := Real().Now()
	if now.Before(before) {
		t.Errorf("Real().Now() = %v, before %v", now, before)
	}
}
