// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"github.com/bureau-foundation/termdrift/lib/snapshot"
	"github.com/bureau-foundation/termdrift/lib/termproto"
)

// DefaultSuspiciousModes are the modes that are surprising to find left
// on after an application exits: every mouse tracking variant except
// X10, focus tracking, the alternate screen, bracketed paste, and
// synchronized output.
var DefaultSuspiciousModes = []termproto.Mode{
	termproto.ModeMouseButtonEvent,
	termproto.ModeMouseAnyEvent,
	termproto.ModeFocusTracking,
	termproto.ModeMouseUTF8,
	termproto.ModeMouseSGR,
	termproto.ModeMouseURXVT,
	termproto.ModeMouseSGRPixels,
	termproto.ModeAlternateScreenBuffer,
	termproto.ModeBracketedPaste,
	termproto.ModeSynchronizedOutput,
}

// ModeChange is a mode whose report differs between two snapshots. A
// side without a report carries termproto.StateMissing.
type ModeChange struct {
	Mode   termproto.Mode         `json:"mode,string"`
	Label  string                 `json:"label"`
	Before termproto.ModeResponse `json:"before"`
	After  termproto.ModeResponse `json:"after"`
}

// Enabled reports whether the change turned the mode on.
func (c ModeChange) Enabled() bool {
	return !c.Before.State.Enabled() && c.After.State.Enabled()
}

// ModeDiff is the per-mode comparison of two snapshots.
type ModeDiff struct {
	Before map[termproto.Mode]termproto.ModeResponse `json:"before"`
	After  map[termproto.Mode]termproto.ModeResponse `json:"after"`

	// Changes lists every mode whose value or state differs, in
	// ascending mode order.
	Changes []ModeChange `json:"changes"`

	// SuspiciousChanges is the subset of Changes that enabled a mode
	// from the suspicious set.
	SuspiciousChanges []ModeChange `json:"suspicious_changes"`
}

// KeyboardDiff compares the kitty keyboard flags of two snapshots.
type KeyboardDiff struct {
	Before *string `json:"before"`
	After  *string `json:"after"`

	Changed bool `json:"changed"`

	// Suspicious is set when the flags changed and the after value is
	// non-empty: the application pushed a keyboard mode and did not pop
	// it.
	Suspicious bool `json:"suspicious"`
}

// ProtocolDiff is the full terminal protocol comparison.
type ProtocolDiff struct {
	// BeforeStatus and AfterStatus are nil when the snapshot document
	// was absent.
	BeforeStatus *snapshot.Status `json:"before_status"`
	AfterStatus  *snapshot.Status `json:"after_status"`

	Modes    ModeDiff     `json:"modes"`
	Keyboard KeyboardDiff `json:"kitty_keyboard"`
}

// Suspicious reports whether the diff shows protocol state the
// application left behind.
func (d ProtocolDiff) Suspicious() bool {
	return len(d.Modes.SuspiciousChanges) > 0 || d.Keyboard.Suspicious
}

// CompareModes compares two snapshots. The modes compared are the union
// of both snapshots' reports; suspicious names the modes whose enabling
// is suspicious (nil means DefaultSuspiciousModes).
func CompareModes(before, after snapshot.Snapshot, suspicious []termproto.Mode) ProtocolDiff {
	if suspicious == nil {
		suspicious = DefaultSuspiciousModes
	}
	suspiciousSet := make(map[termproto.Mode]bool, len(suspicious))
	for _, mode := range suspicious {
		suspiciousSet[mode] = true
	}

	union := make(map[termproto.Mode]struct{}, len(before.Modes)+len(after.Modes))
	for mode := range before.Modes {
		union[mode] = struct{}{}
	}
	for mode := range after.Modes {
		union[mode] = struct{}{}
	}

	diff := ProtocolDiff{
		BeforeStatus: statusOrNil(before.Status),
		AfterStatus:  statusOrNil(after.Status),
		Modes: ModeDiff{
			Before:            copyModes(before.Modes),
			After:             copyModes(after.Modes),
			Changes:           []ModeChange{},
			SuspiciousChanges: []ModeChange{},
		},
		Keyboard: compareKeyboard(before.Keyboard, after.Keyboard),
	}

	for _, mode := range termproto.SortedModes(union) {
		beforeResponse := before.Mode(mode)
		afterResponse := after.Mode(mode)
		if beforeResponse.Equal(afterResponse) {
			continue
		}
		change := ModeChange{
			Mode:   mode,
			Label:  mode.Label(),
			Before: beforeResponse,
			After:  afterResponse,
		}
		diff.Modes.Changes = append(diff.Modes.Changes, change)
		if suspiciousSet[mode] && change.Enabled() {
			diff.Modes.SuspiciousChanges = append(diff.Modes.SuspiciousChanges, change)
		}
	}
	return diff
}

func compareKeyboard(before, after termproto.KeyboardState) KeyboardDiff {
	changed := !sameString(before.Current, after.Current)
	return KeyboardDiff{
		Before:     before.Current,
		After:      after.Current,
		Changed:    changed,
		Suspicious: changed && after.CurrentValue() != "",
	}
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func statusOrNil(status snapshot.Status) *snapshot.Status {
	if status == "" {
		return nil
	}
	return &status
}

func copyModes(modes map[termproto.Mode]termproto.ModeResponse) map[termproto.Mode]termproto.ModeResponse {
	copied := make(map[termproto.Mode]termproto.ModeResponse, len(modes))
	for mode, response := range modes {
		copied[mode] = response
	}
	return copied
}
