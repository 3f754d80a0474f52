// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package linedisc compares terminal line-discipline settings as printed
// by stty. Platforms print different subsets of flags, so a flag that
// does not appear in the text is unknown rather than off, and an unknown
// side never counts as a change.
package linedisc

import (
	"strings"
)

// Flag is a tracked stty setting.
type Flag string

const (
	FlagISIG   Flag = "isig"
	FlagICANON Flag = "icanon"
	FlagECHO   Flag = "echo"
	FlagIEXTEN Flag = "iexten"
	FlagIXON   Flag = "ixon"
	FlagIXOFF  Flag = "ixoff"
	FlagOPOST  Flag = "opost"
)

// TrackedFlags lists the tracked flags in report order.
var TrackedFlags = []Flag{FlagISIG, FlagICANON, FlagECHO, FlagIEXTEN, FlagIXON, FlagIXOFF, FlagOPOST}

// Flags maps every tracked flag to its state. A nil value means the flag
// did not appear in the stty text.
type Flags map[Flag]*bool

// Get returns the state of flag and whether it is known.
func (f Flags) Get(flag Flag) (on bool, known bool) {
	value := f[flag]
	if value == nil {
		return false, false
	}
	return *value, true
}

// Parse reads the output of "stty -a" or "stty".
// Tokens are case-insensitive runs of letters, digits, underscores and
// hyphens. A bare flag name sets the flag; the hyphen-prefixed form
// clears it; when both appear the bare form wins.
func Parse(text string) Flags {
	tokens := make(map[string]bool)
	for _, token := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		tokens[token] = true
	}

	flags := make(Flags, len(TrackedFlags))
	for _, flag := range TrackedFlags {
		switch {
		case tokens[string(flag)]:
			flags[flag] = boolPointer(true)
		case tokens["-"+string(flag)]:
			flags[flag] = boolPointer(false)
		default:
			flags[flag] = nil
		}
	}
	return flags
}

func isSeparator(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		return false
	default:
		return true
	}
}

func boolPointer(value bool) *bool { return &value }

// Change is a tracked flag whose known state differs between two
// readings.
type Change struct {
	Flag   Flag `json:"flag"`
	Before bool `json:"before"`
	After  bool `json:"after"`
}

// Severe reports whether the change turned off signal generation,
// canonical input or echo. Any of these breaks every later keystroke in
// the shell.
func (c Change) Severe() bool {
	if c.After {
		return false
	}
	switch c.Flag {
	case FlagISIG, FlagICANON, FlagECHO:
		return true
	default:
		return false
	}
}

// Diff returns the tracked flags known on both sides whose state
// differs, in TrackedFlags order. The result is never nil.
func Diff(before, after Flags) []Change {
	changes := []Change{}
	for _, flag := range TrackedFlags {
		beforeOn, beforeKnown := before.Get(flag)
		afterOn, afterKnown := after.Get(flag)
		if !beforeKnown || !afterKnown || beforeOn == afterOn {
			continue
		}
		changes = append(changes, Change{Flag: flag, Before: beforeOn, After: afterOn})
	}
	return changes
}

// AnySevere reports whether any change is severe.
func AnySevere(changes []Change) bool {
	for _, change := range changes {
		if change.Severe() {
			return true
		}
	}
	return false
}
