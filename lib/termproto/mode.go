// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termproto

import (
	"slices"
	"strconv"

	"github.com/charmbracelet/x/ansi"
)

// Mode is a DEC private mode number.
type Mode int

// DEC private modes with known meanings.
const (
	ModeMouseX10              Mode = 1000
	ModeMouseButtonEvent      Mode = 1002
	ModeMouseAnyEvent         Mode = 1003
	ModeFocusTracking         Mode = 1004
	ModeMouseUTF8             Mode = 1005
	ModeMouseSGR              Mode = 1006
	ModeMouseURXVT            Mode = 1015
	ModeMouseSGRPixels        Mode = 1016
	ModeAlternateScreenBuffer Mode = 1049
	ModeBracketedPaste        Mode = 2004
	ModeSynchronizedOutput    Mode = 2026
)

// KnownModes maps every mode this package has a name for to its label.
// Labels are stable identifiers written into reports.
var KnownModes = map[Mode]string{
	ModeMouseX10:              "mouse_x10",
	ModeMouseButtonEvent:      "mouse_button_event_tracking",
	ModeMouseAnyEvent:         "mouse_any_event_tracking",
	ModeFocusTracking:         "focus_tracking",
	ModeMouseUTF8:             "mouse_utf8",
	ModeMouseSGR:              "mouse_sgr",
	ModeMouseURXVT:            "mouse_urxvt",
	ModeMouseSGRPixels:        "mouse_sgr_pixels",
	ModeAlternateScreenBuffer: "alternate_screen_buffer",
	ModeBracketedPaste:        "bracketed_paste",
	ModeSynchronizedOutput:    "synchronized_output",
}

// Known reports whether the mode is in [KnownModes].
func (m Mode) Known() bool {
	_, ok := KnownModes[m]
	return ok
}

// Label returns the human label for the mode, or "mode_<n>" when the
// mode is not in [KnownModes].
func (m Mode) Label() string {
	if label, ok := KnownModes[m]; ok {
		return label
	}
	return "mode_" + strconv.Itoa(int(m))
}

func (m Mode) String() string {
	return strconv.Itoa(int(m))
}

// SortedModes returns the keys of a mode-keyed map in numeric order.
func SortedModes[V any](byMode map[Mode]V) []Mode {
	modes := make([]Mode, 0, len(byMode))
	for mode := range byMode {
		modes = append(modes, mode)
	}
	slices.Sort(modes)
	return modes
}

// ModeState is the decoded setting of a DEC private mode.
type ModeState string

const (
	StateNotRecognized    ModeState = "not_recognized"
	StateSet              ModeState = "set"
	StateReset            ModeState = "reset"
	StatePermanentlySet   ModeState = "permanently_set"
	StatePermanentlyReset ModeState = "permanently_reset"

	// StateUnknown is a report value outside the five standardized
	// settings.
	StateUnknown ModeState = "unknown"

	// StateMissing marks a mode that has no report in a snapshot. It is
	// never produced by the decoder; comparisons use it for the absent
	// side.
	StateMissing ModeState = "missing"
)

// StateFromValue maps a DECRPM value to its state.
func StateFromValue(value int) ModeState {
	if value < int(ansi.ModeNotRecognized) || value > int(ansi.ModePermanentlyReset) {
		return StateUnknown
	}
	return StateFromSetting(ansi.ModeSetting(value))
}

// StateFromSetting maps one of the five standardized settings to its
// state.
func StateFromSetting(setting ansi.ModeSetting) ModeState {
	switch setting {
	case ansi.ModeNotRecognized:
		return StateNotRecognized
	case ansi.ModeSet:
		return StateSet
	case ansi.ModeReset:
		return StateReset
	case ansi.ModePermanentlySet:
		return StatePermanentlySet
	case ansi.ModePermanentlyReset:
		return StatePermanentlyReset
	default:
		return StateUnknown
	}
}

// Enabled reports whether the state means the mode is active.
func (s ModeState) Enabled() bool {
	return s == StateSet || s == StatePermanentlySet
}

// ModeResponse is one decoded mode report. Value is nil only when the
// report is synthesized (StateMissing) or was loaded from a stored
// document whose value could not be parsed.
type ModeResponse struct {
	Mode  Mode      `json:"-"`
	Value *int      `json:"value"`
	State ModeState `json:"state"`
}

// Missing returns the placeholder response for a mode absent from a
// snapshot.
func Missing(mode Mode) ModeResponse {
	return ModeResponse{Mode: mode, State: StateMissing}
}

// Equal compares value and state. Both must match: a stored document
// may carry an explicit state that differs from what its value implies.
func (r ModeResponse) Equal(other ModeResponse) bool {
	if r.State != other.State {
		return false
	}
	switch {
	case r.Value == nil && other.Value == nil:
		return true
	case r.Value == nil || other.Value == nil:
		return false
	default:
		return *r.Value == *other.Value
	}
}

// KeyboardState is the decoded kitty keyboard protocol state. Terminals
// may answer more than once; Current is the last answer in buffer order,
// or nil when no answer arrived.
type KeyboardState struct {
	Responses []string `json:"responses"`
	Current   *string  `json:"current"`
}

// CurrentValue returns Current, or "" when there was no answer.
func (k KeyboardState) CurrentValue() string {
	if k.Current == nil {
		return ""
	}
	return *k.Current
}
