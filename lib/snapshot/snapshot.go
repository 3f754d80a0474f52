// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/termdrift/lib/termproto"
)

// Status is the outcome of a capture.
type Status string

const (
	// StatusOK means every query ran. Individual modes may still be
	// unanswered.
	StatusOK Status = "ok"

	// StatusSkipped means TERM named a terminal that cannot answer
	// queries, so none were sent.
	StatusSkipped Status = "skipped_unsupported_term"

	// StatusError means the capture failed; Snapshot.Error says why.
	StatusError Status = "error"
)

// ExitCode maps a capture status to the capture command's exit code.
func (s Status) ExitCode() int {
	if s == StatusOK || s == StatusSkipped {
		return 0
	}
	return 1
}

// DefaultModes are the DEC private modes queried when none are
// configured: mouse tracking and encodings, focus tracking, the
// alternate screen, bracketed paste, and synchronized output.
var DefaultModes = []termproto.Mode{
	termproto.ModeMouseX10,
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

// Default read windows for a mode query and the keyboard query.
const (
	DefaultQueryTimeout    = 120 * time.Millisecond
	DefaultKeyboardTimeout = 120 * time.Millisecond
)

// Snapshot is the terminal protocol state observed by one capture.
type Snapshot struct {
	GeneratedAt time.Time
	CaptureID   string
	Tag         string
	TTY         string
	Term        string
	Status      Status
	Error       string

	RequestedModes []termproto.Mode

	// Modes holds at most one response per mode.
	Modes map[termproto.Mode]termproto.ModeResponse

	// ModeRaw is every byte read during the DECRQM phase.
	ModeRaw []byte

	Keyboard termproto.KeyboardState

	// KeyboardRaw is every byte read during the keyboard query.
	KeyboardRaw []byte

	// Raw is every byte observed during the capture, in arrival order.
	Raw []byte
}

// Mode returns the response for mode, or the StateMissing placeholder.
func (s Snapshot) Mode(mode termproto.Mode) termproto.ModeResponse {
	if response, ok := s.Modes[mode]; ok {
		return response
	}
	return termproto.Missing(mode)
}

// ParseModeList parses a comma-separated list of DEC private mode
// numbers. Blank entries are ignored; anything else that is not a
// positive integer is an error.
func ParseModeList(raw string) ([]termproto.Mode, error) {
	var modes []termproto.Mode
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		number, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("mode %q is not an integer", token)
		}
		if number <= 0 {
			return nil, fmt.Errorf("mode %d is not a positive DEC private mode number", number)
		}
		modes = append(modes, termproto.Mode(number))
	}
	return modes, nil
}

// unsupportedTerms are TERM values that never answer queries.
var unsupportedTerms = []string{"", "dumb"}

// IsUnsupportedTerm reports whether a TERM value names a terminal that
// must not be queried: empty, "dumb", or one of extra. Comparison is
// case-insensitive.
func IsUnsupportedTerm(term string, extra []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(term))
	for _, candidate := range unsupportedTerms {
		if normalized == candidate {
			return true
		}
	}
	for _, candidate := range extra {
		if normalized == strings.ToLower(strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}
