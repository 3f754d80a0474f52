// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcript extracts drift signals from a recorded terminal
// session (a script(1) typescript).
//
// The external harness prints marker lines while it drives the
// application under test: the byte read for a synthetic Enter and Tab
// key press, and whether a synthetic Ctrl-C interrupted the probe loop.
// Markers look like
//
//	__ISSUE26_ENTER_PROBE__0d__
//	__ISSUE26_TAB_PROBE__timeout__
//	__ISSUE26_CTRL_INTERRUPTED__
//
// where ISSUE26 is the configurable marker prefix. Markers are searched
// in the text with escape sequences stripped, so a styled or
// cursor-positioned marker still matches, and then in the raw text.
//
// Leak counts are taken from the raw text: caret-notation CSI fragments
// ("^[[A") appear when an application echoes escape sequences it did not
// consume, and raw CSI-u or focus-toggle sequences appear when a
// keyboard or focus protocol is still active.
package transcript

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// DefaultMarkerPrefix is the marker prefix the harness prints.
const DefaultMarkerPrefix = "ISSUE26"

// ProbeTimeout is the probe value printed when no byte arrived.
const ProbeTimeout = "timeout"

// Probe names used in markers and in ProbeTimeouts.
const (
	ProbeEnter = "enter"
	ProbeTab   = "tab"
)

// Signals is everything the classifier needs from a transcript.
type Signals struct {
	// EnterProbe and TabProbe hold the lowercase hex byte read for the
	// synthetic key, ProbeTimeout, or nil when the marker is absent.
	EnterProbe *string
	TabProbe   *string

	CtrlInterrupted bool
	CtrlDone        bool

	// RawLeak is set when caret-notation arrow keys appear.
	RawLeak bool

	CaretCSICount       int
	RawCSIuCount        int
	RawFocusToggleCount int

	// CaptureErrors describes crashes or environment failures recorded
	// during the capture. Any entry taints the whole session.
	CaptureErrors []string
}

// ProbeTimeouts returns the names of probes that timed out, Enter first.
// The result is never nil.
func (s Signals) ProbeTimeouts() []string {
	timeouts := []string{}
	if s.EnterProbe != nil && *s.EnterProbe == ProbeTimeout {
		timeouts = append(timeouts, ProbeEnter)
	}
	if s.TabProbe != nil && *s.TabProbe == ProbeTimeout {
		timeouts = append(timeouts, ProbeTab)
	}
	return timeouts
}

// HasLeakCounts reports whether any CSI-fragment count is non-zero.
func (s Signals) HasLeakCounts() bool {
	return s.CaretCSICount > 0 || s.RawCSIuCount > 0 || s.RawFocusToggleCount > 0
}

var (
	caretCSIPattern        = regexp.MustCompile(`\^\[\[[0-9;]*[A-Za-z~u]`)
	rawCSIuPattern         = regexp.MustCompile(`\x1b\[[0-9;]*u`)
	rawFocusTogglePattern  = regexp.MustCompile(`\x1b\[\?1004[hl]`)
	caretArrowKeyFragments = []string{"^[[A", "^[[B", "^[[C", "^[[D"}
)

// captureErrorChecks pairs each needle with its message. A check with
// several needles matches only when all are present.
var captureErrorChecks = []struct {
	needles []string
	message string
}{
	{[]string{"termios.error"}, "termios.error occurred during probe"},
	{[]string{"Inappropriate ioctl for device"}, "stdin was not a tty during probe"},
	{[]string{"Traceback (most recent call last):"}, "python traceback detected in capture"},
	{[]string{"SyntaxError:"}, "python probe syntax error detected"},
	{[]string{"panic: ", "goroutine "}, "go panic detected in capture"},
}

// Analyzer extracts Signals for one marker prefix.
type Analyzer struct {
	enterProbe      *regexp.Regexp
	tabProbe        *regexp.Regexp
	ctrlInterrupted string
	ctrlDone        string
}

// NewAnalyzer returns an Analyzer for prefix. An empty prefix means
// DefaultMarkerPrefix.
func NewAnalyzer(prefix string) *Analyzer {
	if prefix == "" {
		prefix = DefaultMarkerPrefix
	}
	return &Analyzer{
		enterProbe:      probePattern(prefix, "ENTER"),
		tabProbe:        probePattern(prefix, "TAB"),
		ctrlInterrupted: "__" + prefix + "_CTRL_INTERRUPTED__",
		ctrlDone:        "__" + prefix + "_CTRL_DONE__",
	}
}

func probePattern(prefix, name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)__` + regexp.QuoteMeta(prefix) + `_` + name + `_PROBE__([0-9a-f]+|timeout)__`)
}

// Analyze is NewAnalyzer(prefix).Analyze(text).
func Analyze(text, prefix string) Signals {
	return NewAnalyzer(prefix).Analyze(text)
}

// Analyze extracts signals from a transcript. Empty text yields zero
// Signals with a non-nil empty CaptureErrors.
func (a *Analyzer) Analyze(text string) Signals {
	visible := ansi.Strip(text)

	signals := Signals{
		EnterProbe:          findProbe(a.enterProbe, visible, text),
		TabProbe:            findProbe(a.tabProbe, visible, text),
		CtrlInterrupted:     containsEither(visible, text, a.ctrlInterrupted),
		CtrlDone:            containsEither(visible, text, a.ctrlDone),
		CaretCSICount:       len(caretCSIPattern.FindAllStringIndex(text, -1)),
		RawCSIuCount:        len(rawCSIuPattern.FindAllStringIndex(text, -1)),
		RawFocusToggleCount: len(rawFocusTogglePattern.FindAllStringIndex(text, -1)),
		CaptureErrors:       []string{},
	}
	for _, fragment := range caretArrowKeyFragments {
		if strings.Contains(text, fragment) {
			signals.RawLeak = true
			break
		}
	}
	for _, check := range captureErrorChecks {
		if containsAll(visible, check.needles) || containsAll(text, check.needles) {
			signals.CaptureErrors = append(signals.CaptureErrors, check.message)
		}
	}
	return signals
}

func findProbe(pattern *regexp.Regexp, texts ...string) *string {
	for _, text := range texts {
		if match := pattern.FindStringSubmatch(text); match != nil {
			value := strings.ToLower(match[1])
			return &value
		}
	}
	return nil
}

func containsEither(visible, raw, marker string) bool {
	return strings.Contains(visible, marker) || strings.Contains(raw, marker)
}

func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}
