// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/termdrift/lib/linedisc"
	"github.com/bureau-foundation/termdrift/lib/snapshot"
	"github.com/bureau-foundation/termdrift/lib/termproto"
	"github.com/bureau-foundation/termdrift/lib/transcript"
)

// Evidence is everything the classifier looks at. Build it with
// NewEvidence; rules only read it.
type Evidence struct {
	// SttyBefore and SttyAfter are empty when either stty capture is
	// missing, in which case SttyChanges is empty too.
	SttyBefore  linedisc.Flags
	SttyAfter   linedisc.Flags
	SttyChanges []linedisc.Change

	Protocol ProtocolDiff
	Signals  transcript.Signals
}

// NewEvidence assembles the classifier input. The stty texts are
// compared only when both are non-empty: a missing after capture means
// the runner died before it could record one. suspicious is passed to
// CompareModes.
func NewEvidence(before, after snapshot.Snapshot, sttyBefore, sttyAfter string, signals transcript.Signals, suspicious []termproto.Mode) Evidence {
	evidence := Evidence{
		SttyBefore:  linedisc.Flags{},
		SttyAfter:   linedisc.Flags{},
		SttyChanges: []linedisc.Change{},
		Protocol:    CompareModes(before, after, suspicious),
		Signals:     signals,
	}
	if sttyBefore != "" && sttyAfter != "" {
		evidence.SttyBefore = linedisc.Parse(sttyBefore)
		evidence.SttyAfter = linedisc.Parse(sttyAfter)
		evidence.SttyChanges = linedisc.Diff(evidence.SttyBefore, evidence.SttyAfter)
	}
	return evidence
}

// SevereSttyChange reports whether isig, icanon or echo was turned off.
func (e Evidence) SevereSttyChange() bool {
	return linedisc.AnySevere(e.SttyChanges)
}

// ProbeAnomalies describes every probe result that differs from what a
// sane cooked terminal produces: Enter reads 0d or 0a, Tab reads 09, and
// Ctrl-C interrupts the probe loop before it finishes. A probe whose
// marker is absent was not run and is not an anomaly.
func (e Evidence) ProbeAnomalies() []string {
	var anomalies []string
	if probe := e.Signals.EnterProbe; probe != nil && *probe != "0d" && *probe != "0a" {
		anomalies = append(anomalies, fmt.Sprintf("enter probe read %s, expected 0d or 0a", *probe))
	}
	if probe := e.Signals.TabProbe; probe != nil && *probe != "09" {
		anomalies = append(anomalies, fmt.Sprintf("tab probe read %s, expected 09", *probe))
	}
	interrupted, done := e.Signals.CtrlInterrupted, e.Signals.CtrlDone
	switch {
	case done && interrupted:
		anomalies = append(anomalies, "ctrl-c probe both interrupted and completed")
	case done:
		anomalies = append(anomalies, "ctrl-c probe completed without being interrupted")
	}
	return anomalies
}

// InputAnomaly reports whether the transcript shows input that a sane
// terminal would not produce.
func (e Evidence) InputAnomaly() bool {
	return len(e.ProbeAnomalies()) > 0 || e.Signals.RawLeak || e.Signals.HasLeakCounts()
}

// ProbeBytesLookLikeCSI reports whether a probe read ESC or '[' instead
// of the key, meaning the terminal sent an escape sequence for it.
func (e Evidence) ProbeBytesLookLikeCSI() bool {
	for _, probe := range []*string{e.Signals.EnterProbe, e.Signals.TabProbe} {
		if probe != nil && (*probe == "1b" || *probe == "5b") {
			return true
		}
	}
	return false
}

// Rule is one step of the classification order. Match and Apply must be
// pure functions of the evidence.
type Rule struct {
	Name  string
	Match func(Evidence) bool
	Apply func(Evidence) Verdict
}

// DefaultRules returns the classification order. The first matching
// rule decides; the last rule always matches.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "capture_error", Match: matchCaptureError, Apply: applyCaptureError},
		{Name: "probe_timeout", Match: matchProbeTimeout, Apply: applyProbeTimeout},
		{Name: "line_discipline_leak", Match: Evidence.SevereSttyChange, Apply: applyLineDisciplineLeak},
		{Name: "terminal_protocol_state_drift", Match: matchProtocolDrift, Apply: applyProtocolDrift},
		{Name: "terminal_protocol_leak", Match: matchProtocolLeak, Apply: applyProtocolLeak},
		{Name: "input_probe_anomaly", Match: Evidence.InputAnomaly, Apply: applyInputAnomaly},
		{Name: "none", Match: func(Evidence) bool { return true }, Apply: applyNone},
	}
}

// Classify applies DefaultRules.
func Classify(evidence Evidence) Verdict {
	return ClassifyWith(DefaultRules(), evidence)
}

// ClassifyWith returns the verdict of the first matching rule. When no
// rule matches the verdict is category none, not suspected.
func ClassifyWith(rules []Rule, evidence Evidence) Verdict {
	for _, rule := range rules {
		if rule.Match(evidence) {
			verdict := rule.Apply(evidence)
			if verdict.Evidence == nil {
				verdict.Evidence = []string{}
			}
			return verdict
		}
	}
	return applyNone(evidence)
}

func matchCaptureError(e Evidence) bool {
	return len(e.Signals.CaptureErrors) > 0
}

func applyCaptureError(e Evidence) Verdict {
	lines := make([]string, 0, len(e.Signals.CaptureErrors))
	for _, message := range e.Signals.CaptureErrors {
		lines = append(lines, "capture tainted: "+message)
	}
	return Verdict{Status: StatusCaptureError, Evidence: lines}
}

func matchProbeTimeout(e Evidence) bool {
	return len(e.Signals.ProbeTimeouts()) > 0 &&
		!e.SevereSttyChange() &&
		!e.Signals.RawLeak &&
		!e.Protocol.Suspicious()
}

func applyProbeTimeout(e Evidence) Verdict {
	return Verdict{
		Status:   StatusProbeTimeout,
		Category: categoryPointer(CategoryProbeTimeout),
		Evidence: []string{
			"probe timeout(s): " + strings.Join(e.Signals.ProbeTimeouts(), ", "),
			"result is inconclusive because no key byte was captured",
		},
	}
}

func applyLineDisciplineLeak(e Evidence) Verdict {
	lines := []string{"stty flag drift detected in isig/icanon/echo"}
	for _, change := range e.SttyChanges {
		lines = append(lines, fmt.Sprintf("stty %s: %s -> %s", change.Flag, onOff(change.Before), onOff(change.After)))
	}
	return suspectedVerdict(CategoryLineDisciplineLeak, lines)
}

func matchProtocolDrift(e Evidence) bool {
	return e.Protocol.Suspicious()
}

func applyProtocolDrift(e Evidence) Verdict {
	var lines []string
	for _, change := range e.Protocol.Modes.SuspiciousChanges {
		lines = append(lines, fmt.Sprintf("terminal mode enabled after run: %s(%d) %s->%s",
			change.Label, change.Mode, change.Before.State, change.After.State))
	}
	if keyboard := e.Protocol.Keyboard; keyboard.Suspicious {
		lines = append(lines, fmt.Sprintf("kitty keyboard state changed and remained enabled (%s -> %s)",
			optional(keyboard.Before), optional(keyboard.After)))
	}
	return suspectedVerdict(CategoryTerminalProtocolStateDrift, lines)
}

func matchProtocolLeak(e Evidence) bool {
	return e.InputAnomaly() && (e.ProbeBytesLookLikeCSI() || e.Signals.HasLeakCounts())
}

func applyProtocolLeak(e Evidence) Verdict {
	var lines []string
	if e.ProbeBytesLookLikeCSI() {
		lines = append(lines, "probe bytes look like CSI prefix (ESC/[)")
	}
	if signals := e.Signals; signals.HasLeakCounts() {
		lines = append(lines, fmt.Sprintf("CSI-style sequences observed in transcript (caret_csi=%d, raw_csi_u=%d, raw_focus_toggle=%d)",
			signals.CaretCSICount, signals.RawCSIuCount, signals.RawFocusToggleCount))
	}
	lines = append(lines, e.ProbeAnomalies()...)
	return suspectedVerdict(CategoryTerminalProtocolLeak, lines)
}

func applyInputAnomaly(e Evidence) Verdict {
	lines := []string{"probe bytes unexpected without clear stty drift"}
	if e.Signals.RawLeak {
		lines = append(lines, "caret-notation arrow keys echoed in transcript")
	}
	lines = append(lines, e.ProbeAnomalies()...)
	return suspectedVerdict(CategoryInputProbeAnomaly, lines)
}

func applyNone(Evidence) Verdict {
	return Verdict{
		Status:    StatusOK,
		Category:  categoryPointer(CategoryNone),
		Suspected: boolPointer(false),
		Evidence:  []string{},
	}
}

func suspectedVerdict(category Category, lines []string) Verdict {
	return Verdict{
		Status:    StatusOK,
		Category:  categoryPointer(category),
		Suspected: boolPointer(true),
		Evidence:  lines,
	}
}

func onOff(value bool) string {
	if value {
		return "on"
	}
	return "off"
}

func optional(value *string) string {
	if value == nil {
		return "none"
	}
	return *value
}
