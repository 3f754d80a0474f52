// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/termdrift/lib/drift"
	"github.com/bureau-foundation/termdrift/lib/snapshot"
	"github.com/bureau-foundation/termdrift/lib/termproto"
	"github.com/bureau-foundation/termdrift/lib/transcript"
)

func modeSnapshot(values map[termproto.Mode]int) snapshot.Snapshot {
	modes := make(map[termproto.Mode]termproto.ModeResponse, len(values))
	for mode, value := range values {
		value := value
		modes[mode] = termproto.ModeResponse{Mode: mode, Value: &value, State: termproto.StateFromValue(value)}
	}
	return snapshot.Snapshot{Status: snapshot.StatusOK, Modes: modes}
}

// driftSummary is a session that left the alternate screen on, with
// bracketed paste already enabled in the shell beforehand.
func driftSummary() drift.Summary {
	evidence := drift.NewEvidence(
		modeSnapshot(map[termproto.Mode]int{1049: 2, 2004: 1}),
		modeSnapshot(map[termproto.Mode]int{1049: 1, 2004: 1}),
		"isig icanon echo", "isig icanon -echo",
		transcript.Analyze("__ISSUE26_ENTER_PROBE__0d__ __ISSUE26_TAB_PROBE__timeout__", ""),
		nil,
	)
	summary := drift.Summarize(evidence, drift.Classify(evidence))
	exitCode := 0
	summary.GeneratedAt = "2026-03-04T05:06:07Z"
	summary.OutDir = "/tmp/capture"
	summary.RunnerExitCode = &exitCode
	summary.Inputs = map[string]string{"session.typescript": "abc123", "stty.before.txt": "def456"}
	return summary
}

func TestMarkdown(t *testing.T) {
	text := Markdown(driftSummary())

	for _, want := range []string{
		"# Terminal Drift Summary\n",
		"- runner_exit_code: 0\n",
		"- analysis_status: ok\n",
		"- suspected_category: line_discipline_leak\n",
		"- tty_pollution_suspected: yes\n",
		"| enter_value | 0d |\n",
		"| tab_value | timeout |\n",
		"| ctrl_interrupted | no |\n",
		"- stty_changes: echo:on->off\n",
		"- protocol_signals: caret_csi=0, raw_csi_u=0, raw_focus_toggle=0\n",
		"- terminal_protocol_snapshot_status: before=ok, after=ok\n",
		"- terminal_protocol_mode_changes: 1\n",
		"- terminal_protocol_suspicious_changes: 1\n",
		"- probe_timeouts: tab\n",
		"## Suspicious Terminal Protocol Changes\n\n- alternate_screen_buffer(1049): reset -> set\n",
		"## Enabled After Run\n\n- alternate_screen_buffer(1049): set\n- bracketed_paste(2004): set\n",
		"## Evidence\n\n- stty flag drift detected in isig/icanon/echo\n",
		"| session.typescript | `abc123` |\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "## Capture Errors") {
		t.Error("capture errors section rendered without errors")
	}
	// Inputs are listed in name order.
	if strings.Index(text, "session.typescript") > strings.Index(text, "stty.before.txt") {
		t.Error("inputs not sorted by name")
	}
}

func TestMarkdown_EmptySummary(t *testing.T) {
	text := Markdown(drift.Summary{})
	for _, want := range []string{
		"- runner_exit_code: n/a\n",
		"- suspected_category: n/a\n",
		"- tty_pollution_suspected: inconclusive\n",
		"| enter_value | n/a |\n",
		"- stty_changes: none\n",
		"- terminal_protocol_snapshot_status: before=n/a, after=n/a\n",
		"- probe_timeouts: none\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q:\n%s", want, text)
		}
	}
	for _, heading := range []string{"## Evidence", "## Enabled After Run", "## Inputs"} {
		if strings.Contains(text, heading) {
			t.Errorf("empty summary rendered %q", heading)
		}
	}
}

func TestHTML(t *testing.T) {
	page, err := HTML(driftSummary())
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	text := string(page)
	for _, want := range []string{
		"<title>Terminal Drift Summary: yes</title>",
		"<h1>Terminal Drift Summary</h1>",
		"<table>",
		"<td>enter_value</td>",
		"<h2>Enabled After Run</h2>",
		"<code>abc123</code>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestTerminal(t *testing.T) {
	summary := driftSummary()

	plain := Terminal(summary, false)
	if strings.Contains(plain, "\x1b[") {
		t.Errorf("unstyled output contains escape sequences: %q", plain)
	}
	for _, want := range []string{
		"TTY pollution suspected: yes\n",
		"  status:   ok\n",
		"  category: line_discipline_leak\n",
		"  - stty echo: on -> off\n",
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("terminal output missing %q:\n%s", want, plain)
		}
	}

	styled := Terminal(summary, true)
	if !strings.Contains(styled, "\x1b[") {
		t.Errorf("styled output has no escape sequences: %q", styled)
	}

	inconclusive := Terminal(drift.Summary{AnalysisStatus: drift.StatusProbeTimeout}, false)
	if !strings.HasPrefix(inconclusive, "TTY pollution suspected: inconclusive\n") {
		t.Errorf("inconclusive output = %q", inconclusive)
	}
}
