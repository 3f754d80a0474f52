// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report renders a drift summary for people: summary.md, an
// optional HTML rendering of it, and a short verdict for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bureau-foundation/termdrift/lib/drift"
	"github.com/bureau-foundation/termdrift/lib/linedisc"
	"github.com/bureau-foundation/termdrift/lib/termproto"
)

// Markdown renders the summary.md document.
func Markdown(summary drift.Summary) string {
	var builder strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&builder, format, args...)
		builder.WriteByte('\n')
	}

	protocols := summary.TerminalProtocols
	probes := summary.Probes
	signals := summary.ProtocolSignals

	line("# Terminal Drift Summary")
	line("")
	line("- generated_at: %s", summary.GeneratedAt)
	line("- out_dir: %s", summary.OutDir)
	line("- runner_exit_code: %s", optionalInt(summary.RunnerExitCode))
	line("- analysis_status: %s", summary.AnalysisStatus)
	line("- suspected_category: %s", optionalCategory(summary.SuspectedCategory))
	line("- tty_pollution_suspected: %s", drift.PollutionLabel(summary.Suspected))
	line("")
	line("| Probe | Value |")
	line("| --- | --- |")
	line("| enter_value | %s |", optionalString(probes.EnterValue))
	line("| tab_value | %s |", optionalString(probes.TabValue))
	line("| ctrl_interrupted | %s |", yesNo(probes.CtrlInterrupted))
	line("| ctrl_done | %s |", yesNo(probes.CtrlDone))
	line("| raw_leak_detected | %s |", yesNo(probes.RawLeakDetected))
	line("")
	line("- stty_changes: %s", sttyChanges(summary.Stty.Changes))
	line("- protocol_signals: caret_csi=%d, raw_csi_u=%d, raw_focus_toggle=%d",
		signals.CaretCSICount, signals.RawCSIuCount, signals.RawFocusToggleCount)
	line("- terminal_protocol_snapshot_status: before=%s, after=%s",
		optionalStatus(protocols.BeforeStatus), optionalStatus(protocols.AfterStatus))
	line("- terminal_protocol_mode_changes: %d", len(protocols.Modes.Changes))
	line("- terminal_protocol_suspicious_changes: %d", len(protocols.Modes.SuspiciousChanges))
	line("- kitty_state_changed: %s", yesNo(protocols.Keyboard.Changed))
	line("- probe_timeouts: %s", joinOrNone(summary.ProbeTimeouts))
	line("")

	if changes := protocols.Modes.SuspiciousChanges; len(changes) > 0 {
		line("## Suspicious Terminal Protocol Changes")
		line("")
		for _, change := range changes {
			line("- %s(%d): %s -> %s", change.Label, change.Mode, change.Before.State, change.After.State)
		}
		line("")
	}

	// Absolute after-state, independent of the baseline.
	if enabled := enabledAfter(protocols.Modes.After); len(enabled) > 0 {
		line("## Enabled After Run")
		line("")
		for _, mode := range enabled {
			line("- %s(%d): %s", mode.Label(), mode, protocols.Modes.After[mode].State)
		}
		line("")
	}

	writeList(line, "Evidence", summary.Evidence)
	writeList(line, "Capture Errors", summary.CaptureErrors)

	if len(summary.Inputs) > 0 {
		names := make([]string, 0, len(summary.Inputs))
		for name := range summary.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		line("## Inputs")
		line("")
		line("| File | BLAKE3 |")
		line("| --- | --- |")
		for _, name := range names {
			line("| %s | `%s` |", name, summary.Inputs[name])
		}
		line("")
	}
	return builder.String()
}

func writeList(line func(string, ...any), heading string, items []string) {
	if len(items) == 0 {
		return
	}
	line("## %s", heading)
	line("")
	for _, item := range items {
		line("- %s", item)
	}
	line("")
}

func enabledAfter(after map[termproto.Mode]termproto.ModeResponse) []termproto.Mode {
	var enabled []termproto.Mode
	for _, mode := range termproto.SortedModes(after) {
		if after[mode].State.Enabled() {
			enabled = append(enabled, mode)
		}
	}
	return enabled
}

func sttyChanges(changes []linedisc.Change) string {
	if len(changes) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(changes))
	for _, change := range changes {
		parts = append(parts, fmt.Sprintf("%s:%s->%s", change.Flag, onOff(change.Before), onOff(change.After)))
	}
	return strings.Join(parts, ", ")
}

func onOff(value bool) string {
	if value {
		return "on"
	}
	return "off"
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func optionalString(value *string) string {
	if value == nil || *value == "" {
		return "n/a"
	}
	return *value
}

func optionalInt(value *int) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprint(*value)
}

func optionalCategory(value *drift.Category) string {
	if value == nil {
		return "n/a"
	}
	return string(*value)
}

func optionalStatus[S ~string](value *S) string {
	if value == nil || *value == "" {
		return "n/a"
	}
	return string(*value)
}
