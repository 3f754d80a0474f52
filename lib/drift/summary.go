// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package drift

import (
	"github.com/bureau-foundation/termdrift/lib/linedisc"
)

// Summary is the summary.json document: the verdict together with every
// intermediate evidence structure it was derived from.
type Summary struct {
	GeneratedAt       string            `json:"generated_at"`
	OutDir            string            `json:"out_dir"`
	RunnerExitCode    *int              `json:"runner_exit_code"`
	AnalysisStatus    Status            `json:"analysis_status"`
	CaptureErrors     []string          `json:"capture_errors"`
	SuspectedCategory *Category         `json:"suspected_category"`
	Evidence          []string          `json:"evidence"`
	ProtocolSignals   ProtocolSignals   `json:"protocol_signals"`
	TerminalProtocols ProtocolDiff      `json:"terminal_protocols"`
	ProbeTimeouts     []string          `json:"probe_timeouts"`
	Probes            Probes            `json:"probes"`
	Stty              SttySummary       `json:"stty"`
	Suspected         *bool             `json:"tty_pollution_suspected"`
	Inputs            map[string]string `json:"inputs"`
}

// ProtocolSignals are the transcript CSI-fragment counts.
type ProtocolSignals struct {
	CaretCSICount       int `json:"caret_csi_count"`
	RawCSIuCount        int `json:"raw_csi_u_count"`
	RawFocusToggleCount int `json:"raw_focus_toggle_count"`
}

// Probes are the key probe results read from the transcript.
type Probes struct {
	EnterValue      *string `json:"enter_value"`
	TabValue        *string `json:"tab_value"`
	CtrlInterrupted bool    `json:"ctrl_interrupted"`
	CtrlDone        bool    `json:"ctrl_done"`
	RawLeakDetected bool    `json:"raw_leak_detected"`
}

// SttySummary is the line-discipline comparison.
type SttySummary struct {
	Before  linedisc.Flags    `json:"before"`
	After   linedisc.Flags    `json:"after"`
	Changes []linedisc.Change `json:"changes"`
}

// Summarize combines evidence and its verdict. The caller fills in
// GeneratedAt, OutDir, RunnerExitCode and Inputs.
func Summarize(evidence Evidence, verdict Verdict) Summary {
	signals := evidence.Signals
	captureErrors := signals.CaptureErrors
	if captureErrors == nil {
		captureErrors = []string{}
	}
	lines := verdict.Evidence
	if lines == nil {
		lines = []string{}
	}
	return Summary{
		AnalysisStatus:    verdict.Status,
		CaptureErrors:     captureErrors,
		SuspectedCategory: verdict.Category,
		Evidence:          lines,
		ProtocolSignals: ProtocolSignals{
			CaretCSICount:       signals.CaretCSICount,
			RawCSIuCount:        signals.RawCSIuCount,
			RawFocusToggleCount: signals.RawFocusToggleCount,
		},
		TerminalProtocols: evidence.Protocol,
		ProbeTimeouts:     signals.ProbeTimeouts(),
		Probes: Probes{
			EnterValue:      signals.EnterProbe,
			TabValue:        signals.TabProbe,
			CtrlInterrupted: signals.CtrlInterrupted,
			CtrlDone:        signals.CtrlDone,
			RawLeakDetected: signals.RawLeak,
		},
		Stty: SttySummary{
			Before:  nonNilFlags(evidence.SttyBefore),
			After:   nonNilFlags(evidence.SttyAfter),
			Changes: evidence.SttyChanges,
		},
		Suspected: verdict.Suspected,
		Inputs:    map[string]string{},
	}
}

func nonNilFlags(flags linedisc.Flags) linedisc.Flags {
	if flags == nil {
		return linedisc.Flags{}
	}
	return flags
}
