// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package drift

// Status is the analysis status of a verdict.
type Status string

const (
	// StatusOK means the evidence was usable and a category was chosen.
	StatusOK Status = "ok"

	// StatusCaptureError means the transcript shows a crash or
	// environment failure during the capture, so no conclusion is drawn.
	StatusCaptureError Status = "inconclusive_capture_error"

	// StatusProbeTimeout means a key probe received no byte and nothing
	// else points at drift.
	StatusProbeTimeout Status = "inconclusive_probe_timeout"

	// StatusNoArtifacts means the capture directory held none of the
	// expected inputs, so nothing was measured.
	StatusNoArtifacts Status = "inconclusive_no_artifacts"
)

// Category is the suspected root cause.
type Category string

const (
	CategoryLineDisciplineLeak         Category = "line_discipline_leak"
	CategoryTerminalProtocolStateDrift Category = "terminal_protocol_state_drift"
	CategoryTerminalProtocolLeak       Category = "terminal_protocol_leak"
	CategoryInputProbeAnomaly          Category = "input_probe_anomaly"
	CategoryProbeTimeout               Category = "probe_timeout"
	CategoryNone                       Category = "none"
)

// Verdict is the outcome of classification.
type Verdict struct {
	Status Status

	// Category is nil when the evidence was tainted.
	Category *Category

	// Suspected is nil when the analysis is inconclusive.
	Suspected *bool

	// Evidence holds human-readable lines supporting the verdict.
	Evidence []string
}

// CategoryName returns the category, or "" when none was assigned.
func (v Verdict) CategoryName() Category {
	if v.Category == nil {
		return ""
	}
	return *v.Category
}

// PollutionLabel renders Suspected as "yes", "no", or "inconclusive".
func (v Verdict) PollutionLabel() string {
	return PollutionLabel(v.Suspected)
}

// PollutionLabel renders a suspected flag as "yes", "no", or
// "inconclusive".
func PollutionLabel(suspected *bool) string {
	switch {
	case suspected == nil:
		return "inconclusive"
	case *suspected:
		return "yes"
	default:
		return "no"
	}
}

func categoryPointer(category Category) *Category { return &category }

func boolPointer(value bool) *bool { return &value }
