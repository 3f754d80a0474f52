// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/termdrift/lib/drift"
)

// Terminal renders a short verdict for the analyze command's stdout.
// When styled is false the output contains no escape sequences.
func Terminal(summary drift.Summary, styled bool) string {
	// The renderer writes nowhere; it only carries the color profile so
	// output does not depend on auto-detection.
	renderer := lipgloss.NewRenderer(io.Discard)
	if styled {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}

	verdictColor := lipgloss.Color("3") // inconclusive
	if summary.Suspected != nil {
		verdictColor = lipgloss.Color("2")
		if *summary.Suspected {
			verdictColor = lipgloss.Color("1")
		}
	}
	verdictStyle := renderer.NewStyle().Bold(true).Foreground(verdictColor)
	labelStyle := renderer.NewStyle().Faint(true)

	var builder strings.Builder
	builder.WriteString("TTY pollution suspected: ")
	builder.WriteString(verdictStyle.Render(drift.PollutionLabel(summary.Suspected)))
	builder.WriteByte('\n')
	builder.WriteString(labelStyle.Render("  status:   "))
	builder.WriteString(string(summary.AnalysisStatus))
	builder.WriteByte('\n')
	builder.WriteString(labelStyle.Render("  category: "))
	builder.WriteString(optionalCategory(summary.SuspectedCategory))
	builder.WriteByte('\n')
	for _, line := range summary.Evidence {
		builder.WriteString("  - ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	return builder.String()
}
