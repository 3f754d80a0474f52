// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package evidence runs the analysis over a capture directory.
//
// A capture directory is written by the external harness around one
// session of the application under test:
//
//	stty.before.txt       stty -a before the session
//	stty.after.txt        stty -a after it (absent if the runner died)
//	session.typescript    script(1) transcript with probe markers
//	protocol.before.json  termdrift capture --tag before
//	protocol.after.json   termdrift capture --tag after
//
// Every input is optional. [Analyze] turns whatever is present into a
// [drift.Summary], and [WriteOutputs] writes summary.json and
// summary.md (and summary.html on request) back into the directory.
// Analysis problems become part of the summary; only filesystem errors
// are returned.
package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bureau-foundation/termdrift/lib/clock"
	"github.com/bureau-foundation/termdrift/lib/drift"
	"github.com/bureau-foundation/termdrift/lib/report"
	"github.com/bureau-foundation/termdrift/lib/snapshot"
	"github.com/bureau-foundation/termdrift/lib/termproto"
	"github.com/bureau-foundation/termdrift/lib/transcript"
)

// Input file names.
const (
	SttyBeforeFile     = "stty.before.txt"
	SttyAfterFile      = "stty.after.txt"
	TranscriptFile     = "session.typescript"
	ProtocolBeforeFile = "protocol.before.json"
	ProtocolAfterFile  = "protocol.after.json"
)

// InputFiles lists every input file name, in capture order.
var InputFiles = []string{SttyBeforeFile, ProtocolBeforeFile, TranscriptFile, SttyAfterFile, ProtocolAfterFile}

// Output file names.
const (
	SummaryJSONFile     = "summary.json"
	SummaryMarkdownFile = "summary.md"
	SummaryHTMLFile     = "summary.html"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// Artifacts are the loaded inputs of one capture directory. Missing
// text inputs are empty strings; missing snapshots are zero Snapshots.
type Artifacts struct {
	SttyBefore     string
	SttyAfter      string
	Transcript     string
	ProtocolBefore snapshot.Snapshot
	ProtocolAfter  snapshot.Snapshot

	// Digests maps the name of each input that exists to its Digest.
	Digests map[string]string
}

// Load reads the inputs from dir.
func Load(dir string) (Artifacts, error) {
	artifacts := Artifacts{Digests: make(map[string]string)}

	texts := []struct {
		name   string
		target *string
	}{
		{SttyBeforeFile, &artifacts.SttyBefore},
		{SttyAfterFile, &artifacts.SttyAfter},
		{TranscriptFile, &artifacts.Transcript},
	}
	for _, input := range texts {
		data, err := readInput(dir, input.name, artifacts.Digests)
		if err != nil {
			return Artifacts{}, err
		}
		*input.target = decodeText(data)
	}

	snapshots := []struct {
		name   string
		target *snapshot.Snapshot
	}{
		{ProtocolBeforeFile, &artifacts.ProtocolBefore},
		{ProtocolAfterFile, &artifacts.ProtocolAfter},
	}
	for _, input := range snapshots {
		data, err := readInput(dir, input.name, artifacts.Digests)
		if err != nil {
			return Artifacts{}, err
		}
		if data != nil {
			*input.target = snapshot.Parse(data)
		}
	}
	return artifacts, nil
}

// readInput returns the file's bytes, or nil when it does not exist,
// and records its digest.
func readInput(dir, name string, digests map[string]string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	digests[name] = Digest(data)
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// decodeText replaces invalid UTF-8 so transcripts containing partial
// escape sequences or binary noise still analyze.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// Options configures Analyze.
type Options struct {
	// MarkerPrefix is the transcript marker prefix. Empty means
	// transcript.DefaultMarkerPrefix.
	MarkerPrefix string

	// SuspiciousModes overrides drift.DefaultSuspiciousModes when
	// non-nil.
	SuspiciousModes []termproto.Mode

	// Rules overrides drift.DefaultRules when non-nil.
	Rules []drift.Rule

	// Clock stamps generated_at. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives analysis diagnostics. Nil discards.
	Logger *slog.Logger
}

// Analyze loads dir and classifies it. runnerExit is the exit code of
// the harness shell, recorded as-is (nil when unknown).
func Analyze(dir string, runnerExit *int, options Options) (drift.Summary, error) {
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rules := options.Rules
	if rules == nil {
		rules = drift.DefaultRules()
	}

	absolute, err := filepath.Abs(dir)
	if err != nil {
		return drift.Summary{}, fmt.Errorf("resolving %s: %w", dir, err)
	}
	artifacts, err := Load(absolute)
	if err != nil {
		return drift.Summary{}, err
	}

	evidence := drift.NewEvidence(
		artifacts.ProtocolBefore,
		artifacts.ProtocolAfter,
		artifacts.SttyBefore,
		artifacts.SttyAfter,
		transcript.Analyze(artifacts.Transcript, options.MarkerPrefix),
		options.SuspiciousModes,
	)
	verdict := drift.ClassifyWith(rules, evidence)
	if len(artifacts.Digests) == 0 {
		// Every rule reads absent inputs as "not measured", which would
		// otherwise classify an empty directory as clean.
		logger.Warn("no capture artifacts found",
			"out_dir", absolute,
			"expected", InputFiles,
		)
		verdict = noArtifactsVerdict(absolute)
	}

	summary := drift.Summarize(evidence, verdict)
	summary.GeneratedAt = clk.Now().UTC().Format(timestampLayout)
	summary.OutDir = absolute
	summary.RunnerExitCode = runnerExit
	summary.Inputs = artifacts.Digests

	logger.Info("capture directory analyzed",
		"out_dir", absolute,
		"inputs", len(artifacts.Digests),
		"analysis_status", verdict.Status,
		"suspected_category", verdict.CategoryName(),
		"tty_pollution_suspected", verdict.PollutionLabel(),
	)
	return summary, nil
}

func noArtifactsVerdict(dir string) drift.Verdict {
	return drift.Verdict{
		Status: drift.StatusNoArtifacts,
		Evidence: []string{
			"no capture artifacts found in " + dir,
			"expected any of: " + strings.Join(InputFiles, ", "),
		},
	}
}

// Outputs are the paths WriteOutputs wrote. HTML is empty when not
// requested.
type Outputs struct {
	JSON     string
	Markdown string
	HTML     string
}

// WriteOutputs writes the summary files into dir, creating it if
// needed.
func WriteOutputs(dir string, summary drift.Summary, html bool) (Outputs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Outputs{}, fmt.Errorf("creating %s: %w", dir, err)
	}
	outputs := Outputs{
		JSON:     filepath.Join(dir, SummaryJSONFile),
		Markdown: filepath.Join(dir, SummaryMarkdownFile),
	}

	var encoded strings.Builder
	encoder := json.NewEncoder(&encoded)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return Outputs{}, fmt.Errorf("encoding summary: %w", err)
	}
	if err := os.WriteFile(outputs.JSON, []byte(encoded.String()), 0o644); err != nil {
		return Outputs{}, fmt.Errorf("writing %s: %w", outputs.JSON, err)
	}
	if err := os.WriteFile(outputs.Markdown, []byte(report.Markdown(summary)), 0o644); err != nil {
		return Outputs{}, fmt.Errorf("writing %s: %w", outputs.Markdown, err)
	}

	if html {
		page, err := report.HTML(summary)
		if err != nil {
			return Outputs{}, err
		}
		outputs.HTML = filepath.Join(dir, SummaryHTMLFile)
		if err := os.WriteFile(outputs.HTML, page, 0o644); err != nil {
			return Outputs{}, fmt.Errorf("writing %s: %w", outputs.HTML, err)
		}
	}
	return outputs, nil
}
