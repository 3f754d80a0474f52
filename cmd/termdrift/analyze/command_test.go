// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/termdrift/cmd/termdrift/cli"
	"github.com/bureau-foundation/termdrift/lib/config"
	"github.com/bureau-foundation/termdrift/lib/drift"
	"github.com/bureau-foundation/termdrift/lib/evidence"
	"github.com/bureau-foundation/termdrift/lib/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	cleanStty = "speed 38400 baud; isig icanon iexten echo ixon -ixoff opost"
	rawStty   = "speed 38400 baud; -isig -icanon -iexten -echo -ixon -ixoff -opost"

	cleanTranscript = "__ISSUE26_ENTER_PROBE__0d__\r\n__ISSUE26_TAB_PROBE__09__\r\n__ISSUE26_CTRL_INTERRUPTED__\r\n"
)

func pollutedRun(t *testing.T) string {
	t.Helper()
	return testutil.ArtifactDir(t, map[string]string{
		evidence.SttyBeforeFile: cleanStty,
		evidence.SttyAfterFile:  rawStty,
		evidence.TranscriptFile: cleanTranscript,
	})
}

func TestRun_TextOutput(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	dir := pollutedRun(t)
	var stdout bytes.Buffer

	if err := run(analyzeParams{OutDir: dir, HTML: true}, &stdout, false, discardLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	output := stdout.String()
	for _, want := range []string{
		"wrote " + filepath.Join(dir, evidence.SummaryJSONFile),
		"wrote " + filepath.Join(dir, evidence.SummaryMarkdownFile),
		"wrote " + filepath.Join(dir, evidence.SummaryHTMLFile),
		"TTY pollution suspected: yes",
		"line_discipline_leak",
		"stty icanon: on -> off",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("unstyled output contains escape sequences:\n%q", output)
	}
	for _, name := range []string{evidence.SummaryJSONFile, evidence.SummaryMarkdownFile, evidence.SummaryHTMLFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRun_JSONOutputMatchesSummaryFile(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	dir := pollutedRun(t)
	params := analyzeParams{OutDir: dir}
	params.OutputJSON = true
	params.RunnerExit.Set("130")
	var stdout bytes.Buffer

	if err := run(params, &stdout, false, discardLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var printed drift.Summary
	if err := json.Unmarshal(stdout.Bytes(), &printed); err != nil {
		t.Fatalf("stdout is not a summary: %v\n%s", err, stdout.String())
	}
	if printed.RunnerExitCode == nil || *printed.RunnerExitCode != 130 {
		t.Errorf("runner_exit_code = %v, want 130", printed.RunnerExitCode)
	}
	if printed.Suspected == nil || !*printed.Suspected {
		t.Errorf("tty_pollution_suspected = %v, want true", printed.Suspected)
	}
	if _, err := os.Stat(filepath.Join(dir, evidence.SummaryHTMLFile)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("summary.html written without --html: %v", err)
	}
}

func TestRun_FailOnPollution(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")

	t.Run("polluted", func(t *testing.T) {
		err := run(analyzeParams{OutDir: pollutedRun(t), FailOnPollution: true}, io.Discard, false, discardLogger())
		var exitError *cli.ExitError
		if !errors.As(err, &exitError) || exitError.Code != pollutionExitCode {
			t.Fatalf("run error = %v, want ExitError{%d}", err, pollutionExitCode)
		}
	})

	t.Run("clean", func(t *testing.T) {
		dir := testutil.ArtifactDir(t, map[string]string{
			evidence.SttyBeforeFile: cleanStty,
			evidence.SttyAfterFile:  cleanStty,
			evidence.TranscriptFile: cleanTranscript,
		})
		if err := run(analyzeParams{OutDir: dir, FailOnPollution: true}, io.Discard, false, discardLogger()); err != nil {
			t.Fatalf("run: %v", err)
		}
	})

	t.Run("without the flag", func(t *testing.T) {
		if err := run(analyzeParams{OutDir: pollutedRun(t)}, io.Discard, false, discardLogger()); err != nil {
			t.Fatalf("run: %v", err)
		}
	})
}

func TestRun_UnrecognizedFileNamesAreNotClean(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	dir := testutil.ArtifactDir(t, map[string]string{
		"stty_before.txt": cleanStty,
		"stty_after.txt":  rawStty,
		"transcript.log":  cleanTranscript,
	})
	var stdout bytes.Buffer

	if err := run(analyzeParams{OutDir: dir, FailOnPollution: true}, &stdout, false, discardLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	output := stdout.String()
	for _, want := range []string{
		"TTY pollution suspected: inconclusive",
		string(drift.StatusNoArtifacts),
		"no capture artifacts found in ",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestCommand_DescriptionNamesReadInputs(t *testing.T) {
	description := Command().Description
	for _, name := range evidence.InputFiles {
		if !strings.Contains(description, name) {
			t.Errorf("description does not mention %s:\n%s", name, description)
		}
	}
}

func TestRun_ConfigMarkerPrefix(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "termdrift.jsonc")
	if err := os.WriteFile(configPath, []byte(`{
		// harness from the fork
		"marker_prefix": "PROBE7",
	}`), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := testutil.ArtifactDir(t, map[string]string{
		evidence.TranscriptFile: "__PROBE7_ENTER_PROBE__timeout__\r\n",
	})
	params := analyzeParams{OutDir: dir, Config: configPath}
	params.OutputJSON = true
	var stdout bytes.Buffer

	if err := run(params, &stdout, false, discardLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var printed drift.Summary
	if err := json.Unmarshal(stdout.Bytes(), &printed); err != nil {
		t.Fatalf("decoding stdout: %v", err)
	}
	if printed.AnalysisStatus != drift.StatusProbeTimeout {
		t.Errorf("analysis_status = %q, want %q", printed.AnalysisStatus, drift.StatusProbeTimeout)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		params   analyzeParams
		category cli.ErrorCategory
	}{
		{"missing directory", analyzeParams{OutDir: filepath.Join(t.TempDir(), "absent")}, cli.CategoryNotFound},
		{"file instead of directory", analyzeParams{OutDir: file}, cli.CategoryValidation},
		{"bad config", analyzeParams{OutDir: t.TempDir(), Config: file + ".toml"}, cli.CategoryValidation},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := run(test.params, io.Discard, false, discardLogger())
			var toolError *cli.ToolError
			if !errors.As(err, &toolError) || toolError.Category != test.category {
				t.Errorf("run error = %v, want category %q", err, test.category)
			}
		})
	}
}
