// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/termdrift/cmd/termdrift/cli"
	"github.com/bureau-foundation/termdrift/lib/config"
	"github.com/bureau-foundation/termdrift/lib/snapshot"
	"github.com/bureau-foundation/termdrift/lib/termproto"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingTerminal captures the options it was called with and
// returns a fixed snapshot stamped with them.
func recordingTerminal(stdout io.Writer, status snapshot.Status, seen *snapshot.Options) terminal {
	return terminal{
		input:  3,
		output: 4,
		term:   "xterm-256color",
		stdout: stdout,
		capture: func(_ context.Context, input, output int, options snapshot.Options) snapshot.Snapshot {
			*seen = options
			return snapshot.Snapshot{
				Tag:            options.Tag,
				Term:           options.Term,
				Status:         status,
				RequestedModes: options.Modes,
			}
		},
	}
}

func TestRun_WritesSnapshotAndPrintsPath(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	var stdout bytes.Buffer
	var seen snapshot.Options
	path := filepath.Join(t.TempDir(), "out", "before.json")

	err := run(context.Background(), captureParams{Output: path, Tag: "before"},
		recordingTerminal(&stdout, snapshot.StatusOK, &seen), discardLogger())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.String() != path+"\n" {
		t.Errorf("stdout = %q, want the path", stdout.String())
	}
	loaded, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Tag != "before" || loaded.Status != snapshot.StatusOK {
		t.Errorf("snapshot = %+v", loaded)
	}
	if seen.QueryTimeout != snapshot.DefaultQueryTimeout || seen.KeyboardTimeout != snapshot.DefaultKeyboardTimeout {
		t.Errorf("timeouts = %v/%v, want defaults", seen.QueryTimeout, seen.KeyboardTimeout)
	}
	if len(seen.Modes) != len(snapshot.DefaultModes) {
		t.Errorf("Modes = %v, want defaults", seen.Modes)
	}
	if seen.Term != "xterm-256color" {
		t.Errorf("Term = %q", seen.Term)
	}
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "termdrift.yaml")
	if err := os.WriteFile(configPath, []byte("modes: [1004]\nper_query_timeout_ms: 40\nkitty_timeout_ms: 50\nunsupported_terms: [linux]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var seen snapshot.Options
	params := captureParams{
		Output: filepath.Join(t.TempDir(), "after.json"),
		Modes:  "2004, 1049",
		Quiet:  true,
		Config: configPath,
	}
	params.KittyTimeoutMS.Set("300")

	var stdout bytes.Buffer
	if err := run(context.Background(), params, recordingTerminal(&stdout, snapshot.StatusOK, &seen), discardLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet run printed %q", stdout.String())
	}
	if len(seen.Modes) != 2 || seen.Modes[0] != termproto.ModeBracketedPaste || seen.Modes[1] != termproto.ModeAlternateScreenBuffer {
		t.Errorf("Modes = %v, want flag order [2004 1049]", seen.Modes)
	}
	if seen.QueryTimeout != 40*time.Millisecond {
		t.Errorf("QueryTimeout = %v, want config value 40ms", seen.QueryTimeout)
	}
	if seen.KeyboardTimeout != 300*time.Millisecond {
		t.Errorf("KeyboardTimeout = %v, want flag value 300ms", seen.KeyboardTimeout)
	}
	if len(seen.UnsupportedTerms) != 1 || seen.UnsupportedTerms[0] != "linux" {
		t.Errorf("UnsupportedTerms = %v", seen.UnsupportedTerms)
	}
}

func TestRun_ErrorStatusExitsOne(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	var seen snapshot.Options
	path := filepath.Join(t.TempDir(), "snap.json")

	err := run(context.Background(), captureParams{Output: path, Quiet: true},
		recordingTerminal(io.Discard, snapshot.StatusError, &seen), discardLogger())
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Fatalf("run error = %v, want ExitError{1}", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("snapshot not written on error status: %v", statErr)
	}
}

func TestRun_InvalidInvocations(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	output := filepath.Join(t.TempDir(), "snap.json")
	zero := cli.OptionalInt{}
	zero.Set("0")

	tests := []struct {
		name   string
		params captureParams
		want   string
	}{
		{"missing output", captureParams{}, "--output is required"},
		{"bad mode list", captureParams{Output: output, Modes: "1049,alt"}, "--modes"},
		{"empty mode list", captureParams{Output: output, Modes: " , "}, "no modes given"},
		{"zero timeout", captureParams{Output: output, PerQueryTimeoutMS: zero}, "--per-query-timeout-ms must be positive"},
		{"missing config", captureParams{Output: output, Config: filepath.Join(t.TempDir(), "absent.yaml")}, "reading config"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var seen snapshot.Options
			err := run(context.Background(), test.params,
				recordingTerminal(io.Discard, snapshot.StatusOK, &seen), discardLogger())
			var toolError *cli.ToolError
			if !errors.As(err, &toolError) || toolError.Category != cli.CategoryValidation {
				t.Fatalf("run error = %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %q, want containing %q", err.Error(), test.want)
			}
		})
	}
}

func TestRun_InvalidConfigStillWritesErrorSnapshot(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "termdrift.yaml")
	if err := os.WriteFile(broken, []byte("per_query_timeout_ms: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		flag        string
		environment string
	}{
		{"flag names a missing file", filepath.Join(t.TempDir(), "absent.yaml"), ""},
		{"flag names a malformed file", broken, ""},
		{"environment names a missing file", "", filepath.Join(t.TempDir(), "absent.json")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv(config.EnvironmentVariable, test.environment)
			path := filepath.Join(t.TempDir(), "out", "before.json")
			captured := false
			tty := recordingTerminal(io.Discard, snapshot.StatusOK, new(snapshot.Options))
			tty.capture = func(context.Context, int, int, snapshot.Options) snapshot.Snapshot {
				captured = true
				return snapshot.Snapshot{}
			}

			err := run(context.Background(), captureParams{Output: path, Tag: "before", Config: test.flag}, tty, discardLogger())
			var toolError *cli.ToolError
			if !errors.As(err, &toolError) || toolError.Category != cli.CategoryValidation {
				t.Fatalf("run error = %v, want validation error", err)
			}
			if captured {
				t.Error("terminal was queried despite the config error")
			}
			loaded, loadErr := snapshot.Load(path)
			if loadErr != nil {
				t.Fatalf("error snapshot not written: %v", loadErr)
			}
			if loaded.Status != snapshot.StatusError || loaded.Error != err.Error() {
				t.Errorf("snapshot status/error = %q/%q, want error/%q", loaded.Status, loaded.Error, err.Error())
			}
			if loaded.Tag != "before" || loaded.Term != "xterm-256color" {
				t.Errorf("snapshot tag/term = %q/%q", loaded.Tag, loaded.Term)
			}
		})
	}
}

func TestRun_PassesContextToCapture(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tty := recordingTerminal(io.Discard, snapshot.StatusOK, new(snapshot.Options))
	tty.capture = func(ctx context.Context, _, _ int, options snapshot.Options) snapshot.Snapshot {
		if ctx.Err() == nil {
			t.Error("capture received a live context")
		}
		return snapshot.Snapshot{Tag: options.Tag, Status: snapshot.StatusError, Error: ctx.Err().Error()}
	}

	err := run(ctx, captureParams{Output: filepath.Join(t.TempDir(), "snap.json"), Quiet: true}, tty, discardLogger())
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Fatalf("run error = %v, want ExitError{1}", err)
	}
}

func TestRun_RealCaptureSkipsDumbTerminal(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	defer writer.Close()

	path := filepath.Join(t.TempDir(), "snap.json")
	err = run(context.Background(), captureParams{Output: path, Tag: "before", Quiet: true}, terminal{
		input:   int(reader.Fd()),
		output:  int(writer.Fd()),
		term:    "dumb",
		stdout:  io.Discard,
		capture: snapshot.Capture,
	}, discardLogger())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	loaded, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Status != snapshot.StatusSkipped {
		t.Errorf("Status = %q, want skipped_unsupported_term", loaded.Status)
	}
}

func TestRun_RealCaptureOnPipeIsError(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	defer writer.Close()

	path := filepath.Join(t.TempDir(), "snap.json")
	err = run(context.Background(), captureParams{Output: path, Quiet: true}, terminal{
		input:   int(reader.Fd()),
		output:  int(writer.Fd()),
		term:    "xterm",
		stdout:  io.Discard,
		capture: snapshot.Capture,
	}, discardLogger())
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Fatalf("run error = %v, want ExitError{1}", err)
	}
	loaded, _ := snapshot.Load(path)
	if loaded.Status != snapshot.StatusError || !strings.Contains(loaded.Error, "not a terminal") {
		t.Errorf("snapshot = %q / %q", loaded.Status, loaded.Error)
	}
}
