// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/termdrift/lib/termproto"
)

func intPointer(value int) *int { return &value }

func stringPointer(value string) *string { return &value }

func TestWriteThenLoad(t *testing.T) {
	original := Snapshot{
		GeneratedAt:    testEpoch,
		CaptureID:      "c0ffee",
		Tag:            "after",
		TTY:            "/dev/pts/7",
		Term:           "xterm-kitty",
		Status:         StatusOK,
		RequestedModes: []termproto.Mode{1049, 2004},
		Modes: map[termproto.Mode]termproto.ModeResponse{
			1049: {Mode: 1049, Value: intPointer(1), State: termproto.StateSet},
			2004: {Mode: 2004, Value: intPointer(2), State: termproto.StateReset},
		},
		ModeRaw:     []byte("\x1b[?1049;1$y\x1b[?2004;2$y"),
		Keyboard:    termproto.KeyboardState{Responses: []string{"1"}, Current: stringPointer("1")},
		KeyboardRaw: []byte("\x1b[?1u"),
		Raw:         []byte("\x1b[?1049;1$y\x1b[?2004;2$y\x1b[?1u"),
	}

	path := filepath.Join(t.TempDir(), "nested", "after.json")
	if err := Write(path, original); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("document does not end with a newline")
	}
	if !strings.Contains(string(data), `"generated_at": "2026-03-04T05:06:07Z"`) {
		t.Errorf("generated_at not in UTC second precision:\n%s", data)
	}
	if !strings.Contains(string(data), `"raw_hex": "1b5b3f3175"`) {
		t.Errorf("keyboard raw_hex missing:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.GeneratedAt.Equal(original.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", loaded.GeneratedAt, original.GeneratedAt)
	}
	if loaded.Tag != "after" || loaded.TTY != "/dev/pts/7" || loaded.Term != "xterm-kitty" || loaded.Status != StatusOK {
		t.Errorf("identity fields = %+v", loaded)
	}
	for mode, want := range original.Modes {
		if got := loaded.Mode(mode); !got.Equal(want) {
			t.Errorf("mode %d = %+v, want %+v", mode, got, want)
		}
	}
	if loaded.Keyboard.CurrentValue() != "1" {
		t.Errorf("keyboard current = %q", loaded.Keyboard.CurrentValue())
	}
	if string(loaded.Raw) != string(original.Raw) {
		t.Errorf("Raw = %q", loaded.Raw)
	}
	if len(loaded.RequestedModes) != 2 || loaded.RequestedModes[0] != 1049 {
		t.Errorf("RequestedModes = %v", loaded.RequestedModes)
	}
}

func TestDocument_SkippedSnapshotShape(t *testing.T) {
	document := Snapshot{Tag: "before", Status: StatusSkipped, RequestedModes: DefaultModes}.Document()
	data, err := json.Marshal(document)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(data)
	for _, fragment := range []string{
		`"by_mode":{}`,
		`"responses":[]`,
		`"current":null`,
		`"response_count":0`,
		`"status":"skipped_unsupported_term"`,
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("document missing %s:\n%s", fragment, text)
		}
	}
	if strings.Contains(text, `"error"`) {
		t.Errorf("skipped document carries an error field:\n%s", text)
	}
}

func TestLoad_MissingFileIsEmptySnapshot(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Status != "" {
		t.Errorf("Status = %q, want empty", loaded.Status)
	}
	if loaded.Mode(1049).State != termproto.StateMissing {
		t.Errorf("mode of missing document = %q", loaded.Mode(1049).State)
	}
}

func TestParse(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		got := Parse([]byte("{not json"))
		if got.Status != StatusError || got.Error != InvalidJSON {
			t.Errorf("Status/Error = %q/%q", got.Status, got.Error)
		}
	})

	t.Run("non-object", func(t *testing.T) {
		got := Parse([]byte(`[1, 2, 3]`))
		if got.Status != "" || len(got.Modes) != 0 {
			t.Errorf("got %+v, want empty snapshot", got)
		}
	})

	t.Run("comments tolerated", func(t *testing.T) {
		got := Parse([]byte(`{
			// captured by hand
			"status": "ok",
			"decrqm": {"by_mode": {"2004": {"value": 1, "state": "set"}}},
		}`))
		if got.Status != StatusOK {
			t.Errorf("Status = %q", got.Status)
		}
		if got.Mode(2004).State != termproto.StateSet {
			t.Errorf("2004 = %q", got.Mode(2004).State)
		}
	})

	t.Run("stored state wins over value", func(t *testing.T) {
		got := Parse([]byte(`{"decrqm": {"by_mode": {"1049": {"value": 2, "state": "set"}}}}`))
		response := got.Mode(1049)
		if response.State != termproto.StateSet {
			t.Errorf("State = %q, want set", response.State)
		}
		if response.Value == nil || *response.Value != 2 {
			t.Errorf("Value = %v, want 2", response.Value)
		}
	})

	t.Run("value alone decides state", func(t *testing.T) {
		got := Parse([]byte(`{"decrqm": {"by_mode": {"1004": {"value": "3"}}}}`))
		if got.Mode(1004).State != termproto.StatePermanentlySet {
			t.Errorf("State = %q, want permanently_set", got.Mode(1004).State)
		}
	})

	t.Run("unusable entries", func(t *testing.T) {
		got := Parse([]byte(`{"decrqm": {"by_mode": {
			"1000": {"value": "high"},
			"1002": "garbage",
			"mouse": {"value": 1}
		}}}`))
		response := got.Mode(1000)
		if response.Value != nil || response.State != termproto.StateUnknown {
			t.Errorf("1000 = %+v, want nil value and unknown state", response)
		}
		if got.Mode(1002).State != termproto.StateUnknown {
			t.Errorf("1002 = %q, want unknown", got.Mode(1002).State)
		}
		if len(got.Modes) != 2 {
			t.Errorf("Modes = %v, non-numeric key should be dropped", got.Modes)
		}
	})

	t.Run("wrong field types are absent", func(t *testing.T) {
		got := Parse([]byte(`{"status": 5, "decrqm": [], "kitty_keyboard": {"current": 1, "responses": "x"}}`))
		if got.Status != "" {
			t.Errorf("Status = %q, want empty", got.Status)
		}
		if got.Keyboard.CurrentValue() != "1" {
			t.Errorf("keyboard current = %q, want 1", got.Keyboard.CurrentValue())
		}
		if len(got.Keyboard.Responses) != 0 {
			t.Errorf("Responses = %v", got.Keyboard.Responses)
		}
	})
}
