// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/termdrift/lib/termproto"
)

// timestampLayout is the generated_at format: UTC, second precision.
const timestampLayout = "2006-01-02T15:04:05Z"

// InvalidJSON is the Error of a snapshot loaded from a file that does
// not parse.
const InvalidJSON = "invalid_json"

// Document is the on-disk JSON form of a Snapshot.
type Document struct {
	GeneratedAt    string           `json:"generated_at"`
	CaptureID      string           `json:"capture_id,omitempty"`
	Tag            string           `json:"tag"`
	TTY            string           `json:"tty"`
	Term           string           `json:"term"`
	DECRQM         ModesDocument    `json:"decrqm"`
	KittyKeyboard  KeyboardDocument `json:"kitty_keyboard"`
	RawResponseHex string           `json:"raw_response_hex"`
	Status         Status           `json:"status"`
	Error          string           `json:"error,omitempty"`
}

// ModesDocument is the "decrqm" object.
type ModesDocument struct {
	RequestedModes []int                   `json:"requested_modes"`
	ByMode         map[string]ModeDocument `json:"by_mode"`
	ResponseCount  int                     `json:"response_count"`
	RawHex         string                  `json:"raw_hex"`
}

// ModeDocument is one entry of "by_mode".
type ModeDocument struct {
	Value *int                `json:"value"`
	State termproto.ModeState `json:"state"`
}

// KeyboardDocument is the "kitty_keyboard" object.
type KeyboardDocument struct {
	Responses []string `json:"responses"`
	Current   *string  `json:"current"`
	RawHex    string   `json:"raw_hex"`
}

// Document converts the snapshot to its JSON form.
func (s Snapshot) Document() Document {
	requested := make([]int, 0, len(s.RequestedModes))
	for _, mode := range s.RequestedModes {
		requested = append(requested, int(mode))
	}
	byMode := make(map[string]ModeDocument, len(s.Modes))
	for mode, response := range s.Modes {
		byMode[mode.String()] = ModeDocument{Value: response.Value, State: response.State}
	}
	responses := s.Keyboard.Responses
	if responses == nil {
		responses = []string{}
	}

	document := Document{
		CaptureID: s.CaptureID,
		Tag:       s.Tag,
		TTY:       s.TTY,
		Term:      s.Term,
		DECRQM: ModesDocument{
			RequestedModes: requested,
			ByMode:         byMode,
			ResponseCount:  len(byMode),
			RawHex:         hex.EncodeToString(s.ModeRaw),
		},
		KittyKeyboard: KeyboardDocument{
			Responses: responses,
			Current:   s.Keyboard.Current,
			RawHex:    hex.EncodeToString(s.KeyboardRaw),
		},
		RawResponseHex: hex.EncodeToString(s.Raw),
		Status:         s.Status,
		Error:          s.Error,
	}
	if !s.GeneratedAt.IsZero() {
		document.GeneratedAt = s.GeneratedAt.UTC().Format(timestampLayout)
	}
	return document
}

// Write stores the snapshot as indented JSON at path, creating parent
// directories as needed.
func Write(path string, s Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot document. A missing file yields the zero
// Snapshot (empty Status) and no error. A file that is not valid JSON
// yields a Snapshot with StatusError and Error InvalidJSON. Comments
// are tolerated so hand-edited fixtures load.
//
// Load is lenient about field types because the analysis must work on
// documents from older capture tools: each field that has the wrong
// type is treated as absent rather than failing the whole document.
// Only filesystem errors other than non-existence are returned.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return Parse(data), nil
}

// Parse decodes a snapshot document with the leniency described on Load.
func Parse(data []byte) Snapshot {
	var raw any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return Snapshot{Status: StatusError, Error: InvalidJSON}
	}
	object, ok := raw.(map[string]any)
	if !ok {
		return Snapshot{}
	}

	result := Snapshot{
		CaptureID: stringField(object, "capture_id"),
		Tag:       stringField(object, "tag"),
		TTY:       stringField(object, "tty"),
		Term:      stringField(object, "term"),
		Status:    Status(stringField(object, "status")),
		Error:     stringField(object, "error"),
		Modes:     make(map[termproto.Mode]termproto.ModeResponse),
		Raw:       hexField(object, "raw_response_hex"),
	}
	if generatedAt, err := time.Parse(timestampLayout, stringField(object, "generated_at")); err == nil {
		result.GeneratedAt = generatedAt
	}

	if decrqm, ok := object["decrqm"].(map[string]any); ok {
		result.ModeRaw = hexField(decrqm, "raw_hex")
		if requested, ok := decrqm["requested_modes"].([]any); ok {
			for _, entry := range requested {
				if number, ok := intValue(entry); ok {
					result.RequestedModes = append(result.RequestedModes, termproto.Mode(number))
				}
			}
		}
		if byMode, ok := decrqm["by_mode"].(map[string]any); ok {
			for key, entry := range byMode {
				number, err := strconv.Atoi(strings.TrimSpace(key))
				if err != nil {
					continue
				}
				mode := termproto.Mode(number)
				result.Modes[mode] = modeFromEntry(mode, entry)
			}
		}
	}

	if keyboard, ok := object["kitty_keyboard"].(map[string]any); ok {
		result.KeyboardRaw = hexField(keyboard, "raw_hex")
		if responses, ok := keyboard["responses"].([]any); ok {
			for _, entry := range responses {
				result.Keyboard.Responses = append(result.Keyboard.Responses, scalarString(entry))
			}
		}
		if current, present := keyboard["current"]; present && current != nil {
			value := scalarString(current)
			result.Keyboard.Current = &value
		}
	}
	return result
}

// modeFromEntry interprets one by_mode entry. A stored state wins over
// the state implied by value; without a usable state, the value
// decides; without either the state is unknown.
func modeFromEntry(mode termproto.Mode, entry any) termproto.ModeResponse {
	response := termproto.ModeResponse{Mode: mode, State: termproto.StateUnknown}
	fields, _ := entry.(map[string]any)
	if number, ok := intValue(fields["value"]); ok {
		response.Value = &number
		response.State = termproto.StateFromValue(number)
	}
	if state, ok := fields["state"].(string); ok && state != "" {
		response.State = termproto.ModeState(state)
	}
	return response
}

func stringField(object map[string]any, key string) string {
	value, _ := object[key].(string)
	return value
}

func hexField(object map[string]any, key string) []byte {
	decoded, err := hex.DecodeString(stringField(object, key))
	if err != nil || len(decoded) == 0 {
		return nil
	}
	return decoded
}

// intValue accepts JSON numbers with an integral value and decimal
// strings.
func intValue(value any) (int, bool) {
	switch typed := value.(type) {
	case float64:
		if typed != math.Trunc(typed) || math.Abs(typed) > math.MaxInt32 {
			return 0, false
		}
		return int(typed), true
	case string:
		number, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}
		return number, true
	default:
		return 0, false
	}
}

// scalarString renders a JSON scalar the way it would print.
func scalarString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}
