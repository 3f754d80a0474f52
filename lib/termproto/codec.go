// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termproto

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// maxParameterDigits bounds each numeric field of an answer. The ansi
// parser accumulates digits without an overflow check, so a longer
// field would wrap to an unrelated number instead of failing.
const maxParameterDigits = 9

// EncodeModeQuery returns the DECRQM query for one DEC private mode.
func EncodeModeQuery(mode Mode) []byte {
	return []byte(ansi.DECRQM(ansi.DECMode(mode)))
}

// EncodeKeyboardQuery returns the kitty keyboard protocol flags query.
func EncodeKeyboardQuery() []byte {
	return []byte(ansi.RequestKittyKeyboard)
}

// EncodeModeResponse returns the DECRPM answer a terminal sends for mode
// with the given setting. Used to script terminal replies.
func EncodeModeResponse(mode Mode, setting ansi.ModeSetting) []byte {
	return []byte(ansi.DECRPM(ansi.DECMode(mode), setting))
}

// EncodeKeyboardResponse returns the kitty keyboard answer carrying flags.
func EncodeKeyboardResponse(flags string) []byte {
	return []byte("\x1b[?" + flags + "u")
}

// answer is one complete CSI sequence from a terminal's reply stream.
type answer struct {
	command ansi.Cmd
	params  ansi.Params
}

// isModeReport reports whether the answer is CSI ? Pa ; Ps $ y.
func (a answer) isModeReport() bool {
	return a.command.Prefix() == '?' && a.command.Intermediate() == '$' && a.command.Final() == 'y'
}

// isKeyboardReport reports whether the answer is CSI ? flags u. The
// query itself has the same shape without parameters.
func (a answer) isKeyboardReport() bool {
	return a.command.Prefix() == '?' && a.command.Intermediate() == 0 && a.command.Final() == 'u' && len(a.params) > 0
}

// eachAnswer walks buffer with the ansi sequence decoder and calls yield
// for every CSI sequence, in buffer order. Text, control bytes, and
// truncated or invalid sequences are skipped.
func eachAnswer(buffer []byte, yield func(answer)) {
	parser := ansi.NewParser()
	var state byte
	remaining := buffer
	for len(remaining) > 0 {
		sequence, width, byteCount, newState := decodeNext(remaining, state, parser)
		state = newState
		if byteCount == 0 {
			// Invalid sequence start; drop one byte and resynchronize.
			byteCount = 1
		}
		remaining = remaining[byteCount:]

		if width != 0 || len(sequence) == 0 {
			continue
		}
		command := ansi.Cmd(parser.Command())
		if command == 0 || command.Final() == 0 || !isCSI(sequence) {
			continue
		}
		if longestDigitRun(sequence) > maxParameterDigits {
			continue
		}
		params := append(ansi.Params(nil), parser.Params()...)
		yield(answer{command: command, params: params})
	}
}

// decodeNext is ansi.DecodeSequence with parameter overflow reported
// as a one-byte invalid sequence. The parser indexes its fixed parameter
// buffer without a bound check, so a sequence with more fields than the
// buffer holds panics inside the decoder.
func decodeNext(remaining []byte, state byte, parser *ansi.Parser) (sequence []byte, width, byteCount int, newState byte) {
	defer func() {
		if recover() != nil {
			parser.Reset()
			sequence, width, byteCount, newState = nil, 0, 1, ansi.NormalState
		}
	}()
	return ansi.DecodeSequence(remaining, state, parser)
}

func isCSI(sequence []byte) bool {
	return len(sequence) >= 2 && (sequence[0] == ansi.ESC && sequence[1] == '[' || sequence[0] == ansi.CSI)
}

func longestDigitRun(sequence []byte) int {
	longest, current := 0, 0
	for _, c := range sequence {
		if c >= '0' && c <= '9' {
			current++
			longest = max(longest, current)
			continue
		}
		current = 0
	}
	return longest
}

// DecodeModeResponses extracts every DECRPM answer in buffer. When a
// mode is answered more than once the last answer wins. Answers missing
// either field, carrying extra fields, or with fields too long to be a
// mode number or setting are skipped.
func DecodeModeResponses(buffer []byte) map[Mode]ModeResponse {
	byMode := make(map[Mode]ModeResponse)
	eachAnswer(buffer, func(a answer) {
		if !a.isModeReport() || len(a.params) != 2 {
			return
		}
		modeNumber, _, _ := a.params.Param(0, -1)
		value, _, _ := a.params.Param(1, -1)
		if modeNumber < 0 || value < 0 || a.params[0].HasMore() {
			return
		}
		mode := Mode(modeNumber)
		byMode[mode] = ModeResponse{
			Mode:  mode,
			Value: &value,
			State: StateFromValue(value),
		}
	})
	return byMode
}

// DecodeKeyboardResponses extracts every kitty keyboard answer in buffer,
// in buffer order. The flags are rendered back to their wire form, so
// sub-parameters keep their ':' separators.
func DecodeKeyboardResponses(buffer []byte) KeyboardState {
	var state KeyboardState
	eachAnswer(buffer, func(a answer) {
		if !a.isKeyboardReport() {
			return
		}
		if flags, ok := renderFlags(a.params); ok {
			state.Responses = append(state.Responses, flags)
		}
	})
	if len(state.Responses) > 0 {
		current := state.Responses[len(state.Responses)-1]
		state.Current = &current
	}
	return state
}

// renderFlags joins params with ';', or ':' after a parameter that has
// sub-parameters. An answer with no present parameter is rejected.
func renderFlags(params ansi.Params) (string, bool) {
	var builder strings.Builder
	present := false
	for index, param := range params {
		if value := param.Param(-1); value >= 0 {
			builder.WriteString(strconv.Itoa(value))
			present = true
		}
		if index == len(params)-1 {
			break
		}
		if param.HasMore() {
			builder.WriteByte(':')
		} else {
			builder.WriteByte(';')
		}
	}
	return builder.String(), present
}
