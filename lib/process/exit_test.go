// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct {
	code    int
	message string
}

func (e *codedError) Error() string { return e.message }
func (e *codedError) ExitCode() int { return e.code }

func capture(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()
	var output bytes.Buffer
	code := -1
	originalExit, originalStderr := exit, stderr
	exit = func(c int) { code = c }
	stderr = &output
	t.Cleanup(func() { exit, stderr = originalExit, originalStderr })
	return &output, &code
}

func TestExit(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{"nil", nil, 0, ""},
		{"plain error", errors.New("boom"), 1, "error: boom\n"},
		{"exit code", &codedError{code: 2, message: "exit code 2"}, 2, ""},
		{"wrapped exit code", fmt.Errorf("analyze: %w", &codedError{code: 3, message: "exit code 3"}), 3, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			output, code := capture(t)
			Exit(test.err)
			if *code != test.wantCode {
				t.Errorf("exit code = %d, want %d", *code, test.wantCode)
			}
			if output.String() != test.wantOutput {
				t.Errorf("stderr = %q, want %q", output.String(), test.wantOutput)
			}
		})
	}
}

func TestFatal(t *testing.T) {
	output, code := capture(t)
	Fatal(errors.New("no terminal"))
	if *code != 1 || output.String() != "error: no terminal\n" {
		t.Errorf("Fatal: code %d, stderr %q", *code, output.String())
	}
}
