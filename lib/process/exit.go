// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own process exit
// code, such as the CLI's ExitError.
type exitCoder interface {
	ExitCode() int
}

// Replaced in tests.
var (
	exit   func(int) = os.Exit
	stderr io.Writer = os.Stderr
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	fmt.Fprintf(stderr, "error: %v\n", err)
	exit(1)
}

// Exit terminates the process for the error returned by main's run().
// A nil error exits 0. An error carrying an exit code exits with that
// code and prints nothing: the command has already written its own
// output. Any other error goes through Fatal.
func Exit(err error) {
	if err == nil {
		exit(0)
		return
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		exit(coded.ExitCode())
		return
	}
	Fatal(err)
}
