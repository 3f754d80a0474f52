// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI command operations.
// When stderr is a terminal, uses slog.TextHandler for human-readable output.
// When stderr is piped or redirected (CI, harness scripts), uses
// slog.JSONHandler for machine-parseable output.
//
// Setting TERMDRIFT_LOG=debug lowers the level to Debug.
func NewCommandLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("TERMDRIFT_LOG") == "debug" {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
