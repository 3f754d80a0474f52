// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for termdrift.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], flags declared either as a
// [pflag.FlagSet] factory or as a tagged parameter struct (see
// [BindFlags]), and a Run function. Commands are assembled into a tree
// in cmd/termdrift/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Commands that end with a meaningful non-zero status return
// [ExitError]; [JSONOutput] gives a command a --json mode.
package cli
