// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// termdrift detects terminal protocol state drift: a program that exits
// leaving the terminal in a different private-mode, keyboard-protocol,
// or line-discipline state than it found it.
//
// Subcommands:
//
//	termdrift capture   snapshot DECRQM and kitty keyboard state to JSON
//	termdrift analyze   classify a run's artifact directory
//	termdrift modes     list known, queried, and suspicious modes
//	termdrift version   print version information
//
// Run "termdrift <command> --help" for flags and examples.
package main
