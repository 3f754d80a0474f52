// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the termdrift configuration file.
//
// Configuration comes from a single file named by the --config flag or,
// failing that, the TERMDRIFT_CONFIG environment variable (via [Load]).
// There is no ~/.config discovery and no automatic file search; without
// either, [Default] applies. Command-line flags override file values.
//
// YAML (.yaml, .yml) and JSON with comments (.json, .jsonc) are
// accepted. Unknown keys are rejected so a misspelled option fails
// loudly instead of silently keeping its default.
//
// Key exports:
//
//   - [Config] -- modes, suspicious modes, timeouts, unsupported TERM
//     values, and the transcript marker prefix
//   - [Default] -- the built-in values
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
