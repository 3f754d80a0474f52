// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package termproto encodes terminal state queries and decodes the
// terminal's answers. It performs no I/O.
//
// Two query families are supported:
//
//   - DECRQM for DEC private modes: the query is ESC [ ? <mode> $ p and
//     the terminal answers with a DECRPM report ESC [ ? <mode> ; <value> $ y,
//     where value is one of the five standardized settings (see
//     [ModeState]).
//
//   - The kitty extended keyboard protocol: the query is ESC [ ? u and a
//     supporting terminal answers ESC [ ? <flags> u.
//
// Decoding is total. Malformed fragments are skipped, absent answers
// produce empty results, and a terminal's literal echo of a query is
// never mistaken for an answer because queries and answers end in
// different final bytes.
//
// DEC private modes are a closed table ([KnownModes]) so that labels and
// unknown-mode handling are decided at compile time rather than by
// string lookups scattered through the analysis code.
package termproto
