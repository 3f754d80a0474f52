// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for termdrift.
// These functions centralize the raw I/O that happens after the
// structured logger is gone:
//
//   - Fatal error reporting to stderr.
//   - Process exit with the code an error carries.
package process
