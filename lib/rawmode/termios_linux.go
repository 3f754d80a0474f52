// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rawmode

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TCGETS
	ioctlSetTermios = unix.TCSETS

	// ioctlSetTermiosDrain waits for queued output to be transmitted
	// before applying the change (tcsetattr TCSADRAIN).
	ioctlSetTermiosDrain = unix.TCSETSW
)
