// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package rawmode

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA

	// ioctlSetTermiosDrain waits for queued output to be transmitted
	// before applying the change (tcsetattr TCSADRAIN).
	ioctlSetTermiosDrain = unix.TIOCSETAW
)
