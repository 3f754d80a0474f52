// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"os"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
)

// PTY is a pseudo-terminal pair for tests. Code under test opens
// Terminal (the slave side) as its controlling terminal; the test plays
// the terminal emulator on Master.
type PTY struct {
	// Master is the emulator side. It stays registered with the Go
	// runtime poller, so closing it unblocks a pending Read in another
	// goroutine.
	Master *os.File

	// Terminal is the slave side, opened read-write.
	Terminal *os.File

	// Path is the device path of Terminal (e.g., /dev/pts/3).
	Path string
}

// OpenPTY allocates a PTY pair using the Linux devpts interface and
// closes both ends when the test completes. Skips the test when the
// environment has no /dev/ptmx (some build sandboxes).
func OpenPTY(t *testing.T) *PTY {
	t.Helper()

	master, path, err := openPTY()
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}
	terminal, err := os.OpenFile(path, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		master.Close()
		t.Fatalf("opening PTY slave %s: %v", path, err)
	}
	t.Cleanup(func() {
		terminal.Close()
		master.Close()
	})
	return &PTY{Master: master, Terminal: terminal, Path: path}
}

// openPTY allocates a PTY master/slave pair. Returns the master as an
// *os.File and the filesystem path to the slave. The ioctls run through
// SyscallConn rather than Fd so the master is not switched to blocking
// mode.
func openPTY() (master *os.File, slavePath string, err error) {
	master, err = os.OpenFile("/dev/ptmx", os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, "", fmt.Errorf("open /dev/ptmx: %w", err)
	}

	rawConn, err := master.SyscallConn()
	if err != nil {
		master.Close()
		return nil, "", fmt.Errorf("PTY master syscall conn: %w", err)
	}

	var ptyNumber int
	var ioctlErr error
	controlErr := rawConn.Control(func(fd uintptr) {
		ptyNumber, ioctlErr = unix.IoctlGetInt(int(fd), unix.TIOCGPTN)
		if ioctlErr != nil {
			ioctlErr = fmt.Errorf("get PTY number (TIOCGPTN): %w", ioctlErr)
			return
		}
		if err := unix.IoctlSetPointerInt(int(fd), unix.TIOCSPTLCK, 0); err != nil {
			ioctlErr = fmt.Errorf("unlock PTY slave (TIOCSPTLCK): %w", err)
		}
	})
	if controlErr != nil {
		master.Close()
		return nil, "", controlErr
	}
	if ioctlErr != nil {
		master.Close()
		return nil, "", ioctlErr
	}

	return master, fmt.Sprintf("/dev/pts/%d", ptyNumber), nil
}
