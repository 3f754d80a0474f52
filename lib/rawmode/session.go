// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rawmode

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/bureau-foundation/termdrift/lib/clock"
)

const (
	// FlushIterations bounds the number of drain reads Flush performs.
	FlushIterations = 8

	// readChunkSize is the buffer size for a single read(2).
	readChunkSize = 4096

	// pollSlice is the longest single poll(2) wait inside ReadFor. The
	// deadline is re-checked between slices.
	pollSlice = 20 * time.Millisecond

	// writeTimeout bounds how long Write keeps retrying a terminal whose
	// output queue is full.
	writeTimeout = time.Second

	// writeRetryDelay is the pause between retries of a write that
	// returned EAGAIN.
	writeRetryDelay = time.Millisecond
)

// Session is an acquired terminal in raw, non-blocking mode. Create it
// with Acquire and release it with Close.
type Session struct {
	input  int
	output int
	clock  clock.Clock

	savedTermios unix.Termios
	savedFlags   int
	closed       bool
}

// Acquire puts the terminal behind input into raw, non-blocking mode
// and returns a Session that restores it on Close. Both input and
// output must be terminals; if either is not, Acquire returns an error
// wrapping ErrNotATerminal without modifying anything. A nil clock
// means clock.Real().
//
// If switching modes fails partway, Acquire restores whatever it had
// already changed before returning the error.
func Acquire(input, output int, clk clock.Clock) (*Session, error) {
	if !term.IsTerminal(input) {
		return nil, fmt.Errorf("input descriptor %d: %w", input, ErrNotATerminal)
	}
	if !term.IsTerminal(output) {
		return nil, fmt.Errorf("output descriptor %d: %w", output, ErrNotATerminal)
	}
	if clk == nil {
		clk = clock.Real()
	}

	saved, err := unix.IoctlGetTermios(input, ioctlGetTermios)
	if err != nil {
		return nil, fmt.Errorf("reading terminal attributes: %w", err)
	}
	flags, err := unix.FcntlInt(uintptr(input), unix.F_GETFL, 0)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor flags: %w", err)
	}

	session := &Session{
		input:        input,
		output:       output,
		clock:        clk,
		savedTermios: *saved,
		savedFlags:   flags,
	}

	raw := makeRaw(*saved)
	if err := unix.IoctlSetTermios(input, ioctlSetTermios, &raw); err != nil {
		// The set may have partially applied; restore unconditionally.
		return nil, errors.Join(fmt.Errorf("entering raw mode: %w", err), session.restoreTermios())
	}
	if _, err := unix.FcntlInt(uintptr(input), unix.F_SETFL, flags|unix.O_NONBLOCK); err != nil {
		return nil, errors.Join(fmt.Errorf("setting non-blocking mode: %w", err), session.restore())
	}

	return session, nil
}

// makeRaw returns attributes equivalent to cfmakeraw(3): no canonical
// processing, no echo, no signal generation, no input or output
// translation, 8-bit characters, and reads that return after one byte.
func makeRaw(attributes unix.Termios) unix.Termios {
	attributes.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	attributes.Oflag &^= unix.OPOST
	attributes.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	attributes.Cflag &^= unix.CSIZE | unix.PARENB
	attributes.Cflag |= unix.CS8
	attributes.Cc[unix.VMIN] = 1
	attributes.Cc[unix.VTIME] = 0
	return attributes
}

// Close restores the terminal attributes and descriptor flags recorded
// by Acquire. Both are restored even if the first restore fails. Close
// is idempotent; calls after the first return nil.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.restore()
}

func (s *Session) restore() error {
	return errors.Join(s.restoreTermios(), s.restoreFlags())
}

func (s *Session) restoreTermios() error {
	saved := s.savedTermios
	if err := unix.IoctlSetTermios(s.input, ioctlSetTermiosDrain, &saved); err != nil {
		return fmt.Errorf("restoring terminal attributes: %w", err)
	}
	return nil
}

func (s *Session) restoreFlags() error {
	if _, err := unix.FcntlInt(uintptr(s.input), unix.F_SETFL, s.savedFlags); err != nil {
		return fmt.Errorf("restoring descriptor flags: %w", err)
	}
	return nil
}

// Flush discards input that was already buffered before the session
// started, such as stray keystrokes. It performs at most
// FlushIterations reads and stops early when nothing is pending.
func (s *Session) Flush() error {
	if s.closed {
		return &IOError{Op: "flush", Err: errSessionClosed}
	}
	buffer := make([]byte, readChunkSize)
	for range FlushIterations {
		count, err := unix.Read(s.input, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				return nil
			}
			return &IOError{Op: "flush", Err: err}
		}
		if count == 0 {
			return nil
		}
	}
	return nil
}

// Write sends data to the terminal in full. A full output queue is
// retried until writeTimeout elapses.
func (s *Session) Write(data []byte) error {
	if s.closed {
		return &IOError{Op: "write", Err: errSessionClosed}
	}
	deadline := s.clock.Now().Add(writeTimeout)
	for len(data) > 0 {
		count, err := unix.Write(s.output, data)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EINTR {
				return &IOError{Op: "write", Err: err}
			}
			if clock.Remaining(s.clock, deadline) == 0 {
				return &IOError{Op: "write", Err: fmt.Errorf("output blocked for %v", writeTimeout)}
			}
			s.clock.Sleep(writeRetryDelay)
			continue
		}
		data = data[count:]
	}
	return nil
}

// ReadFor collects bytes from the terminal until timeout elapses or the
// input reaches end of file, and returns everything read in arrival
// order. The wait is split into poll slices no longer than pollSlice so
// the deadline is honored even when the terminal trickles bytes.
func (s *Session) ReadFor(timeout time.Duration) ([]byte, error) {
	if s.closed {
		return nil, &IOError{Op: "read", Err: errSessionClosed}
	}
	var collected []byte
	buffer := make([]byte, readChunkSize)
	deadline := s.clock.Now().Add(timeout)
	for {
		remaining := clock.Remaining(s.clock, deadline)
		if remaining == 0 {
			return collected, nil
		}
		wait := min(remaining, pollSlice)
		waitMilliseconds := max(int(wait/time.Millisecond), 1)

		pollDescriptors := []unix.PollFd{{Fd: int32(s.input), Events: unix.POLLIN}}
		ready, err := unix.Poll(pollDescriptors, waitMilliseconds)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return collected, &IOError{Op: "poll", Err: err}
		}
		if ready == 0 {
			continue
		}

		count, err := unix.Read(s.input, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return collected, &IOError{Op: "read", Err: err}
		}
		if count == 0 {
			return collected, nil
		}
		collected = append(collected, buffer[:count]...)
	}
}

var errSessionClosed = errors.New("session closed")
