// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/termdrift/lib/clock"
	"github.com/bureau-foundation/termdrift/lib/rawmode"
	"github.com/bureau-foundation/termdrift/lib/termproto"
)

// Transport is the terminal I/O a query sequence needs.
// *rawmode.Session implements it.
type Transport interface {
	// Flush discards input buffered before the queries start.
	Flush() error

	// Write sends one encoded query in full.
	Write(data []byte) error

	// ReadFor returns whatever arrives before timeout elapses.
	ReadFor(timeout time.Duration) ([]byte, error)
}

// QueryResult is the decoded output of a query sequence.
type QueryResult struct {
	Modes       map[termproto.Mode]termproto.ModeResponse
	ModeRaw     []byte
	Keyboard    termproto.KeyboardState
	KeyboardRaw []byte
}

// Query asks the terminal for each mode in order, then for the kitty
// keyboard flags. Each mode query gets its own queryTimeout window and
// its answer is decoded and merged before the next query is written.
// On a transport error, or when ctx is done before the next query is
// written, Query returns the partial result gathered so far together
// with the error.
func Query(ctx context.Context, transport Transport, modes []termproto.Mode, queryTimeout, keyboardTimeout time.Duration) (QueryResult, error) {
	result := QueryResult{Modes: make(map[termproto.Mode]termproto.ModeResponse)}

	for _, mode := range modes {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("capture interrupted before mode %d: %w", mode, err)
		}
		if err := transport.Write(termproto.EncodeModeQuery(mode)); err != nil {
			return result, fmt.Errorf("querying mode %d: %w", mode, err)
		}
		chunk, err := transport.ReadFor(queryTimeout)
		result.ModeRaw = append(result.ModeRaw, chunk...)
		for answered, response := range termproto.DecodeModeResponses(chunk) {
			result.Modes[answered] = response
		}
		if err != nil {
			return result, fmt.Errorf("reading answer for mode %d: %w", mode, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("capture interrupted before keyboard protocol query: %w", err)
	}
	if err := transport.Write(termproto.EncodeKeyboardQuery()); err != nil {
		return result, fmt.Errorf("querying keyboard protocol: %w", err)
	}
	chunk, err := transport.ReadFor(keyboardTimeout)
	result.KeyboardRaw = chunk
	result.Keyboard = termproto.DecodeKeyboardResponses(chunk)
	if err != nil {
		return result, fmt.Errorf("reading keyboard protocol answer: %w", err)
	}
	return result, nil
}

// Options configures a capture.
type Options struct {
	// Tag labels the snapshot (e.g., "before", "after").
	Tag string

	// Modes to query. Nil means DefaultModes.
	Modes []termproto.Mode

	// QueryTimeout is the read window per mode query. Values under a
	// millisecond are raised to one millisecond.
	QueryTimeout time.Duration

	// KeyboardTimeout is the read window for the keyboard query, with
	// the same floor as QueryTimeout.
	KeyboardTimeout time.Duration

	// Term is the session's TERM value.
	Term string

	// UnsupportedTerms extends the built-in list of TERM values that
	// are never queried.
	UnsupportedTerms []string

	// Clock drives timestamps and read deadlines. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives capture diagnostics. Nothing is logged while the
	// terminal is raw. Nil discards.
	Logger *slog.Logger
}

// acquireFunc opens a Transport over the terminal. Replaced in tests.
type acquireFunc func(input, output int, clk clock.Clock) (transportSession, error)

type transportSession interface {
	Transport
	Close() error
}

func acquireRawMode(input, output int, clk clock.Clock) (transportSession, error) {
	session, err := rawmode.Acquire(input, output, clk)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Capture snapshots the protocol state of the terminal on input (read)
// and output (write). It never fails: errors, including cancellation of
// ctx between queries, become StatusError.
func Capture(ctx context.Context, input, output int, options Options) Snapshot {
	return capture(ctx, input, output, options, acquireRawMode)
}

// Failed returns the StatusError snapshot for a capture that never
// reached the terminal, such as one whose configuration did not load.
func Failed(options Options, err error) Snapshot {
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return Snapshot{
		GeneratedAt:    clk.Now().UTC(),
		CaptureID:      uuid.NewString(),
		Tag:            options.Tag,
		Term:           options.Term,
		Status:         StatusError,
		Error:          err.Error(),
		RequestedModes: slices.Clone(options.Modes),
		Modes:          make(map[termproto.Mode]termproto.ModeResponse),
	}
}

func capture(ctx context.Context, input, output int, options Options, acquire acquireFunc) Snapshot {
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	modes := options.Modes
	if modes == nil {
		modes = DefaultModes
	}

	result := Snapshot{
		GeneratedAt:    clk.Now().UTC(),
		CaptureID:      uuid.NewString(),
		Tag:            options.Tag,
		TTY:            rawmode.TTYName(input),
		Term:           options.Term,
		RequestedModes: slices.Clone(modes),
		Modes:          make(map[termproto.Mode]termproto.ModeResponse),
	}

	if IsUnsupportedTerm(options.Term, options.UnsupportedTerms) {
		result.Status = StatusSkipped
		logger.Info("skipping capture for unsupported terminal", "term", options.Term, "tag", options.Tag)
		return result
	}

	queryTimeout := max(options.QueryTimeout, time.Millisecond)
	keyboardTimeout := max(options.KeyboardTimeout, time.Millisecond)

	queried, err := runQueries(ctx, input, output, clk, acquire, modes, queryTimeout, keyboardTimeout)
	result.Modes = queried.Modes
	result.ModeRaw = queried.ModeRaw
	result.Keyboard = queried.Keyboard
	result.KeyboardRaw = queried.KeyboardRaw
	result.Raw = append(append([]byte(nil), queried.ModeRaw...), queried.KeyboardRaw...)
	if result.Modes == nil {
		result.Modes = make(map[termproto.Mode]termproto.ModeResponse)
	}

	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		logger.Warn("terminal protocol capture failed",
			"tag", options.Tag,
			"tty", result.TTY,
			"error", err,
		)
		return result
	}

	result.Status = StatusOK
	logger.Info("terminal protocol captured",
		"tag", options.Tag,
		"tty", result.TTY,
		"term", options.Term,
		"requested_modes", len(modes),
		"answered_modes", len(result.Modes),
		"keyboard_answers", len(result.Keyboard.Responses),
	)
	return result
}

// runQueries owns the raw-mode window. The session is closed before
// runQueries returns, including when the query loop panics; a panic is
// converted into an error after the terminal has been restored.
func runQueries(ctx context.Context, input, output int, clk clock.Clock, acquire acquireFunc, modes []termproto.Mode, queryTimeout, keyboardTimeout time.Duration) (result QueryResult, err error) {
	session, err := acquire(input, output, clk)
	if err != nil {
		return QueryResult{}, err
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.Join(err, fmt.Errorf("capture aborted: %v", recovered))
		}
		if closeErr := session.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if err := session.Flush(); err != nil {
		return QueryResult{}, err
	}
	return Query(ctx, session, modes, queryTimeout, keyboardTimeout)
}
