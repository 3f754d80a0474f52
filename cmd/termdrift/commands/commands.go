// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the termdrift CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	analyzecmd "github.com/bureau-foundation/termdrift/cmd/termdrift/analyze"
	capturecmd "github.com/bureau-foundation/termdrift/cmd/termdrift/capture"
	"github.com/bureau-foundation/termdrift/cmd/termdrift/cli"
	modescmd "github.com/bureau-foundation/termdrift/cmd/termdrift/modes"
	"github.com/bureau-foundation/termdrift/lib/evidence"
	"github.com/bureau-foundation/termdrift/lib/version"
)

// Root builds and returns the complete termdrift command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "termdrift",
		Description: `termdrift: terminal protocol state drift detector.

Snapshot a terminal's DEC private modes and kitty keyboard flags before and
after a program runs, then classify the run's artifacts to decide whether
the program left the terminal polluted (mouse reporting, bracketed paste,
alternate screen, raw line discipline, leaked key protocols).`,
		Subcommands: []*cli.Command{
			capturecmd.Command(),
			analyzecmd.Command(),
			modescmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Fprintln(os.Stdout, version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Wrap a program under test",
				Command: fmt.Sprintf(`termdrift capture --tag before -o out/%s
  stty -a > out/%s
  script -q -c ./program-under-test out/%s
  stty -a > out/%s
  termdrift capture --tag after -o out/%s
  termdrift analyze --out-dir out`,
					evidence.ProtocolBeforeFile,
					evidence.SttyBeforeFile,
					evidence.TranscriptFile,
					evidence.SttyAfterFile,
					evidence.ProtocolAfterFile),
			},
		},
	}
}
