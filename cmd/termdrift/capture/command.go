// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture implements "termdrift capture": one snapshot of the
// controlling terminal's protocol state written as a JSON document.
package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/termdrift/cmd/termdrift/cli"
	"github.com/bureau-foundation/termdrift/lib/config"
	"github.com/bureau-foundation/termdrift/lib/evidence"
	"github.com/bureau-foundation/termdrift/lib/snapshot"
)

type captureParams struct {
	Output            string          `flag:"output,o" desc:"path of the snapshot JSON document (required)"`
	Tag               string          `flag:"tag" desc:"label stored in the snapshot" default:"snapshot"`
	Modes             string          `flag:"modes" desc:"comma-separated DEC private modes to query (default from config)"`
	PerQueryTimeoutMS cli.OptionalInt `flag:"per-query-timeout-ms" desc:"read window per mode query in milliseconds (default 120)"`
	KittyTimeoutMS    cli.OptionalInt `flag:"kitty-timeout-ms" desc:"read window for the kitty keyboard query in milliseconds (default 120)"`
	Quiet             bool            `flag:"quiet,q" desc:"do not print the written path"`
	Config            string          `flag:"config" desc:"config file (.yaml, .yml, .json, .jsonc); default $TERMDRIFT_CONFIG"`
}

// terminal is where a capture reads and writes. Tests substitute the
// capture function.
type terminal struct {
	input   int
	output  int
	term    string
	stdout  io.Writer
	capture func(ctx context.Context, input, output int, options snapshot.Options) snapshot.Snapshot
}

// Command returns the "termdrift capture" command.
func Command() *cli.Command {
	var params captureParams

	return &cli.Command{
		Name:    "capture",
		Summary: "Snapshot the terminal's protocol state",
		Description: `Query the terminal on stdin/stdout for the state of each DEC private mode
(DECRQM) and for the kitty keyboard protocol flags, then write the answers
as a JSON snapshot.

The terminal is put in raw mode only for the duration of the queries and
is always restored. Terminals whose TERM is empty, "dumb", or listed in the
config's unsupported_terms are not queried; the snapshot records
"skipped_unsupported_term" instead.

Exits 0 when the snapshot status is "ok" or "skipped_unsupported_term" and
1 when it is "error". Once --output is known the document is written in
every case, including when the config or another flag is invalid; those
invocations still exit with a usage error.`,
		Usage: "termdrift capture --output PATH [flags]",
		Examples: []cli.Example{
			{
				Description: "Snapshot before running a program under test",
				Command:     "termdrift capture --tag before --output out/" + evidence.ProtocolBeforeFile,
			},
			{
				Description: "Query only the alternate screen and bracketed paste",
				Command:     "termdrift capture -o snap.json --modes 1049,2004 --per-query-timeout-ms 250",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return run(ctx, params, terminal{
				input:   int(os.Stdin.Fd()),
				output:  int(os.Stdout.Fd()),
				term:    os.Getenv("TERM"),
				stdout:  os.Stdout,
				capture: snapshot.Capture,
			}, logger)
		},
	}
}

func run(ctx context.Context, params captureParams, tty terminal, logger *slog.Logger) error {
	if params.Output == "" {
		return cli.Validation("--output is required")
	}

	options, err := resolveOptions(params, tty.term, logger)
	if err != nil {
		failed := snapshot.Failed(snapshot.Options{Tag: params.Tag, Term: tty.term}, err)
		if writeErr := snapshot.Write(params.Output, failed); writeErr != nil {
			logger.Warn("writing error snapshot failed", "path", params.Output, "error", writeErr)
		}
		return err
	}

	result := tty.capture(ctx, tty.input, tty.output, options)
	if err := snapshot.Write(params.Output, result); err != nil {
		return cli.Internal("%w", err)
	}
	if !params.Quiet {
		fmt.Fprintln(tty.stdout, params.Output)
	}

	if code := result.Status.ExitCode(); code != 0 {
		return &cli.ExitError{Code: code}
	}
	return nil
}

// resolveOptions merges the config file with the flags. Every error it
// returns is a validation error.
func resolveOptions(params captureParams, term string, logger *slog.Logger) (snapshot.Options, error) {
	cfg, configPath, err := config.Load(params.Config)
	if err != nil {
		return snapshot.Options{}, cli.Validation("%w", err)
	}
	if configPath != "" {
		logger = logger.With("config", configPath)
	}

	options := snapshot.Options{
		Tag:              params.Tag,
		Modes:            cfg.ModeList(),
		QueryTimeout:     cfg.QueryTimeout(),
		KeyboardTimeout:  cfg.KeyboardTimeout(),
		Term:             term,
		UnsupportedTerms: cfg.UnsupportedTerms,
		Logger:           logger,
	}
	if params.Modes != "" {
		modes, err := snapshot.ParseModeList(params.Modes)
		if err != nil {
			return options, cli.Validation("--modes: %w", err)
		}
		if len(modes) == 0 {
			return options, cli.Validation("--modes: no modes given")
		}
		options.Modes = modes
	}
	if options.QueryTimeout, err = timeoutFlag("--per-query-timeout-ms", params.PerQueryTimeoutMS, options.QueryTimeout); err != nil {
		return options, err
	}
	if options.KeyboardTimeout, err = timeoutFlag("--kitty-timeout-ms", params.KittyTimeoutMS, options.KeyboardTimeout); err != nil {
		return options, err
	}
	return options, nil
}

// timeoutFlag returns the flag's value as a duration when it was given,
// and fallback otherwise.
func timeoutFlag(name string, flag cli.OptionalInt, fallback time.Duration) (time.Duration, error) {
	value := flag.Pointer()
	if value == nil {
		return fallback, nil
	}
	if *value <= 0 {
		return 0, cli.Validation("%s must be positive, got %d", name, *value)
	}
	return time.Duration(*value) * time.Millisecond, nil
}
