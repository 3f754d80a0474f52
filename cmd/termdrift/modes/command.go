// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package modes implements "termdrift modes": the table of DEC private
// modes termdrift knows, which of them a capture queries, and which
// count as drift when a session leaves them enabled.
package modes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/bureau-foundation/termdrift/cmd/termdrift/cli"
	"github.com/bureau-foundation/termdrift/lib/config"
	"github.com/bureau-foundation/termdrift/lib/termproto"
)

type modesParams struct {
	cli.JSONOutput
	Config string `flag:"config" desc:"config file (.yaml, .yml, .json, .jsonc); default $TERMDRIFT_CONFIG"`
}

// Entry is one row of the mode table.
type Entry struct {
	Mode       int    `json:"mode"`
	Label      string `json:"label"`
	Queried    bool   `json:"queried"`
	Suspicious bool   `json:"suspicious"`
}

// Command returns the "termdrift modes" command.
func Command() *cli.Command {
	var params modesParams

	return &cli.Command{
		Name:    "modes",
		Summary: "List the DEC private modes termdrift queries and flags",
		Description: `Print every DEC private mode termdrift has a label for, plus any extra
modes named in the config. QUERIED marks the modes a capture asks about;
SUSPICIOUS marks the modes whose enabling during a run counts as terminal
protocol drift.`,
		Usage: "termdrift modes [flags]",
		Examples: []cli.Example{
			{
				Description: "Show the effective mode sets for a config",
				Command:     "termdrift modes --config termdrift.yaml",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return run(params, os.Stdout)
		},
	}
}

func run(params modesParams, stdout io.Writer) error {
	cfg, _, err := config.Load(params.Config)
	if err != nil {
		return cli.Validation("%w", err)
	}
	entries := table(cfg)

	if done, err := params.EmitJSON(stdout, entries); done {
		return err
	}

	writer := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "MODE\tLABEL\tQUERIED\tSUSPICIOUS")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", entry.Mode, entry.Label, mark(entry.Queried), mark(entry.Suspicious))
	}
	return writer.Flush()
}

// table merges the known modes with the configured sets, in numeric
// order.
func table(cfg *config.Config) []Entry {
	queried := cfg.ModeList()
	suspicious := cfg.SuspiciousModeList()

	all := make(map[termproto.Mode]struct{}, len(termproto.KnownModes))
	for mode := range termproto.KnownModes {
		all[mode] = struct{}{}
	}
	for _, mode := range slices.Concat(queried, suspicious) {
		all[mode] = struct{}{}
	}

	entries := make([]Entry, 0, len(all))
	for _, mode := range termproto.SortedModes(all) {
		entries = append(entries, Entry{
			Mode:       int(mode),
			Label:      mode.Label(),
			Queried:    slices.Contains(queried, mode),
			Suspicious: slices.Contains(suspicious, mode),
		})
	}
	return entries
}

func mark(set bool) string {
	if set {
		return "yes"
	}
	return "-"
}
