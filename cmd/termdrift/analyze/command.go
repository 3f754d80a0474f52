// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package analyze implements "termdrift analyze": classification of a
// harness run's artifact directory into a drift verdict.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/termdrift/cmd/termdrift/cli"
	"github.com/bureau-foundation/termdrift/lib/config"
	"github.com/bureau-foundation/termdrift/lib/drift"
	"github.com/bureau-foundation/termdrift/lib/evidence"
	"github.com/bureau-foundation/termdrift/lib/report"
)

// pollutionExitCode is returned with --fail-on-pollution when the
// verdict is "yes".
const pollutionExitCode = 2

type analyzeParams struct {
	cli.JSONOutput
	OutDir          string          `flag:"out-dir" desc:"artifact directory of the run" default:"."`
	RunnerExit      cli.OptionalInt `flag:"runner-exit" desc:"exit code of the harness shell, recorded in the summary"`
	HTML            bool            `flag:"html" desc:"also write summary.html"`
	FailOnPollution bool            `flag:"fail-on-pollution" desc:"exit 2 when TTY pollution is suspected"`
	Config          string          `flag:"config" desc:"config file (.yaml, .yml, .json, .jsonc); default $TERMDRIFT_CONFIG"`
}

// Command returns the "termdrift analyze" command.
func Command() *cli.Command {
	var params analyzeParams

	return &cli.Command{
		Name:    "analyze",
		Summary: "Classify a run's artifacts into a drift verdict",
		Description: fmt.Sprintf(`Read the artifacts a harness run left in --out-dir and decide whether the
program under test left the terminal in a different state than it found it.

Inputs (each optional; a missing file counts as empty):
  %-44s stty -a output around the run
  %-44s termdrift capture snapshots
  %-44s script(1) transcript with probe markers

A directory holding none of these inputs is reported as
%q rather than clean.

Outputs written into the same directory: %s, %s, and with
--html %s. The verdict line is printed to stdout; with --json the
full summary is printed instead.

Exits 0 whatever the verdict unless --fail-on-pollution is given.`,
			evidence.SttyBeforeFile+", "+evidence.SttyAfterFile,
			evidence.ProtocolBeforeFile+", "+evidence.ProtocolAfterFile,
			evidence.TranscriptFile,
			drift.StatusNoArtifacts,
			evidence.SummaryJSONFile, evidence.SummaryMarkdownFile, evidence.SummaryHTMLFile),
		Usage: "termdrift analyze [--out-dir DIR] [flags]",
		Examples: []cli.Example{
			{
				Description: "Classify a run and record the harness exit code",
				Command:     "termdrift analyze --out-dir out --runner-exit 130",
			},
			{
				Description: "Gate CI on the verdict",
				Command:     "termdrift analyze --out-dir out --fail-on-pollution --html",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return run(params, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), logger)
		},
	}
}

func run(params analyzeParams, stdout io.Writer, styled bool, logger *slog.Logger) error {
	cfg, configPath, err := config.Load(params.Config)
	if err != nil {
		return cli.Validation("%w", err)
	}
	if configPath != "" {
		logger = logger.With("config", configPath)
	}

	info, err := os.Stat(params.OutDir)
	if errors.Is(err, fs.ErrNotExist) {
		return cli.NotFound("artifact directory %s does not exist", params.OutDir)
	}
	if err != nil {
		return cli.Internal("%w", err)
	}
	if !info.IsDir() {
		return cli.Validation("--out-dir %s is not a directory", params.OutDir)
	}

	summary, err := evidence.Analyze(params.OutDir, params.RunnerExit.Pointer(), evidence.Options{
		MarkerPrefix:    cfg.MarkerPrefix,
		SuspiciousModes: cfg.SuspiciousModeList(),
		Logger:          logger,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}

	outputs, err := evidence.WriteOutputs(params.OutDir, summary, params.HTML)
	if err != nil {
		return cli.Internal("%w", err)
	}

	if done, err := params.EmitJSON(stdout, summary); done {
		if err != nil {
			return err
		}
	} else {
		fmt.Fprintf(stdout, "wrote %s\n", outputs.JSON)
		fmt.Fprintf(stdout, "wrote %s\n", outputs.Markdown)
		if outputs.HTML != "" {
			fmt.Fprintf(stdout, "wrote %s\n", outputs.HTML)
		}
		fmt.Fprint(stdout, report.Terminal(summary, styled))
	}

	if params.FailOnPollution && summary.Suspected != nil && *summary.Suspected {
		return &cli.ExitError{Code: pollutionExitCode}
	}
	return nil
}
