// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/TraceWorksAI/TraceLabel/pkg/ux"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	statsJSONOutput bool // Output as JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// statsCmd prints the labeling progress report.
//
// # Description
//
// Shows how much of the corpus has been judged, the correct/incorrect
// split, accuracy over judged traces, and which failure modes have been
// assigned. The same numbers the HTTP /v1/stats endpoint serves.
//
// # Examples
//
//	tracelabel stats --corpus ~/arc_traces
//	tracelabel stats --corpus ~/arc_traces --json
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show labeling progress for the corpus",
	Long: `Reports labeling progress over the trace corpus.

Counts every multi-step puzzle group once, however many trace versions
it has, and reconciles the label store against the current corpus.

Examples:
  tracelabel stats --corpus ~/arc_traces          # styled report
  tracelabel stats --corpus ~/arc_traces --json   # machine-readable`,
	Run: runStatsCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	statsCmd.Flags().BoolVar(&statsJSONOutput, "json", false,
		"Output as JSON for scripting")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runStatsCommand computes and prints labeling statistics.
func runStatsCommand(cmd *cobra.Command, args []string) {
	corpusDir := resolveCorpusDir()

	logger := newCLILogger()
	defer logger.Close()
	svc := newService(corpusDir, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stats, err := svc.GetStats(ctx)
	if err != nil {
		ux.Error(fmt.Sprintf("Stats failed: %v", err))
		os.Exit(1)
	}

	if statsJSONOutput {
		printJSON(stats)
		return
	}

	ux.Title("Labeling Progress")
	ux.KeyValue("Corpus", corpusDir)
	ux.KeyValue("Puzzles", stats.Total)
	ux.KeyValue("Labeled", fmt.Sprintf("%d (%d correct / %d incorrect / %d skipped)",
		stats.Labeled, stats.Correct, stats.Incorrect, stats.Skipped))
	ux.KeyValue("Unlabeled", stats.Unlabeled)

	fmt.Printf("\n  %s\n", ux.ProgressBar(stats.Labeled, stats.Total, 40))

	if stats.Correct+stats.Incorrect > 0 {
		ux.KeyValue("Accuracy", fmt.Sprintf("%.1f%%", stats.AccuracyFraction*100))
	}

	assigned := 0
	for _, count := range stats.FailureModes {
		assigned += count
	}
	if assigned > 0 {
		fmt.Println()
		ux.Muted("Failure modes:")
		for _, mode := range labels.FailureModes {
			if count := stats.FailureModes[mode]; count > 0 {
				ux.KeyValue(mode, count)
			}
		}
	}
}
