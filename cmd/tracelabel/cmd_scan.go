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

	"github.com/TraceWorksAI/TraceLabel/cmd/tracelabel/config"
	"github.com/TraceWorksAI/TraceLabel/pkg/ux"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/corpus"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	scanJSONOutput bool // Output as JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// scanCmd reconciles the corpus index once and reports what changed.
//
// # Description
//
// Walks the corpus, parses new or modified trace files, reuses cached
// metadata for unchanged ones, and lists files that do not parse.
// Useful after dropping new traces into the corpus or to warm the cache
// before serving.
//
// # Examples
//
//	tracelabel scan --corpus ~/arc_traces
//	tracelabel scan --corpus ~/arc_traces --json
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the corpus and refresh the trace index",
	Long: `Performs one incremental reconcile of the trace corpus.

Unchanged files are served from the metadata cache; only new or edited
files are parsed. Files that fail to parse are listed with the reason
and excluded from the labeling queue.

Examples:
  tracelabel scan --corpus ~/arc_traces          # styled report
  tracelabel scan --corpus ~/arc_traces --json   # machine-readable`,
	Run: runScanCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	scanCmd.Flags().BoolVar(&scanJSONOutput, "json", false,
		"Output as JSON for scripting")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// scanReport is the --json shape of a scan.
type scanReport struct {
	CorpusDir   string                `json:"corpus_dir"`
	Traces      int                   `json:"traces"`
	Stats       corpus.ReconcileStats `json:"stats"`
	DurationMS  int64                 `json:"duration_ms"`
	Invalid     []corpus.InvalidFile  `json:"invalid,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// runScanCommand runs one reconcile pass and prints the outcome.
func runScanCommand(cmd *cobra.Command, args []string) {
	corpusDir := resolveCorpusDir()

	logger := newCLILogger()
	defer logger.Close()

	opts := []corpus.ManagerOption{corpus.WithLogger(logger.Slog())}
	if len(config.Global.Corpus.Patterns) > 0 {
		opts = append(opts, corpus.WithPatterns(config.Global.Corpus.Patterns...))
	}
	mgr, err := corpus.NewManager(corpusDir, opts...)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not open corpus: %v", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	snap, err := mgr.Reconcile(ctx)
	if err != nil && snap == nil {
		ux.Error(fmt.Sprintf("Scan failed: %v", err))
		os.Exit(1)
	}

	if scanJSONOutput {
		printJSON(scanReport{
			CorpusDir:   corpusDir,
			Traces:      len(snap.Entries),
			Stats:       snap.Stats,
			DurationMS:  snap.Stats.Duration.Milliseconds(),
			Invalid:     snap.Invalid,
			GeneratedAt: snap.GeneratedAt,
		})
		if err != nil {
			os.Exit(1)
		}
		return
	}

	ux.Title("Corpus Scan")
	ux.KeyValue("Corpus", corpusDir)
	ux.KeyValue("Traces", len(snap.Entries))
	ux.KeyValue("Elapsed", snap.Stats.Duration.Round(time.Millisecond))

	if len(snap.Invalid) > 0 {
		fmt.Println()
		ux.Muted("Invalid files (excluded from labeling):")
		for _, inv := range snap.Invalid {
			ux.FileStatus(inv.Path, ux.IconWarning, inv.Reason)
		}
	}
	if len(snap.ScanErrors) > 0 {
		fmt.Println()
		ux.Muted("Unreadable paths (skipped):")
		for _, scanErr := range snap.ScanErrors {
			ux.FileStatus(scanErr.Path, ux.IconError, scanErr.Err.Error())
		}
	}

	ux.ScanSummary(snap.Stats.Scanned, snap.Stats.Parsed, snap.Stats.Reused,
		snap.Stats.Removed, snap.Stats.Invalid)

	// A reconcile that worked but could not persist still produced a good
	// snapshot; the next run just rescans from scratch.
	if err != nil {
		ux.Warning(fmt.Sprintf("Index not saved: %v", err))
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("Index written to %s", mgr.CachePath()))
}
