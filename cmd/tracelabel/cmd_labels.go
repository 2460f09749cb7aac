// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/TraceWorksAI/TraceLabel/pkg/ux"
	"github.com/TraceWorksAI/TraceLabel/services/labeler"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/datatypes"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	labelsOutputFile string // export destination, empty writes to stdout
	labelsJSONOutput bool   // Output the import report as JSON
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// labelsCmd groups the label store commands.
var (
	labelsCmd = &cobra.Command{
		Use:   "labels",
		Short: "Export, import, and delete labels",
	}

	// labelsExportCmd writes the label document for sharing with other
	// reviewers. The document is self-contained JSON; hand it to
	// 'labels import' on another machine to merge.
	labelsExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export the label document for sharing",
		Run:   runLabelsExportCommand,
	}

	// labelsImportCmd merges a label document from another reviewer.
	// Locally edited labels win conflicts; the losers are listed.
	labelsImportCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Merge labels exported by another reviewer",
		Args:  cobra.ExactArgs(1),
		Run:   runLabelsImportCommand,
	}

	// labelsDeleteCmd removes the label for one puzzle.
	labelsDeleteCmd = &cobra.Command{
		Use:   "delete [puzzle_id]",
		Short: "Delete the label for one puzzle",
		Args:  cobra.ExactArgs(1),
		Run:   runLabelsDeleteCommand,
	}
)

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	labelsExportCmd.Flags().StringVarP(&labelsOutputFile, "output", "o", "",
		"Write the document to this file instead of stdout")
	labelsImportCmd.Flags().BoolVar(&labelsJSONOutput, "json", false,
		"Output the merge report as JSON")
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runLabelsExportCommand writes the store document to a file or stdout.
func runLabelsExportCommand(cmd *cobra.Command, args []string) {
	corpusDir := resolveCorpusDir()

	logger := newCLILogger()
	defer logger.Close()
	svc := newService(corpusDir, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	doc, err := svc.ExportLabels(ctx)
	if err != nil {
		ux.Error(fmt.Sprintf("Export failed: %v", err))
		os.Exit(1)
	}

	if labelsOutputFile == "" {
		os.Stdout.Write(doc)
		return
	}
	if err := os.WriteFile(labelsOutputFile, doc, 0644); err != nil {
		ux.Error(fmt.Sprintf("Could not write %s: %v", labelsOutputFile, err))
		os.Exit(1)
	}

	// The document came straight out of the store, so this decode is
	// only for the count in the success line.
	var envelope struct {
		Labels map[string]json.RawMessage `json:"labels"`
	}
	_ = json.Unmarshal(doc, &envelope)
	ux.Success(fmt.Sprintf("Exported %d labels to %s", len(envelope.Labels), labelsOutputFile))
}

// runLabelsImportCommand merges another reviewer's document into the
// local store and reports what happened.
func runLabelsImportCommand(cmd *cobra.Command, args []string) {
	corpusDir := resolveCorpusDir()
	importFile := args[0]

	data, err := os.ReadFile(importFile)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not read %s: %v", importFile, err))
		os.Exit(1)
	}

	logger := newCLILogger()
	defer logger.Close()
	svc := newService(corpusDir, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := svc.ImportLabels(ctx, data)
	if err != nil {
		ux.Error(fmt.Sprintf("Import failed: %v", err))
		os.Exit(1)
	}

	if labelsJSONOutput {
		printJSON(datatypes.NewImportResponse(report))
		return
	}

	ux.Title("Label Import")
	ux.KeyValue("Adopted", report.Adopted)
	ux.KeyValue("Updated", report.Updated)
	ux.KeyValue("Unchanged", report.Unchanged)
	if len(report.Conflicts) > 0 {
		fmt.Println()
		ux.Muted("Conflicts (local edits kept, incoming dropped):")
		for _, id := range report.Conflicts {
			ux.FileStatus(id, ux.IconWarning, "edited locally")
		}
	}
	ux.Success(fmt.Sprintf("Merged %d labels from %s", report.Applied(), importFile))
}

// runLabelsDeleteCommand removes one puzzle's label from the store.
func runLabelsDeleteCommand(cmd *cobra.Command, args []string) {
	corpusDir := resolveCorpusDir()
	puzzleID := args[0]

	logger := newCLILogger()
	defer logger.Close()
	svc := newService(corpusDir, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := svc.DeleteLabel(ctx, puzzleID); err != nil {
		switch {
		case errors.Is(err, labeler.ErrNotFound):
			ux.Warning(fmt.Sprintf("No label for puzzle %s", puzzleID))
			os.Exit(1)
		case errors.Is(err, labeler.ErrInvalidInput):
			fmt.Fprintf(os.Stderr, "invalid puzzle id %q\n", puzzleID)
			os.Exit(2)
		default:
			ux.Error(fmt.Sprintf("Delete failed: %v", err))
			os.Exit(1)
		}
	}
	ux.Success(fmt.Sprintf("Deleted label for %s", puzzleID))
}
