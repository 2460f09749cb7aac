// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/TraceWorksAI/TraceLabel/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	corpusFlag  string // CLI override for corpus.dir
	plainOutput bool   // force machine-readable output

	rootCmd = &cobra.Command{
		Use:   "tracelabel",
		Short: "A cli to browse and label ARC reasoning traces",
		Long: `TraceLabel indexes a directory of ARC reasoning traces, groups them
by puzzle, and tracks correct/incorrect judgements in a mergeable label
store. Run 'tracelabel serve' for the HTTP review API or use the scan,
stats, and labels commands directly from the terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if plainOutput {
				ux.SetMode(ux.ModeMachine)
			}
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the tracelabel version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tracelabel %s (commit %s)\n", Version, GitCommit)
		},
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&corpusFlag, "corpus", "",
		"Corpus root directory (overrides corpus.dir in ~/.tracelabel/tracelabel.yaml)")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false,
		"Plain output without colors or icons (for scripting)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statsCmd)

	// label store commands
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.AddCommand(labelsExportCmd)
	labelsCmd.AddCommand(labelsImportCmd)
	labelsCmd.AddCommand(labelsDeleteCmd)

	rootCmd.AddCommand(versionCmd)
}
