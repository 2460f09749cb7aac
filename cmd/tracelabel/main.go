// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command tracelabel is the ARC reasoning-trace labeling tool.
//
// It scans a corpus of trace analysis files, serves a review API over
// HTTP, and manages a mergeable label store so several reviewers can
// judge traces independently and combine their work.
//
// # Usage
//
//	tracelabel serve --corpus ~/arc_traces
//	tracelabel scan --corpus ~/arc_traces
//	tracelabel stats --corpus ~/arc_traces
//	tracelabel labels export --corpus ~/arc_traces -o labels.json
//
// Configuration defaults live in ~/.tracelabel/tracelabel.yaml, created
// on first run. Flags override the file.
package main

import (
	"fmt"
	"os"
)

// Version and GitCommit are stamped by the build via -ldflags.
var (
	Version   = "dev"
	GitCommit = "none"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	// Runners exit(1) on operational failures themselves, so an error
	// here means the invocation itself was wrong.
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
