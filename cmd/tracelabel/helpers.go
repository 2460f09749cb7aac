// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TraceWorksAI/TraceLabel/cmd/tracelabel/config"
	"github.com/TraceWorksAI/TraceLabel/pkg/logging"
	"github.com/TraceWorksAI/TraceLabel/pkg/ux"
	"github.com/TraceWorksAI/TraceLabel/services/labeler"
)

// expandHome resolves a leading ~ in paths coming from the config file,
// where the shell never had a chance to expand it.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// resolveCorpusDir loads the config file and picks the corpus root from
// the --corpus flag first, the config second. Missing both is a usage
// error.
func resolveCorpusDir() string {
	if err := config.Load(); err != nil {
		ux.Error(fmt.Sprintf("Could not load config: %v", err))
		os.Exit(1)
	}
	dir := corpusFlag
	if dir == "" {
		dir = config.Global.Corpus.Dir
	}
	if dir == "" {
		fmt.Fprintln(os.Stderr, "no corpus directory: pass --corpus or set corpus.dir in ~/.tracelabel/tracelabel.yaml")
		os.Exit(2)
	}
	return expandHome(dir)
}

// newCLILogger builds the logger for one-shot commands. The terminal is
// reserved for ux output; log records go to the configured log directory
// or nowhere.
func newCLILogger() *logging.Logger {
	level, err := logging.ParseLevel(config.Global.Logging.GetLevel())
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  config.Global.Logging.Dir,
		Service: "tracelabel",
		Quiet:   true,
	})
}

// newService builds the labeler facade for one-shot commands, honoring
// the config file's patterns, labels file, and TTL.
func newService(corpusDir string, logger *logging.Logger) *labeler.Service {
	svc, err := labeler.New(labeler.Config{
		CorpusDir:      corpusDir,
		LabelsFile:     expandHome(config.Global.Corpus.LabelsFile),
		Patterns:       config.Global.Corpus.Patterns,
		ServiceVersion: Version,
	},
		labeler.WithLogger(logger.Slog()),
		labeler.WithTTL(config.Global.Corpus.GetTTL()),
	)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not open corpus: %v", err))
		os.Exit(1)
	}
	return svc
}

// printJSON writes v as indented JSON to stdout for --json output.
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		ux.Error(fmt.Sprintf("Could not encode JSON: %v", err))
		os.Exit(1)
	}
	fmt.Println(string(data))
}
