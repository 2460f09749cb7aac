// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func hasSubcommand(parent *cobra.Command, name string) bool {
	for _, sub := range parent.Commands() {
		if sub.Name() == name {
			return true
		}
	}
	return false
}

// TestRootCommand_Subcommands verifies the command tree wiring.
func TestRootCommand_Subcommands(t *testing.T) {
	expected := []string{"serve", "scan", "stats", "labels", "version"}
	for _, name := range expected {
		if !hasSubcommand(rootCmd, name) {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

// TestLabelsCommand_Subcommands verifies the labels group wiring.
func TestLabelsCommand_Subcommands(t *testing.T) {
	expected := []string{"export", "import", "delete"}
	for _, name := range expected {
		if !hasSubcommand(labelsCmd, name) {
			t.Errorf("labels command missing subcommand %q", name)
		}
	}
}

// TestRootCommand_PersistentFlags verifies the flags shared by every
// subcommand.
func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"corpus", "plain"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("root command missing persistent flag %q", name)
		}
	}
}

// TestServeCommand_Flags verifies the serve tuning flags exist.
func TestServeCommand_Flags(t *testing.T) {
	for _, name := range []string{"port", "watch", "ttl"} {
		if serveCmd.Flags().Lookup(name) == nil {
			t.Errorf("serve command missing flag %q", name)
		}
	}
	if flag := serveCmd.Flags().Lookup("watch"); flag != nil && flag.DefValue != "true" {
		t.Errorf("watch flag default = %q, want %q", flag.DefValue, "true")
	}
}

// TestExportCommand_OutputFlag verifies the -o shorthand.
func TestExportCommand_OutputFlag(t *testing.T) {
	flag := labelsExportCmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("export command missing flag \"output\"")
	}
	if flag.Shorthand != "o" {
		t.Errorf("output flag shorthand = %q, want %q", flag.Shorthand, "o")
	}
}
