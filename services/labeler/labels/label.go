// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package labels

import (
	"slices"
	"time"
)

// Label values a reviewer can assign.
const (
	Correct   = "correct"
	Incorrect = "incorrect"
	Skipped   = "skipped"
)

// ValidValue reports whether s is a recognized label value.
func ValidValue(s string) bool {
	switch s {
	case Correct, Incorrect, Skipped:
		return true
	}
	return false
}

// FailureModes is the closed taxonomy of reasoning defects. A-codes are
// perception failures, B-codes planning failures, C-codes execution
// failures.
var FailureModes = []string{"A1", "A2", "A3", "B1", "B2", "C1", "C2", "C3"}

// ValidFailureMode reports whether code is in the taxonomy.
func ValidFailureMode(code string) bool {
	return slices.Contains(FailureModes, code)
}

// Label is one reviewer judgement for a puzzle. The store holds at most
// one Label per PuzzleID.
type Label struct {
	PuzzleID string `json:"puzzle_id"`
	Label    string `json:"label"`

	// Reasoning is the reviewer's free-form note.
	Reasoning string `json:"reasoning,omitempty"`

	// FailureModes is kept sorted and deduplicated. Meaningful for
	// incorrect labels, accepted on any.
	FailureModes []string `json:"failure_modes,omitempty"`

	// FilePath records which trace file the reviewer was looking at.
	FilePath string `json:"file_path,omitempty"`

	Reviewer  string    `json:"reviewer"`
	Timestamp time.Time `json:"timestamp"`

	// Edited is set once a stored judgement or its failure modes change.
	// An edited label wins merge conflicts.
	Edited bool `json:"edited"`
}

// normalizeModes returns a sorted, deduplicated copy of modes.
func normalizeModes(modes []string) []string {
	if len(modes) == 0 {
		return nil
	}
	out := slices.Clone(modes)
	slices.Sort(out)
	return slices.Compact(out)
}

// equivalent compares two labels on every field except Timestamp. Both
// sides are expected to carry normalized failure modes.
func equivalent(a, b Label) bool {
	return a.PuzzleID == b.PuzzleID &&
		a.Label == b.Label &&
		a.Reasoning == b.Reasoning &&
		a.FilePath == b.FilePath &&
		a.Reviewer == b.Reviewer &&
		a.Edited == b.Edited &&
		slices.Equal(a.FailureModes, b.FailureModes)
}
