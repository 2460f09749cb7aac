// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trace

import "encoding/json"

// Step is one reasoning step from a trace's general_steps sequence.
// Steps are opaque to this layer beyond their count; the two fields here
// are the ones the UI layer surfaces in lists.
type Step struct {
	StepNumber  json.Number `json:"step_number,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Summary is the solver's own accuracy summary for a trace. Missing fields
// default to zero; NumGeneralSteps falls back to the actual step count.
type Summary struct {
	// TrainingAccuracy is the fraction of training examples solved, in [0,1].
	TrainingAccuracy float64 `json:"training_accuracy"`

	// TestAccuracy is the fraction of test examples solved, in [0,1].
	TestAccuracy float64 `json:"test_accuracy"`

	// NumGeneralSteps is the reasoning step count.
	NumGeneralSteps int `json:"num_general_steps"`
}

// Meta is the cacheable slice of a trace: identity plus solve summary,
// without steps, examples, or the document body.
type Meta struct {
	PuzzleID   string  `json:"puzzle_id"`
	VersionTag string  `json:"version_tag,omitempty"`
	Summary    Summary `json:"summary"`
}

// PuzzleTrace is one fully parsed trace file.
//
// PuzzleID comes from the document's puzzle_id field when present, else it
// is derived from the filename. FilePath is corpus-relative with forward
// slashes and unique within the corpus. Example records are kept opaque;
// this layer only counts them.
type PuzzleTrace struct {
	PuzzleID   string `json:"puzzle_id"`
	FilePath   string `json:"file_path"`
	VersionTag string `json:"version_tag,omitempty"`

	GeneralSteps     []Step            `json:"general_steps"`
	TrainingExamples []json.RawMessage `json:"training_examples,omitempty"`
	TestExamples     []json.RawMessage `json:"test_examples,omitempty"`

	Summary Summary `json:"summary"`

	// Raw is the decoded document body, retained so boundary responses can
	// pass through fields this layer treats as opaque (grids, booklets).
	Raw json.RawMessage `json:"-"`
}

// document is the on-disk schema of a trace file, limited to the fields
// this layer reads. general_steps is a pointer so "absent or null" is
// distinguishable from "present and empty".
type document struct {
	PuzzleID     string    `json:"puzzle_id"`
	GeneralSteps *[]Step   `json:"general_steps"`
	Summary      *Summary  `json:"summary"`
	Analysis     *analysis `json:"analysis"`
}

// analysis carries the example sequences inside the document.
type analysis struct {
	TrainExamples []json.RawMessage `json:"train_examples"`
	TestExamples  []json.RawMessage `json:"test_examples"`
}
