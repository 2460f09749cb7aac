// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains puzzle listing, detail, and stats response types.

package datatypes

import (
	"encoding/json"
	"time"

	"github.com/TraceWorksAI/TraceLabel/services/labeler/groups"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/selector"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/trace"
)

// LabelStatusUnlabeled marks a puzzle without a stored label. The other
// statuses are the label values themselves.
const LabelStatusUnlabeled = "unlabeled"

// PuzzleSummary is one puzzle group in a listing: all version file paths
// in review order plus the first member's solve summary.
type PuzzleSummary struct {
	PuzzleID    string        `json:"puzzle_id"`
	NumVersions int           `json:"num_versions"`
	FilePaths   []string      `json:"file_paths"`
	LabelStatus string        `json:"label_status"`
	Summary     trace.Summary `json:"summary"`
}

// NewPuzzleSummary flattens a group for the wire.
func NewPuzzleSummary(g groups.Group, labelStatus string) PuzzleSummary {
	paths := make([]string, len(g.Members))
	for i, m := range g.Members {
		paths[i] = m.FilePath
	}
	return PuzzleSummary{
		PuzzleID:    g.PuzzleID,
		NumVersions: len(g.Members),
		FilePaths:   paths,
		LabelStatus: labelStatus,
		Summary:     g.Primary().Summary,
	}
}

// ListPuzzlesResponse is the body of GET /v1/puzzles.
type ListPuzzlesResponse struct {
	Puzzles     []PuzzleSummary `json:"puzzles"`
	Total       int             `json:"total"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// UnlabeledPage is the body of GET /v1/puzzles/unlabeled. Page is
// 0-indexed; HasMore signals further pages.
type UnlabeledPage struct {
	Puzzles  []PuzzleSummary `json:"puzzles"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	HasMore  bool            `json:"has_more"`
}

// NewUnlabeledPage flattens a selector page; everything on it is by
// definition unlabeled.
func NewUnlabeledPage(p selector.Page) UnlabeledPage {
	puzzles := make([]PuzzleSummary, len(p.Groups))
	for i, g := range p.Groups {
		puzzles[i] = NewPuzzleSummary(g, LabelStatusUnlabeled)
	}
	return UnlabeledPage{
		Puzzles:  puzzles,
		Total:    p.Total,
		Page:     p.PageNum,
		PageSize: p.PageSize,
		HasMore:  p.HasMore,
	}
}

// VersionRef points at one sibling version of a puzzle.
type VersionRef struct {
	FilePath   string `json:"file_path"`
	VersionTag string `json:"version_tag,omitempty"`
}

// PuzzleDetail is the body of GET /v1/puzzles/trace/*file_path: the full
// trace document plus the current label and the ordered sibling versions.
//
// Trace is the raw document body. The reviewer UI renders grids and
// booklets from fields the service core never interprets, so the document
// is passed through rather than re-encoded from parsed types.
type PuzzleDetail struct {
	PuzzleID   string          `json:"puzzle_id"`
	FilePath   string          `json:"file_path"`
	VersionTag string          `json:"version_tag,omitempty"`
	Summary    trace.Summary   `json:"summary"`
	Trace      json.RawMessage `json:"trace"`
	Label      *labels.Label   `json:"label,omitempty"`
	Versions   []VersionRef    `json:"versions"`
}

// Stats is the body of GET /v1/stats.
type Stats struct {
	Total     int `json:"total"`
	Labeled   int `json:"labeled"`
	Unlabeled int `json:"unlabeled"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Skipped   int `json:"skipped"`

	CompletionFraction float64 `json:"completion_fraction"`
	AccuracyFraction   float64 `json:"accuracy_fraction"`

	FailureModes map[string]int `json:"failure_modes"`
}

// NewStats wraps a computed progress report for the wire.
func NewStats(s selector.Stats) Stats {
	return Stats{
		Total:              s.Total,
		Labeled:            s.Labeled,
		Unlabeled:          s.Unlabeled,
		Correct:            s.Correct,
		Incorrect:          s.Incorrect,
		Skipped:            s.Skipped,
		CompletionFraction: s.CompletionFraction,
		AccuracyFraction:   s.AccuracyFraction,
		FailureModes:       s.FailureModes,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	CorpusDir string `json:"corpus_dir"`
}
