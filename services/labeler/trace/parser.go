// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Parser reads and validates trace files. The zero value is usable and
// applies the default version-tag strategy.
type Parser struct {
	// Version overrides the version-tag extraction strategy. Nil means
	// DefaultVersion.
	Version VersionFunc
}

// Parse reads one trace file and returns its PuzzleTrace.
//
// relPath is the corpus-relative, slash-separated path under root. On
// failure the error is a *ParseError carrying the path and reason; the
// caller logs it and moves on. Rules:
//
//   - the file must decode as a JSON object
//   - general_steps must be present and non-null
//   - empty general_steps is rejected
//   - exactly one general step is rejected (upstream generation defect)
//   - every other missing field gets its default
//
// Parse has no side effects beyond reading the file.
func (p *Parser) Parse(root, relPath string) (*PuzzleTrace, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, &ParseError{Path: relPath, Reason: "unreadable", Err: err}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{
			Path:   relPath,
			Reason: "malformed JSON",
			Err:    fmt.Errorf("%w: %v", ErrMalformed, err),
		}
	}

	if doc.GeneralSteps == nil {
		return nil, newParseError(relPath, ErrMissingSteps)
	}
	steps := *doc.GeneralSteps
	switch len(steps) {
	case 0:
		return nil, newParseError(relPath, ErrEmptySteps)
	case 1:
		return nil, newParseError(relPath, ErrSingleStep)
	}

	versionFn := p.Version
	if versionFn == nil {
		versionFn = DefaultVersion
	}

	puzzleID := doc.PuzzleID
	if puzzleID == "" {
		puzzleID = DerivePuzzleID(relPath)
	}

	t := &PuzzleTrace{
		PuzzleID:     puzzleID,
		FilePath:     relPath,
		VersionTag:   versionFn(relPath),
		GeneralSteps: steps,
		Raw:          json.RawMessage(data),
	}
	if doc.Analysis != nil {
		t.TrainingExamples = doc.Analysis.TrainExamples
		t.TestExamples = doc.Analysis.TestExamples
	}
	if doc.Summary != nil {
		t.Summary = *doc.Summary
	}
	if t.Summary.NumGeneralSteps == 0 {
		t.Summary.NumGeneralSteps = len(steps)
	}
	return t, nil
}

// ParseSummary reads one trace file and returns only its Meta. Validation
// is identical to Parse; the full document is released as soon as the call
// returns, so a corpus-wide scan holds at most one trace at a time.
func (p *Parser) ParseSummary(root, relPath string) (Meta, error) {
	t, err := p.Parse(root, relPath)
	if err != nil {
		return Meta{}, err
	}
	return Meta{
		PuzzleID:   t.PuzzleID,
		VersionTag: t.VersionTag,
		Summary:    t.Summary,
	}, nil
}
