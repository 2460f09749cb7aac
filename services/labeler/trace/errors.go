// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package trace parses puzzle reasoning-trace files.
//
// A trace file is a JSON document produced by an upstream solver run. The
// parser validates the one required field (general_steps), applies the
// single-step exclusion rule, and defaults everything else. Parse failures
// are per-file values the caller logs and skips; they never abort a corpus
// scan.
package trace

import (
	"errors"
	"fmt"
)

// Sentinel causes for parse failures.
var (
	// ErrMalformed is returned when the file does not decode as JSON.
	ErrMalformed = errors.New("malformed trace document")

	// ErrMissingSteps is returned when general_steps is absent or null.
	ErrMissingSteps = errors.New("general_steps missing")

	// ErrEmptySteps is returned when general_steps is present but empty.
	ErrEmptySteps = errors.New("general_steps empty")

	// ErrSingleStep is returned when general_steps has exactly one entry.
	// Single-step traces come from a known upstream generation defect and
	// are excluded from the corpus entirely.
	ErrSingleStep = errors.New("single-step trace excluded")
)

// ParseError reports why one trace file was rejected. It wraps one of the
// sentinel causes above (or the decoder's error for ErrMalformed).
type ParseError struct {
	// Path is the corpus-relative path of the rejected file.
	Path string `json:"path"`

	// Reason is a short human-readable cause, stable enough for reports.
	Reason string `json:"reason"`

	// Err is the underlying cause.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// newParseError builds a ParseError whose Reason mirrors the cause.
func newParseError(path string, cause error) *ParseError {
	return &ParseError{
		Path:   path,
		Reason: cause.Error(),
		Err:    cause,
	}
}
