// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides request and response types for the labeler
// service boundary.
//
// This file contains the label submission and import types. Listing and
// stats types are in puzzles.go.
package datatypes

import (
	"github.com/go-playground/validator/v10"

	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
)

// =============================================================================
// Input Limits
// =============================================================================

const (
	// MaxReasoningBytes caps a reviewer note. Byte length, not rune count.
	MaxReasoningBytes = 16 * 1024 // 16KB

	// MaxReviewerBytes caps the reviewer identifier.
	MaxReviewerBytes = 128

	// DefaultReviewer is recorded when a submission names no reviewer.
	DefaultReviewer = "human"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// labelValidate is the validator instance for label datatypes.
// Initialized in init() with custom validators.
var labelValidate *validator.Validate

func init() {
	labelValidate = validator.New()

	_ = labelValidate.RegisterValidation("failuremode", validateFailureMode)
	_ = labelValidate.RegisterValidation("reasoningbytes", validateReasoningBytes)
	_ = labelValidate.RegisterValidation("reviewerbytes", validateReviewerBytes)
}

// validateFailureMode checks a code against the closed taxonomy.
func validateFailureMode(fl validator.FieldLevel) bool {
	return labels.ValidFailureMode(fl.Field().String())
}

// validateReasoningBytes limits reviewer notes to MaxReasoningBytes.
// Checks byte length so oversized multi-byte payloads cannot slip through.
func validateReasoningBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxReasoningBytes
}

// validateReviewerBytes limits the reviewer identifier to MaxReviewerBytes.
func validateReviewerBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxReviewerBytes
}

// =============================================================================
// Label Submission
// =============================================================================

// SubmitLabelRequest is the body of POST /v1/labels.
//
// # Fields
//
//   - PuzzleID: Required. The puzzle being judged.
//   - Label: Required. One of correct, incorrect, skipped.
//   - Reasoning: Optional reviewer note, at most 16KB.
//   - FailureModes: Optional defect codes from the closed taxonomy
//     (A1..A3, B1..B2, C1..C3). Meaningful with incorrect labels but
//     accepted on any.
//   - FilePath: Optional. The trace file the reviewer was looking at,
//     stored as provenance.
//   - Reviewer: Optional. Defaults to "human" via EnsureDefaults.
//
// # Validation
//
// Uses go-playground/validator:
//   - Label: required, oneof=correct incorrect skipped
//   - FailureModes: each element must be a known taxonomy code
//   - Reasoning/Reviewer: byte-length ceilings
type SubmitLabelRequest struct {
	PuzzleID     string   `json:"puzzle_id" validate:"required,max=128"`
	Label        string   `json:"label" validate:"required,oneof=correct incorrect skipped"`
	Reasoning    string   `json:"reasoning,omitempty" validate:"reasoningbytes"`
	FailureModes []string `json:"failure_modes,omitempty" validate:"max=8,dive,failuremode"`
	FilePath     string   `json:"file_path,omitempty"`
	Reviewer     string   `json:"reviewer,omitempty" validate:"reviewerbytes"`
}

// Validate validates the SubmitLabelRequest fields. Call after binding.
func (r *SubmitLabelRequest) Validate() error {
	return labelValidate.Struct(r)
}

// EnsureDefaults fills optional fields a client may omit.
func (r *SubmitLabelRequest) EnsureDefaults() {
	if r.Reviewer == "" {
		r.Reviewer = DefaultReviewer
	}
}

// SubmitLabelResponse is the body returned after a successful submission.
// Label is the stored record, including the computed Edited flag and the
// store-assigned timestamp.
type SubmitLabelResponse struct {
	Status  string       `json:"status"`
	Created bool         `json:"created"`
	Label   labels.Label `json:"label"`
}

// NewSubmitLabelResponse wraps a store upsert result for the wire.
func NewSubmitLabelResponse(res labels.UpsertResult) SubmitLabelResponse {
	return SubmitLabelResponse{
		Status:  "ok",
		Created: res.Created,
		Label:   res.Label,
	}
}

// =============================================================================
// Import / Export
// =============================================================================

// ImportResponse reports a merge of an external label document.
// Conflicts lists puzzle IDs whose local edited label was kept.
type ImportResponse struct {
	Status    string   `json:"status"`
	Adopted   int      `json:"adopted"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Applied   int      `json:"applied"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// NewImportResponse wraps a merge report for the wire.
func NewImportResponse(report labels.MergeReport) ImportResponse {
	return ImportResponse{
		Status:    "ok",
		Adopted:   report.Adopted,
		Updated:   report.Updated,
		Unchanged: report.Unchanged,
		Applied:   report.Applied(),
		Conflicts: report.Conflicts,
	}
}
