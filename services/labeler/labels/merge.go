// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package labels

import (
	"context"
	"fmt"
	"maps"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// MergeReport summarizes one merge. Conflicts is the sorted list of puzzle
// IDs whose local label was edited and disagreed with the incoming one;
// conflicts are data, not errors.
type MergeReport struct {
	Adopted   int      `json:"adopted"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// Applied returns how many labels the merge actually wrote.
func (r MergeReport) Applied() int {
	return r.Adopted + r.Updated
}

// Merge folds an external label set into the store. Per incoming label:
//
//   - no local label: adopt the incoming one as-is, flags included.
//   - incoming equivalent to local (Timestamp ignored): no-op.
//   - local unedited: incoming overwrites it.
//   - local edited: local wins, the puzzle ID is reported as a conflict.
//
// Incoming labels are validated before anything is applied; one unknown
// value or failure mode rejects the whole merge.
//
// The whole merge persists in one atomic write, skipped entirely when
// nothing was applied, which makes a repeated merge report the same
// conflicts while writing nothing.
func (s *Store) Merge(ctx context.Context, incoming map[string]Label) (MergeReport, error) {
	_, span := otel.Tracer("tracelabel/labeler").Start(ctx, "labels.merge")
	defer span.End()

	ids := make([]string, 0, len(incoming))
	for id := range incoming {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if id == "" {
			return MergeReport{}, fmt.Errorf("%w: empty puzzle id", ErrInvalidLabel)
		}
		inc := incoming[id]
		if !ValidValue(inc.Label) {
			return MergeReport{}, fmt.Errorf("%w: %s has unknown value %q", ErrInvalidLabel, id, inc.Label)
		}
		for _, code := range inc.FailureModes {
			if !ValidFailureMode(code) {
				return MergeReport{}, fmt.Errorf("%w: %s has unknown failure mode %q", ErrInvalidLabel, id, code)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var report MergeReport
	next := maps.Clone(s.doc.Labels)
	for _, id := range ids {
		inc := incoming[id]
		inc.PuzzleID = id
		inc.FailureModes = normalizeModes(inc.FailureModes)

		local, exists := next[id]
		switch {
		case !exists:
			next[id] = inc
			report.Adopted++
		case equivalent(local, inc):
			report.Unchanged++
		case !local.Edited:
			next[id] = inc
			report.Updated++
		default:
			report.Conflicts = append(report.Conflicts, id)
		}
	}

	if report.Applied() > 0 {
		if err := s.persistLocked(next); err != nil {
			span.RecordError(err)
			return MergeReport{}, err
		}
	}

	span.SetAttributes(
		attribute.Int("labels.adopted", report.Adopted),
		attribute.Int("labels.updated", report.Updated),
		attribute.Int("labels.unchanged", report.Unchanged),
		attribute.Int("labels.conflicts", len(report.Conflicts)),
	)
	s.logger.Info("labels merged",
		"adopted", report.Adopted,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"conflicts", len(report.Conflicts))
	return report, nil
}
