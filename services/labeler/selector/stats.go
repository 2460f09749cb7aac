// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"github.com/TraceWorksAI/TraceLabel/services/labeler/groups"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
)

// Stats is the labeling progress report over one corpus.
// Correct + Incorrect + Skipped always equals Labeled.
type Stats struct {
	Total     int `json:"total"`
	Labeled   int `json:"labeled"`
	Unlabeled int `json:"unlabeled"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Skipped   int `json:"skipped"`

	// CompletionFraction is Labeled/Total, zero on an empty corpus.
	CompletionFraction float64 `json:"completion_fraction"`

	// AccuracyFraction is Correct/(Correct+Incorrect), zero when nothing
	// has been graded. Skipped labels do not count against accuracy.
	AccuracyFraction float64 `json:"accuracy_fraction"`

	// FailureModes holds a count for every taxonomy code, zeros included,
	// tallied over incorrect labels only.
	FailureModes map[string]int `json:"failure_modes"`
}

// ComputeStats tallies labeling progress for the given groups. Labels for
// puzzles no longer in the corpus are ignored.
func ComputeStats(gs []groups.Group, byID map[string]labels.Label) Stats {
	stats := Stats{
		Total:        len(gs),
		FailureModes: make(map[string]int, len(labels.FailureModes)),
	}
	for _, code := range labels.FailureModes {
		stats.FailureModes[code] = 0
	}

	for _, g := range gs {
		l, ok := byID[g.PuzzleID]
		if !ok {
			continue
		}
		switch l.Label {
		case labels.Correct:
			stats.Correct++
		case labels.Incorrect:
			stats.Incorrect++
			for _, code := range l.FailureModes {
				if _, known := stats.FailureModes[code]; known {
					stats.FailureModes[code]++
				}
			}
		case labels.Skipped:
			stats.Skipped++
		default:
			// Unknown value in a hand-edited document: not counted as
			// labeled, keeping Correct+Incorrect+Skipped == Labeled.
			continue
		}
		stats.Labeled++
	}

	stats.Unlabeled = stats.Total - stats.Labeled
	if stats.Total > 0 {
		stats.CompletionFraction = float64(stats.Labeled) / float64(stats.Total)
	}
	if graded := stats.Correct + stats.Incorrect; graded > 0 {
		stats.AccuracyFraction = float64(stats.Correct) / float64(graded)
	}
	return stats
}
