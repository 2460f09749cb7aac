// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"testing"

	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
)

func TestComputeStats(t *testing.T) {
	gs := groupList("a", "b", "c", "d", "e")
	byID := map[string]labels.Label{
		"a": {PuzzleID: "a", Label: labels.Correct},
		"b": {PuzzleID: "b", Label: labels.Incorrect, FailureModes: []string{"B1", "C3"}},
		"c": {PuzzleID: "c", Label: labels.Incorrect, FailureModes: []string{"B1"}},
		"d": {PuzzleID: "d", Label: labels.Skipped},
	}

	stats := ComputeStats(gs, byID)

	if stats.Total != 5 || stats.Labeled != 4 || stats.Unlabeled != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.Correct != 1 || stats.Incorrect != 2 || stats.Skipped != 1 {
		t.Errorf("buckets = %+v", stats)
	}
	if got := stats.Correct + stats.Incorrect + stats.Skipped; got != stats.Labeled {
		t.Errorf("bucket sum %d != Labeled %d", got, stats.Labeled)
	}

	if stats.CompletionFraction != 0.8 {
		t.Errorf("CompletionFraction = %v, want 0.8", stats.CompletionFraction)
	}
	// 1 correct out of 3 graded; skipped does not count.
	if want := 1.0 / 3.0; stats.AccuracyFraction != want {
		t.Errorf("AccuracyFraction = %v, want %v", stats.AccuracyFraction, want)
	}

	if len(stats.FailureModes) != len(labels.FailureModes) {
		t.Errorf("FailureModes has %d codes, want all %d", len(stats.FailureModes), len(labels.FailureModes))
	}
	if stats.FailureModes["B1"] != 2 || stats.FailureModes["C3"] != 1 {
		t.Errorf("FailureModes = %v", stats.FailureModes)
	}
	if stats.FailureModes["A1"] != 0 {
		t.Errorf("A1 = %d, want explicit zero", stats.FailureModes["A1"])
	}
}

func TestComputeStatsEmptyCorpus(t *testing.T) {
	stats := ComputeStats(nil, nil)
	if stats.Total != 0 || stats.CompletionFraction != 0 || stats.AccuracyFraction != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
	if len(stats.FailureModes) != len(labels.FailureModes) {
		t.Error("failure mode map not zero-initialized")
	}
}

func TestComputeStatsIgnoresOrphanLabels(t *testing.T) {
	gs := groupList("a")
	byID := map[string]labels.Label{
		"a":    {PuzzleID: "a", Label: labels.Correct},
		"gone": {PuzzleID: "gone", Label: labels.Incorrect},
	}

	stats := ComputeStats(gs, byID)
	if stats.Labeled != 1 || stats.Incorrect != 0 {
		t.Errorf("orphan label counted: %+v", stats)
	}
}

func TestComputeStatsSkipsUnknownValues(t *testing.T) {
	gs := groupList("a", "b")
	byID := map[string]labels.Label{
		"a": {PuzzleID: "a", Label: labels.Correct},
		"b": {PuzzleID: "b", Label: "mystery"},
	}

	stats := ComputeStats(gs, byID)
	if stats.Labeled != 1 {
		t.Errorf("Labeled = %d, want 1", stats.Labeled)
	}
	if got := stats.Correct + stats.Incorrect + stats.Skipped; got != stats.Labeled {
		t.Errorf("bucket sum %d != Labeled %d", got, stats.Labeled)
	}
}
