// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package labels

import (
	"context"
	"errors"
	"os"
	"reflect"
	"slices"
	"testing"
	"time"
)

func TestMergeAdoptsNewLabels(t *testing.T) {
	s := newTestStore(t, newClockStub())

	incoming := map[string]Label{
		"p1": {Label: Correct, Reviewer: "alice", Timestamp: time.Unix(1000, 0)},
		"p2": {Label: Incorrect, FailureModes: []string{"C3", "B1"}, Edited: true},
	}
	report, err := s.Merge(context.Background(), incoming)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Adopted != 2 || report.Updated != 0 || report.Unchanged != 0 || len(report.Conflicts) != 0 {
		t.Errorf("report = %+v", report)
	}

	// Adopted labels keep their flags and timestamps.
	p1, _ := s.Get("p1")
	if p1.Reviewer != "alice" || !p1.Timestamp.Equal(time.Unix(1000, 0)) {
		t.Errorf("p1 = %+v", p1)
	}
	p2, _ := s.Get("p2")
	if !p2.Edited {
		t.Error("adopted edited flag lost")
	}
	if !slices.Equal(p2.FailureModes, []string{"B1", "C3"}) {
		t.Errorf("p2 modes = %v, want normalized", p2.FailureModes)
	}
}

func TestMergeOverwritesUnedited(t *testing.T) {
	s := newTestStore(t, newClockStub())
	if _, err := s.Upsert(Label{PuzzleID: "p1", Label: Correct, Reviewer: "human"}); err != nil {
		t.Fatal(err)
	}

	report, err := s.Merge(context.Background(), map[string]Label{
		"p1": {Label: Incorrect, FailureModes: []string{"B2"}, Reviewer: "bob"},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Updated != 1 || len(report.Conflicts) != 0 {
		t.Errorf("report = %+v", report)
	}

	got, _ := s.Get("p1")
	if got.Label != Incorrect || got.Reviewer != "bob" {
		t.Errorf("p1 = %+v, want overwritten by import", got)
	}
}

func TestMergeKeepsEditedLocal(t *testing.T) {
	s := newTestStore(t, newClockStub())

	// Two upserts with different judgements mark p1 edited.
	if _, err := s.Upsert(Label{PuzzleID: "p1", Label: Incorrect, FailureModes: []string{"A1"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(Label{PuzzleID: "p1", Label: Correct}); err != nil {
		t.Fatal(err)
	}

	report, err := s.Merge(context.Background(), map[string]Label{
		"p1": {Label: Skipped, Reviewer: "bob"},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(report.Conflicts, []string{"p1"}) {
		t.Errorf("Conflicts = %v, want [p1]", report.Conflicts)
	}
	if report.Applied() != 0 {
		t.Errorf("Applied = %d, want 0", report.Applied())
	}

	got, _ := s.Get("p1")
	if got.Label != Correct || !got.Edited {
		t.Errorf("edited local overwritten: %+v", got)
	}
}

func TestMergeIdempotent(t *testing.T) {
	s := newTestStore(t, newClockStub())

	// Local state: p1 unedited, p2 edited, p3 absent.
	if _, err := s.Upsert(Label{PuzzleID: "p1", Label: Correct}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(Label{PuzzleID: "p2", Label: Correct}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(Label{PuzzleID: "p2", Label: Incorrect, FailureModes: []string{"C1"}}); err != nil {
		t.Fatal(err)
	}

	incoming := map[string]Label{
		"p1": {Label: Skipped},
		"p2": {Label: Skipped},
		"p3": {Label: Correct, Reviewer: "carol"},
	}

	first, err := s.Merge(context.Background(), incoming)
	if err != nil {
		t.Fatalf("first Merge: %v", err)
	}
	if first.Adopted != 1 || first.Updated != 1 || !reflect.DeepEqual(first.Conflicts, []string{"p2"}) {
		t.Fatalf("first report = %+v", first)
	}

	state := s.All()
	second, err := s.Merge(context.Background(), incoming)
	if err != nil {
		t.Fatalf("second Merge: %v", err)
	}
	if second.Applied() != 0 {
		t.Errorf("second Applied = %d, want 0", second.Applied())
	}
	if !reflect.DeepEqual(second.Conflicts, first.Conflicts) {
		t.Errorf("conflict set changed: %v vs %v", second.Conflicts, first.Conflicts)
	}
	if second.Unchanged != 2 {
		t.Errorf("second Unchanged = %d, want 2", second.Unchanged)
	}
	if !reflect.DeepEqual(s.All(), state) {
		t.Error("second merge changed the store")
	}
}

func TestMergeEquivalenceIgnoresTimestamp(t *testing.T) {
	s := newTestStore(t, newClockStub())
	if _, err := s.Upsert(Label{PuzzleID: "p1", Label: Correct, Reviewer: "human"}); err != nil {
		t.Fatal(err)
	}
	local, _ := s.Get("p1")

	inc := local
	inc.Timestamp = local.Timestamp.Add(48 * time.Hour)

	report, err := s.Merge(context.Background(), map[string]Label{"p1": inc})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.Unchanged != 1 || report.Applied() != 0 {
		t.Errorf("report = %+v, want unchanged", report)
	}

	got, _ := s.Get("p1")
	if !got.Timestamp.Equal(local.Timestamp) {
		t.Error("timestamp-only difference rewrote the label")
	}
}

func TestMergeRejectsInvalidIncoming(t *testing.T) {
	s := newTestStore(t, newClockStub())
	if _, err := s.Upsert(Label{PuzzleID: "p1", Label: Correct}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		incoming map[string]Label
	}{
		{"unknown value", map[string]Label{"p2": {Label: "meh"}}},
		{"unknown failure mode", map[string]Label{"p2": {Label: Incorrect, FailureModes: []string{"X1"}}}},
		{"empty id", map[string]Label{"": {Label: Correct}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Merge(context.Background(), tc.incoming); !errors.Is(err, ErrInvalidLabel) {
				t.Errorf("err = %v, want ErrInvalidLabel", err)
			}
		})
	}

	// Nothing was applied.
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestMergeWithoutChangesSkipsPersist(t *testing.T) {
	s := newTestStore(t, newClockStub())
	if _, err := s.Upsert(Label{PuzzleID: "p1", Label: Correct}); err != nil {
		t.Fatal(err)
	}

	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	local, _ := s.Get("p1")
	if _, err := s.Merge(context.Background(), map[string]Label{"p1": local}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	after, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("no-op merge rewrote the store document")
	}
}
