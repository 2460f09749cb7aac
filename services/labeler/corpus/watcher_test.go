// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package corpus

import (
	"context"
	"testing"
	"time"
)

// waitForEntries polls the manager until the snapshot holds want entries or
// the deadline passes.
func waitForEntries(t *testing.T, m *Manager, want int) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := m.Snapshot(context.Background())
		if err == nil && len(snap.Entries) == want {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func TestWatcherPicksUpNewFile(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root, WithTTL(time.Hour))
	if _, err := m.Snapshot(context.Background()); err != nil {
		t.Fatalf("warm Snapshot: %v", err)
	}

	w, err := NewWatcher(m, discardLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	writeCorpusFile(t, root, "p2_v11_analysis.json", traceBody(t, "p2", 3))

	if !waitForEntries(t, m, 2) {
		t.Fatal("new trace file never appeared in the snapshot")
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root, WithTTL(time.Hour))
	if _, err := m.Snapshot(context.Background()); err != nil {
		t.Fatalf("warm Snapshot: %v", err)
	}

	w, err := NewWatcher(m, discardLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	writeCorpusFile(t, root, "batch2/p2_v11_analysis.json", traceBody(t, "p2", 3))

	if !waitForEntries(t, m, 2) {
		t.Fatal("trace in a new subdirectory never appeared in the snapshot")
	}
}

func TestWatcherIgnoresNonTraceWrites(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root, WithTTL(time.Hour))
	warm, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("warm Snapshot: %v", err)
	}

	w, err := NewWatcher(m, discardLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	writeCorpusFile(t, root, ".scratch.json", []byte("{}"))
	writeCorpusFile(t, root, "notes.txt", []byte("not a trace"))
	time.Sleep(500 * time.Millisecond)

	snap, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap != warm {
		t.Error("unrelated writes invalidated the snapshot")
	}
}
