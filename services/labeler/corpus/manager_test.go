// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, root string, opts ...ManagerOption) *Manager {
	t.Helper()
	base := []ManagerOption{WithLogger(discardLogger())}
	m, err := NewManager(root, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func traceBody(t *testing.T, puzzleID string, steps int) []byte {
	t.Helper()
	gs := make([]map[string]any, steps)
	for i := range gs {
		gs[i] = map[string]any{
			"step_number": i + 1,
			"description": fmt.Sprintf("step %d", i+1),
		}
	}
	doc := map[string]any{
		"general_steps": gs,
		"summary": map[string]any{
			"training_accuracy": 1.0,
			"test_accuracy":     0.5,
			"num_general_steps": steps,
		},
	}
	if puzzleID != "" {
		doc["puzzle_id"] = puzzleID
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal trace body: %v", err)
	}
	return data
}

func writeCorpusFile(t *testing.T, root, rel string, body []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, body, 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// bumpMtime pushes a file's modification time into the future so a rewrite
// with identical size still changes the fingerprint.
func bumpMtime(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(full, future, future); err != nil {
		t.Fatalf("chtimes %s: %v", rel, err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestReconcileInitialScan(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))
	writeCorpusFile(t, root, "p2_v10_analysis.json", traceBody(t, "p2", 4))
	writeCorpusFile(t, root, "p3_analysis.json", traceBody(t, "", 2))
	writeCorpusFile(t, root, "single_v11_analysis.json", traceBody(t, "single", 1))
	writeCorpusFile(t, root, "notes.txt", []byte("not a trace"))

	m := newTestManager(t, root)
	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if snap.Stats.Scanned != 4 {
		t.Errorf("Scanned = %d, want 4", snap.Stats.Scanned)
	}
	if snap.Stats.Parsed != 4 {
		t.Errorf("Parsed = %d, want 4", snap.Stats.Parsed)
	}
	if snap.Stats.Reused != 0 {
		t.Errorf("Reused = %d, want 0", snap.Stats.Reused)
	}
	if len(snap.Entries) != 3 {
		t.Fatalf("Entries = %d, want 3", len(snap.Entries))
	}
	if len(snap.Invalid) != 1 || snap.Invalid[0].Path != "single_v11_analysis.json" {
		t.Fatalf("Invalid = %+v, want the single-step file", snap.Invalid)
	}

	e, ok := snap.Entry("p1_v11_analysis.json")
	if !ok {
		t.Fatal("p1 entry missing")
	}
	if e.PuzzleID != "p1" || e.VersionTag != "v11" {
		t.Errorf("p1 entry = %+v", e)
	}
	if e.Summary.NumGeneralSteps != 3 {
		t.Errorf("p1 NumGeneralSteps = %d, want 3", e.Summary.NumGeneralSteps)
	}

	// Filename-derived puzzle ID when the document has none.
	e, ok = snap.Entry("p3_analysis.json")
	if !ok {
		t.Fatal("p3 entry missing")
	}
	if e.PuzzleID != "p3" {
		t.Errorf("p3 PuzzleID = %q", e.PuzzleID)
	}

	if _, err := os.Stat(m.CachePath()); err != nil {
		t.Errorf("cache file not persisted: %v", err)
	}
}

func TestReconcileReusesUnchanged(t *testing.T) {
	root := t.TempDir()
	for i := 1; i <= 5; i++ {
		writeCorpusFile(t, root, fmt.Sprintf("p%d_v11_analysis.json", i), traceBody(t, fmt.Sprintf("p%d", i), 3))
	}

	m := newTestManager(t, root)
	if _, err := m.Reconcile(context.Background()); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}

	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if snap.Stats.Parsed != 0 {
		t.Errorf("second pass Parsed = %d, want 0", snap.Stats.Parsed)
	}
	if snap.Stats.Reused != 5 {
		t.Errorf("second pass Reused = %d, want 5", snap.Stats.Reused)
	}
}

func TestReconcileParsesOnlyChanged(t *testing.T) {
	root := t.TempDir()
	for i := 1; i <= 4; i++ {
		writeCorpusFile(t, root, fmt.Sprintf("p%d_v11_analysis.json", i), traceBody(t, fmt.Sprintf("p%d", i), 3))
	}

	m := newTestManager(t, root)
	if _, err := m.Reconcile(context.Background()); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}

	writeCorpusFile(t, root, "p2_v11_analysis.json", traceBody(t, "p2", 7))
	bumpMtime(t, root, "p2_v11_analysis.json")

	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if snap.Stats.Parsed != 1 {
		t.Errorf("Parsed = %d, want 1", snap.Stats.Parsed)
	}
	if snap.Stats.Reused != 3 {
		t.Errorf("Reused = %d, want 3", snap.Stats.Reused)
	}
	e, _ := snap.Entry("p2_v11_analysis.json")
	if e.Summary.NumGeneralSteps != 7 {
		t.Errorf("p2 steps = %d, want 7 after rewrite", e.Summary.NumGeneralSteps)
	}
}

func TestReconcileMtimeOnlyChange(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root)
	if _, err := m.Reconcile(context.Background()); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}

	// Same bytes, newer mtime: the fingerprint must still change.
	bumpMtime(t, root, "p1_v11_analysis.json")

	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if snap.Stats.Parsed != 1 {
		t.Errorf("Parsed = %d, want 1 after mtime bump", snap.Stats.Parsed)
	}
}

func TestReconcileRemovesDeadEntries(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))
	writeCorpusFile(t, root, "p2_v11_analysis.json", traceBody(t, "p2", 3))

	m := newTestManager(t, root)
	if _, err := m.Reconcile(context.Background()); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "p2_v11_analysis.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if snap.Stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1", snap.Stats.Removed)
	}
	if _, ok := snap.Entry("p2_v11_analysis.json"); ok {
		t.Error("deleted file still present in snapshot")
	}

	// The persisted index must not resurrect it either.
	doc, err := loadCache(m.CachePath())
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if _, ok := doc.Entries["p2_v11_analysis.json"]; ok {
		t.Error("deleted file still present in persisted index")
	}
}

func TestReconcileInvalidCachedAndRecovered(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "ok_v11_analysis.json", traceBody(t, "ok", 3))
	writeCorpusFile(t, root, "bad_v11_analysis.json", []byte("{broken"))

	m := newTestManager(t, root)
	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	if len(snap.Invalid) != 1 {
		t.Fatalf("Invalid = %+v, want one entry", snap.Invalid)
	}

	// Unchanged invalid files are not re-parsed.
	snap, err = m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if snap.Stats.Parsed != 0 {
		t.Errorf("second pass Parsed = %d, want 0", snap.Stats.Parsed)
	}
	if len(snap.Invalid) != 1 {
		t.Errorf("Invalid lost across passes: %+v", snap.Invalid)
	}

	// Fixing the file moves it back to Entries on the next pass.
	writeCorpusFile(t, root, "bad_v11_analysis.json", traceBody(t, "bad", 2))
	bumpMtime(t, root, "bad_v11_analysis.json")

	snap, err = m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("third Reconcile: %v", err)
	}
	if snap.Stats.Parsed != 1 {
		t.Errorf("third pass Parsed = %d, want 1", snap.Stats.Parsed)
	}
	if len(snap.Invalid) != 0 {
		t.Errorf("Invalid = %+v, want empty after fix", snap.Invalid)
	}
	if _, ok := snap.Entry("bad_v11_analysis.json"); !ok {
		t.Error("fixed file missing from Entries")
	}
}

func TestReconcileCorruptCacheRescans(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))
	writeCorpusFile(t, root, "p2_v11_analysis.json", traceBody(t, "p2", 3))

	m := newTestManager(t, root)
	if _, err := m.Reconcile(context.Background()); err != nil {
		t.Fatalf("seed Reconcile: %v", err)
	}

	if err := os.WriteFile(m.CachePath(), []byte("{definitely not json"), 0o644); err != nil {
		t.Fatalf("corrupt cache: %v", err)
	}

	// A fresh manager sees the corrupt index, recovers, and re-parses all.
	m2 := newTestManager(t, root)
	snap, err := m2.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile after corruption: %v", err)
	}
	if snap.Stats.Parsed != 2 {
		t.Errorf("Parsed = %d, want 2 (full rescan)", snap.Stats.Parsed)
	}
	if len(snap.Entries) != 2 {
		t.Errorf("Entries = %d, want 2", len(snap.Entries))
	}

	// The rewritten index is valid again.
	if _, err := loadCache(m2.CachePath()); err != nil {
		t.Errorf("cache still unreadable after reconcile: %v", err)
	}
}

func TestReconcileWrongCacheVersionRescans(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root)
	if err := os.WriteFile(m.CachePath(), []byte(`{"version": 99, "entries": {}}`), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if snap.Stats.Parsed != 1 {
		t.Errorf("Parsed = %d, want 1", snap.Stats.Parsed)
	}
}

func TestReconcileNestedDirectories(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "batch1/p1_v11_analysis.json", traceBody(t, "p1", 3))
	writeCorpusFile(t, root, "batch1/deep/p2_v10_analysis.json", traceBody(t, "p2", 3))
	writeCorpusFile(t, root, ".hidden/p3_v11_analysis.json", traceBody(t, "p3", 3))
	writeCorpusFile(t, root, ".p4_v11_analysis.json", traceBody(t, "p4", 3))

	m := newTestManager(t, root)
	snap, err := m.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(snap.Entries) != 2 {
		t.Fatalf("Entries = %v, want the two visible files", snap.Entries)
	}
	if _, ok := snap.Entry("batch1/p1_v11_analysis.json"); !ok {
		t.Error("nested entry missing or keyed without forward slashes")
	}
	if _, ok := snap.Entry("batch1/deep/p2_v10_analysis.json"); !ok {
		t.Error("deep entry missing")
	}
}

func TestReconcileCancelled(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Reconcile(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Reconcile err = %v, want context.Canceled", err)
	}
}

func TestSnapshotMemoizedUntilTTL(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	clock := newFakeClock()
	m := newTestManager(t, root, WithTTL(time.Minute), WithClock(clock.Now))

	first, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}

	clock.Advance(30 * time.Second)
	second, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if first != second {
		t.Error("snapshot rebuilt inside TTL")
	}

	clock.Advance(31 * time.Second)
	third, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("third Snapshot: %v", err)
	}
	if third == first {
		t.Error("snapshot not rebuilt after TTL expiry")
	}
}

func TestSnapshotInvalidate(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root, WithTTL(time.Hour))
	first, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}

	writeCorpusFile(t, root, "p2_v11_analysis.json", traceBody(t, "p2", 3))
	m.Invalidate()

	second, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if second == first {
		t.Error("Invalidate did not force a rebuild")
	}
	if len(second.Entries) != 2 {
		t.Errorf("Entries = %d, want 2 after invalidate", len(second.Entries))
	}
}

func TestSnapshotConcurrentColdStart(t *testing.T) {
	root := t.TempDir()
	for i := 1; i <= 6; i++ {
		writeCorpusFile(t, root, fmt.Sprintf("p%d_v11_analysis.json", i), traceBody(t, fmt.Sprintf("p%d", i), 3))
	}

	m := newTestManager(t, root, WithTTL(time.Hour))

	const callers = 10
	snaps := make([]*Snapshot, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := m.Snapshot(context.Background())
			if err != nil {
				t.Errorf("Snapshot: %v", err)
				return
			}
			snaps[i] = snap
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if snaps[i] != snaps[0] {
			t.Fatal("concurrent cold Snapshot calls produced different snapshots")
		}
	}
	if snaps[0].Stats.Parsed != 6 {
		t.Errorf("Parsed = %d, want 6 (single pass)", snaps[0].Stats.Parsed)
	}
}

func TestNoLeftoverTempFiles(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "p1_v11_analysis.json", traceBody(t, "p1", 3))

	m := newTestManager(t, root)
	if _, err := m.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, de := range entries {
		if de.Name() != DefaultCacheFile && de.Name() != "p1_v11_analysis.json" {
			t.Errorf("unexpected file in corpus root: %s", de.Name())
		}
	}
}

func TestNewManagerValidation(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrInvalidRoot) {
			t.Errorf("err = %v, want ErrInvalidRoot", err)
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		file := filepath.Join(root, "f")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := NewManager(file)
		if !errors.Is(err, ErrInvalidRoot) {
			t.Errorf("err = %v, want ErrInvalidRoot", err)
		}
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := NewManager(t.TempDir(), WithPatterns("[broken"))
		if err == nil {
			t.Error("expected error for malformed pattern")
		}
	})
}
