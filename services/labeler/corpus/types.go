// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package corpus

import (
	"time"

	"github.com/TraceWorksAI/TraceLabel/services/labeler/trace"
)

// Entry is the cached metadata for one parseable trace file, keyed by its
// corpus-relative path in the persisted index.
type Entry struct {
	Fingerprint Fingerprint   `json:"fingerprint"`
	PuzzleID    string        `json:"puzzle_id"`
	VersionTag  string        `json:"version_tag,omitempty"`
	Summary     trace.Summary `json:"summary"`
}

// InvalidEntry is the cached outcome for a file that failed to parse.
// Keeping the fingerprint lets reconciliation skip unchanged invalid files.
type InvalidEntry struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Reason      string      `json:"reason"`
}

// InvalidFile reports one excluded file in a Snapshot.
type InvalidFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ReconcileStats counts the work done by one reconcile pass. Parsed is the
// number of files actually handed to the parser; on an unchanged corpus it
// is zero.
type ReconcileStats struct {
	Scanned int `json:"scanned"`
	Parsed  int `json:"parsed"`
	Reused  int `json:"reused"`
	Removed int `json:"removed"`
	Invalid int `json:"invalid"`

	// Duration is the wall time of the pass. Not persisted; a snapshot
	// loaded from cache reports zero.
	Duration time.Duration `json:"-"`
}

// Snapshot is the reconciled view of the corpus at one point in time.
// Entries and Invalid are disjoint; a path appears in at most one of them.
type Snapshot struct {
	Entries     map[string]Entry `json:"entries"`
	Invalid     []InvalidFile    `json:"invalid,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Stats       ReconcileStats   `json:"stats"`

	// ScanErrors holds non-fatal walk errors. They do not fail the
	// reconcile and are not persisted.
	ScanErrors []ScanError `json:"-"`
}

// Entry returns the cached metadata for a corpus-relative path.
func (s *Snapshot) Entry(relPath string) (Entry, bool) {
	e, ok := s.Entries[relPath]
	return e, ok
}
