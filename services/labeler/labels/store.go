// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package labels

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

const (
	// DefaultDir is the directory under the corpus root that holds the
	// label store.
	DefaultDir = "labels"

	// DefaultFile is the store document name. The leading dot keeps it
	// out of corpus scans.
	DefaultFile = ".reasoning_labels.json"

	// StoreVersion is the document schema version.
	StoreVersion = 1
)

// document is the on-disk form of the label store.
type document struct {
	Version   int              `json:"version"`
	UpdatedAt time.Time        `json:"updated_at"`
	Labels    map[string]Label `json:"labels"`
}

// Store is the durable label store. Every mutation rewrites the document
// atomically before it is visible to readers; a failed write leaves both
// the file and the in-memory state untouched.
type Store struct {
	path   string
	clock  func() time.Time
	logger *slog.Logger

	mu  sync.Mutex
	doc document
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the timestamp source, used by tests.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open loads the store document at path, creating parent directories as
// needed. A missing document starts an empty store; an unreadable or
// undecodable one is an error wrapping ErrCorrupt.
func Open(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		path:   path,
		clock:  time.Now,
		logger: slog.Default(),
		doc: document{
			Version: StoreVersion,
			Labels:  make(map[string]Label),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("label store dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Version != StoreVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}
	if doc.Labels == nil {
		doc.Labels = make(map[string]Label)
	}
	for id, l := range doc.Labels {
		l.PuzzleID = id
		l.FailureModes = normalizeModes(l.FailureModes)
		doc.Labels[id] = l
	}
	s.doc = doc
	return s, nil
}

// Path returns the store document location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the label for a puzzle ID.
func (s *Store) Get(puzzleID string) (Label, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.doc.Labels[puzzleID]
	return l, ok
}

// Has reports whether a puzzle has a label. It satisfies the selector's
// Labeled lookup.
func (s *Store) Has(puzzleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.doc.Labels[puzzleID]
	return ok
}

// Len returns the number of stored labels.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Labels)
}

// All returns a copy of every stored label keyed by puzzle ID.
func (s *Store) All() map[string]Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.doc.Labels)
}

// UpsertResult reports what an Upsert did.
type UpsertResult struct {
	Label   Label
	Created bool
}

// Upsert stores a label for l.PuzzleID, replacing any prior one. The
// Edited flag is computed here, not taken from the caller: it is set when
// a prior label existed and the judgement or failure modes changed, and
// preserved otherwise. Timestamp is always refreshed.
func (s *Store) Upsert(l Label) (UpsertResult, error) {
	if l.PuzzleID == "" {
		return UpsertResult{}, fmt.Errorf("%w: empty puzzle id", ErrInvalidLabel)
	}
	if !ValidValue(l.Label) {
		return UpsertResult{}, fmt.Errorf("%w: unknown value %q", ErrInvalidLabel, l.Label)
	}
	for _, code := range l.FailureModes {
		if !ValidFailureMode(code) {
			return UpsertResult{}, fmt.Errorf("%w: unknown failure mode %q", ErrInvalidLabel, code)
		}
	}
	l.FailureModes = normalizeModes(l.FailureModes)

	s.mu.Lock()
	defer s.mu.Unlock()

	prior, existed := s.doc.Labels[l.PuzzleID]
	if existed {
		if l.Label != prior.Label || !slices.Equal(l.FailureModes, prior.FailureModes) {
			l.Edited = true
		} else {
			l.Edited = prior.Edited
		}
	} else {
		l.Edited = false
	}
	l.Timestamp = s.clock()

	next := maps.Clone(s.doc.Labels)
	next[l.PuzzleID] = l
	if err := s.persistLocked(next); err != nil {
		return UpsertResult{}, err
	}

	s.logger.Info("label stored",
		"puzzle_id", l.PuzzleID,
		"label", l.Label,
		"edited", l.Edited)
	return UpsertResult{Label: l, Created: !existed}, nil
}

// Delete removes a puzzle's label. Absent labels return ErrNotFound.
func (s *Store) Delete(puzzleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Labels[puzzleID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, puzzleID)
	}
	next := maps.Clone(s.doc.Labels)
	delete(next, puzzleID)
	if err := s.persistLocked(next); err != nil {
		return err
	}

	s.logger.Info("label deleted", "puzzle_id", puzzleID)
	return nil
}

// Document returns the serialized store document, the same bytes the
// export endpoint ships.
func (s *Store) Document() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.doc, "", "  ")
}

// persistLocked writes a new document holding next and, on success, makes
// it the in-memory state. Callers hold s.mu.
func (s *Store) persistLocked(next map[string]Label) error {
	doc := document{
		Version:   StoreVersion,
		UpdatedAt: s.clock(),
		Labels:    next,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	s.doc = doc
	return nil
}

// writeFileAtomic writes data to path via a temp file and rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Chmod(tmpName, perm)
	}
	if writeErr != nil {
		os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
