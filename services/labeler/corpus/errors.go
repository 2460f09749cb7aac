// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package corpus maintains the persisted metadata index over a directory of
// puzzle trace files.
//
// The index maps each corpus-relative file path to a stat fingerprint and a
// parsed summary. Reconciliation re-parses only files whose fingerprint
// changed, removes entries for vanished files, and persists the index
// atomically, so its cost is proportional to the number of changed files
// rather than the corpus size. Parse failures are cached alongside valid
// entries; an unchanged invalid file is not re-parsed either.
//
// # Thread Safety
//
// Manager is safe for concurrent use. Concurrent Snapshot calls on a cold
// or expired memo collapse into a single reconcile pass.
package corpus

import "errors"

// Sentinel errors for corpus operations.
var (
	// ErrInvalidRoot is returned when the corpus root is missing or not a
	// directory.
	ErrInvalidRoot = errors.New("invalid corpus root")

	// ErrCacheCorrupt signals that the persisted index failed to decode.
	// It is recovered internally: the cache is treated as empty and the
	// corpus fully rescanned. Read paths never return it.
	ErrCacheCorrupt = errors.New("metadata cache corrupt")

	// ErrCachePersist is returned when the reconciled index could not be
	// written. The in-memory snapshot is still valid and served; only
	// explicit scans surface this to the user.
	ErrCachePersist = errors.New("metadata cache persist failed")
)

// ScanError records a non-fatal filesystem error during a corpus walk
// (unreadable directory, stat failure). The walk continues past it.
type ScanError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e ScanError) Error() string {
	return "scan " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e ScanError) Unwrap() error {
	return e.Err
}
