// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package labels owns the durable label store: one label per puzzle,
// persisted as a single JSON document under the corpus root and replaced
// atomically on every mutation.
package labels

import "errors"

// Sentinel errors for label store operations.
var (
	// ErrNotFound is returned when no label exists for a puzzle ID.
	ErrNotFound = errors.New("label not found")

	// ErrInvalidLabel is returned for labels that fail basic shape checks
	// (missing puzzle ID, unknown label value).
	ErrInvalidLabel = errors.New("invalid label")

	// ErrStoreWrite is returned when the store document could not be
	// replaced on disk. The prior document remains authoritative; the
	// attempted mutation is not applied.
	ErrStoreWrite = errors.New("label store write failed")

	// ErrCorrupt is returned by Open when an existing store document fails
	// to decode. Labels are human work, so this is surfaced instead of
	// being silently reset.
	ErrCorrupt = errors.New("label store corrupt")
)
