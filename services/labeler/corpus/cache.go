// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultCacheFile is the index file name, stored inside the corpus
	// root. The leading dot keeps it out of the trace file patterns.
	DefaultCacheFile = ".puzzle_metadata_cache.json"

	// cacheVersion is bumped whenever the document schema changes shape.
	// A mismatched version is treated the same as a corrupt cache.
	cacheVersion = 1
)

// cacheDocument is the on-disk form of the metadata index.
type cacheDocument struct {
	Version     int                     `json:"version"`
	GeneratedAt time.Time               `json:"generated_at"`
	Entries     map[string]Entry        `json:"entries"`
	Invalid     map[string]InvalidEntry `json:"invalid,omitempty"`
}

// loadCache reads and decodes the persisted index. A missing file yields an
// empty document. A document that fails to decode, or carries an unknown
// version, yields an empty document and ErrCacheCorrupt so the caller can
// log the recovery; it is never fatal.
func loadCache(path string) (*cacheDocument, error) {
	empty := &cacheDocument{
		Version: cacheVersion,
		Entries: make(map[string]Entry),
		Invalid: make(map[string]InvalidEntry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return empty, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return empty, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if doc.Version != cacheVersion {
		return empty, fmt.Errorf("%w: unsupported version %d", ErrCacheCorrupt, doc.Version)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]Entry)
	}
	if doc.Invalid == nil {
		doc.Invalid = make(map[string]InvalidEntry)
	}
	return &doc, nil
}

// persistCache writes the index atomically: encode to a temp file in the
// same directory, fsync, then rename over the old index. Readers never
// observe a partially written document.
func persistCache(path string, doc *cacheDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCachePersist, err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrCachePersist, err)
	}
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
