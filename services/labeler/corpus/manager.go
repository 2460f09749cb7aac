// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/TraceWorksAI/TraceLabel/services/labeler/trace"
)

// DefaultTTL is how long a reconciled snapshot is served before the corpus
// is re-reconciled on the next read.
const DefaultTTL = 5 * time.Minute

// DefaultPatterns are the base-name globs that identify trace files. All
// patterns apply on every pass; a file is included when any of them match.
var DefaultPatterns = []string{
	"*_v11_analysis*.json",
	"*_v10_analysis*.json",
	"*_analysis.json",
}

// Manager reconciles the on-disk corpus against the persisted metadata
// index and memoizes the result.
type Manager struct {
	root      string
	cachePath string
	patterns  []string
	parser    *trace.Parser
	ttl       time.Duration
	clock     func() time.Time
	logger    *slog.Logger

	mu     sync.RWMutex
	prev   *cacheDocument
	memo   *Snapshot
	memoAt time.Time
	stale  bool

	scanMu sync.Mutex
	group  singleflight.Group
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPatterns replaces the trace file name patterns.
func WithPatterns(patterns ...string) ManagerOption {
	return func(m *Manager) {
		m.patterns = patterns
	}
}

// WithParser replaces the trace parser, e.g. to install a custom version
// derivation.
func WithParser(p *trace.Parser) ManagerOption {
	return func(m *Manager) {
		m.parser = p
	}
}

// WithTTL sets the snapshot memo lifetime. A non-positive TTL disables
// memoization; every read reconciles.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithCacheFile overrides the index file name inside the corpus root.
func WithCacheFile(name string) ManagerOption {
	return func(m *Manager) {
		m.cachePath = filepath.Join(m.root, name)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source, used by tests to control TTL expiry.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a Manager over the corpus rooted at root.
func NewManager(root string, opts ...ManagerOption) (*Manager, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	m := &Manager{
		root:      root,
		cachePath: filepath.Join(root, DefaultCacheFile),
		patterns:  DefaultPatterns,
		parser:    &trace.Parser{},
		ttl:       DefaultTTL,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, p := range m.patterns {
		if _, err := path.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("invalid trace pattern %q: %w", p, err)
		}
	}
	return m, nil
}

// Root returns the corpus root directory.
func (m *Manager) Root() string {
	return m.root
}

// CachePath returns the location of the persisted index.
func (m *Manager) CachePath() string {
	return m.cachePath
}

// Parser returns the trace parser in use.
func (m *Manager) Parser() *trace.Parser {
	return m.parser
}

// Snapshot returns the current corpus view, reconciling if the memo is
// cold, stale, or past its TTL. Concurrent callers on an expired memo
// share a single reconcile pass. Persist failures are logged inside
// Reconcile and do not fail reads.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := m.cached(); snap != nil {
		return snap, nil
	}

	v, err, _ := m.group.Do("reconcile", func() (interface{}, error) {
		if snap := m.cached(); snap != nil {
			return snap, nil
		}
		return m.Reconcile(ctx)
	})
	if err != nil && !errors.Is(err, ErrCachePersist) {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate marks the memoized snapshot stale. The next read reconciles.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()
}

// cached returns the memoized snapshot if it is still fresh, else nil.
func (m *Manager) cached() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.memo == nil || m.stale || m.ttl <= 0 {
		return nil
	}
	if m.clock().Sub(m.memoAt) >= m.ttl {
		return nil
	}
	return m.memo
}

type foundFile struct {
	relPath     string
	fingerprint Fingerprint
}

// Reconcile walks the corpus, reuses cached metadata for files whose
// fingerprint is unchanged, parses new or modified files, drops entries
// for vanished files, and persists the updated index atomically.
//
// A reconcile error (cancelled context, unreadable root) leaves the
// previous memo and index untouched. A persist failure returns the fresh
// snapshot together with an error wrapping ErrCachePersist.
func (m *Manager) Reconcile(ctx context.Context) (*Snapshot, error) {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()

	ctx, span := otel.Tracer("tracelabel/labeler").Start(ctx, "corpus.reconcile")
	defer span.End()

	start := time.Now()
	prev := m.previousDocument()

	var (
		found    []foundFile
		scanErrs []ScanError
	)
	if err := m.walkDir(ctx, m.root, "", &found, &scanErrs); err != nil {
		span.RecordError(err)
		return nil, err
	}

	next := &cacheDocument{
		Version: cacheVersion,
		Entries: make(map[string]Entry, len(found)),
		Invalid: make(map[string]InvalidEntry),
	}
	var stats ReconcileStats

	for _, f := range found {
		stats.Scanned++

		if e, ok := prev.Entries[f.relPath]; ok && e.Fingerprint == f.fingerprint {
			next.Entries[f.relPath] = e
			stats.Reused++
			continue
		}
		if iv, ok := prev.Invalid[f.relPath]; ok && iv.Fingerprint == f.fingerprint {
			next.Invalid[f.relPath] = iv
			stats.Reused++
			continue
		}

		stats.Parsed++
		meta, err := m.parser.ParseSummary(m.root, f.relPath)
		if err != nil {
			reason := err.Error()
			var perr *trace.ParseError
			if errors.As(err, &perr) {
				reason = perr.Reason
			}
			next.Invalid[f.relPath] = InvalidEntry{Fingerprint: f.fingerprint, Reason: reason}
			m.logger.Warn("trace excluded",
				"path", f.relPath,
				"reason", reason)
			continue
		}
		next.Entries[f.relPath] = Entry{
			Fingerprint: f.fingerprint,
			PuzzleID:    meta.PuzzleID,
			VersionTag:  meta.VersionTag,
			Summary:     meta.Summary,
		}
	}

	for p := range prev.Entries {
		if _, ok := next.Entries[p]; !ok {
			if _, ok := next.Invalid[p]; !ok {
				stats.Removed++
			}
		}
	}
	for p := range prev.Invalid {
		if _, ok := next.Entries[p]; !ok {
			if _, ok := next.Invalid[p]; !ok {
				stats.Removed++
			}
		}
	}
	stats.Invalid = len(next.Invalid)
	stats.Duration = time.Since(start)

	now := m.clock()
	next.GeneratedAt = now

	snap := &Snapshot{
		Entries:     next.Entries,
		Invalid:     invalidFiles(next.Invalid),
		GeneratedAt: now,
		Stats:       stats,
		ScanErrors:  scanErrs,
	}

	persistErr := persistCache(m.cachePath, next)
	if persistErr != nil {
		m.logger.Error("metadata cache persist failed",
			"path", m.cachePath,
			"error", persistErr)
		span.RecordError(persistErr)
	}

	m.mu.Lock()
	m.prev = next
	m.memo = snap
	m.memoAt = now
	m.stale = false
	m.mu.Unlock()

	span.SetAttributes(
		attribute.Int("corpus.scanned", stats.Scanned),
		attribute.Int("corpus.parsed", stats.Parsed),
		attribute.Int("corpus.reused", stats.Reused),
		attribute.Int("corpus.removed", stats.Removed),
		attribute.Int("corpus.invalid", stats.Invalid),
	)
	m.logger.Info("corpus reconciled",
		"scanned", stats.Scanned,
		"parsed", stats.Parsed,
		"reused", stats.Reused,
		"removed", stats.Removed,
		"invalid", stats.Invalid,
		"scan_errors", len(scanErrs),
		"duration_ms", time.Since(start).Milliseconds())

	return snap, persistErr
}

// previousDocument returns the last reconciled index, loading it from disk
// on first use. A corrupt index is logged and replaced with an empty one,
// which forces a full re-parse of the corpus.
func (m *Manager) previousDocument() *cacheDocument {
	m.mu.RLock()
	prev := m.prev
	m.mu.RUnlock()
	if prev != nil {
		return prev
	}

	doc, err := loadCache(m.cachePath)
	if err != nil {
		m.logger.Warn("metadata cache unreadable, rescanning corpus",
			"path", m.cachePath,
			"error", err)
	}
	return doc
}

// walkDir recursively collects trace files under dir. rel is the
// slash-separated corpus-relative prefix. Hidden names and symlinks are
// skipped. Unreadable subdirectories are recorded and skipped; only an
// unreadable root fails the walk.
func (m *Manager) walkDir(ctx context.Context, dir, rel string, out *[]foundFile, scanErrs *[]ScanError) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
		}
		*scanErrs = append(*scanErrs, ScanError{Path: rel, Err: err})
		return nil
	}

	for _, de := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		childRel := path.Join(rel, name)

		if de.IsDir() {
			if err := m.walkDir(ctx, filepath.Join(dir, name), childRel, out, scanErrs); err != nil {
				return err
			}
			continue
		}
		if !de.Type().IsRegular() || !m.matches(name) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			*scanErrs = append(*scanErrs, ScanError{Path: childRel, Err: err})
			continue
		}
		*out = append(*out, foundFile{relPath: childRel, fingerprint: fingerprintOf(info)})
	}
	return nil
}

// matches reports whether a base name matches any trace file pattern.
func (m *Manager) matches(name string) bool {
	for _, p := range m.patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// invalidFiles converts the cached invalid map to a sorted slice.
func invalidFiles(invalid map[string]InvalidEntry) []InvalidFile {
	if len(invalid) == 0 {
		return nil
	}
	files := make([]InvalidFile, 0, len(invalid))
	for p, iv := range invalid {
		files = append(files, InvalidFile{Path: p, Reason: iv.Reason})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}
