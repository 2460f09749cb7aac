// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package labeler provides the core labeling service for TraceLabel.
//
// This package contains the Service type that coordinates all components
// of the labeling workflow: the corpus index, version grouping, the label
// store, review selection, and observability instrumentation.
//
// # Layering
//
// Service is transport-agnostic. The HTTP handlers and the CLI both call
// the same operations and receive datatypes responses plus classified
// errors; neither transport reaches into the corpus or store directly.
//
//	HTTP (routes/handlers)        CLI (cmd/tracelabel)
//	        │                             │
//	        └───────────┬─────────────────┘
//	                    ▼
//	              labeler.Service
//	                    │
//	     ┌──────────────┼──────────────┐
//	     ▼              ▼              ▼
//	corpus.Manager  labels.Store   selector
//	     │
//	     ▼
//	trace.Parser
//
// # Usage
//
//	svc, err := labeler.New(labeler.Config{CorpusDir: "/data/traces"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	puzzles, err := svc.ListPuzzles(ctx)
//
// # Error Contract
//
// Operations return ErrNotFound for missing puzzles or labels and
// ErrInvalidInput for rejected requests; labels.ErrStoreWrite passes
// through when the store document could not be replaced. Anything else
// is an internal fault.
package labeler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/TraceWorksAI/TraceLabel/pkg/validation"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/corpus"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/datatypes"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/groups"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/observability"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/selector"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/trace"
)

// ServiceName identifies this service in health responses and telemetry.
const ServiceName = "labeler-service"

// =============================================================================
// Configuration
// =============================================================================

// Config holds labeler service configuration.
//
// # Required Fields
//
//   - CorpusDir: directory containing the trace corpus.
//
// # Optional Fields
//
// All other fields default sensibly in New.
type Config struct {
	// CorpusDir is the root directory of the trace corpus. Required.
	CorpusDir string

	// LabelsFile is the label store document path.
	// Default: <CorpusDir>/labels/.reasoning_labels.json
	LabelsFile string

	// CacheFile is the metadata cache filename inside CorpusDir.
	// Default: corpus.DefaultCacheFile
	CacheFile string

	// Patterns are the trace filename globs to index.
	// Default: corpus.DefaultPatterns
	Patterns []string

	// ServiceVersion is reported by Health. Default: "dev"
	ServiceVersion string
}

// =============================================================================
// Options
// =============================================================================

type settings struct {
	clock     func() time.Time
	logger    *slog.Logger
	versionFn trace.VersionFunc
	ttl       time.Duration
	metrics   *observability.Metrics
}

// Option customizes a Service.
type Option func(*settings)

// WithClock overrides the time source used for label timestamps and the
// snapshot TTL. Tests use this for determinism.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) { s.clock = clock }
}

// WithLogger sets the logger for the service and all its components.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithVersionFunc overrides version-tag extraction for corpora with
// nonstandard filename conventions.
func WithVersionFunc(fn trace.VersionFunc) Option {
	return func(s *settings) { s.versionFn = fn }
}

// WithTTL sets how long a corpus snapshot is served before the next read
// re-checks the filesystem. Zero or negative disables memoization.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

// WithMetrics overrides the metrics sink. Nil disables recording.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// =============================================================================
// Service
// =============================================================================

// Service coordinates the labeling workflow over one corpus and one label
// store. Safe for concurrent use. Construct with New.
type Service struct {
	cfg     Config
	corpus  *corpus.Manager
	store   *labels.Store
	metrics *observability.Metrics
	logger  *slog.Logger

	// mu guards the derived-view memo. Snapshots are immutable once
	// published, so the groups built from one can be shared by reference
	// until the manager hands out a different snapshot pointer.
	mu         sync.Mutex
	lastSnap   *corpus.Snapshot
	lastGroups []groups.Group
}

// New creates a labeler Service for the given corpus.
//
// The corpus directory must exist. The label store document is created on
// first write; a corrupt existing document fails construction so user
// labels are never silently discarded.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.CorpusDir == "" {
		return nil, fmt.Errorf("labeler: corpus directory is required")
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "dev"
	}
	if cfg.LabelsFile == "" {
		cfg.LabelsFile = filepath.Join(cfg.CorpusDir, labels.DefaultDir, labels.DefaultFile)
	}

	st := settings{
		clock:   time.Now,
		logger:  slog.Default(),
		ttl:     corpus.DefaultTTL,
		metrics: observability.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(&st)
	}

	mgrOpts := []corpus.ManagerOption{
		corpus.WithParser(&trace.Parser{Version: st.versionFn}),
		corpus.WithClock(st.clock),
		corpus.WithLogger(st.logger),
		corpus.WithTTL(st.ttl),
	}
	if cfg.CacheFile != "" {
		mgrOpts = append(mgrOpts, corpus.WithCacheFile(cfg.CacheFile))
	}
	if len(cfg.Patterns) > 0 {
		mgrOpts = append(mgrOpts, corpus.WithPatterns(cfg.Patterns...))
	}
	mgr, err := corpus.NewManager(cfg.CorpusDir, mgrOpts...)
	if err != nil {
		return nil, err
	}

	store, err := labels.Open(cfg.LabelsFile,
		labels.WithClock(st.clock),
		labels.WithLogger(st.logger))
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:     cfg,
		corpus:  mgr,
		store:   store,
		metrics: st.metrics,
		logger:  st.logger,
	}, nil
}

// Corpus exposes the corpus manager for watcher wiring and scan tooling.
func (s *Service) Corpus() *corpus.Manager {
	return s.corpus
}

// Invalidate marks the corpus snapshot stale. The next operation rescans.
func (s *Service) Invalidate() {
	s.corpus.Invalidate()
}

// Health reports service identity and the corpus it serves.
func (s *Service) Health() datatypes.HealthResponse {
	return datatypes.HealthResponse{
		Status:    "ok",
		Service:   ServiceName,
		Version:   s.cfg.ServiceVersion,
		CorpusDir: s.corpus.Root(),
	}
}

// view returns the current snapshot and its version groups, rebuilding the
// groups only when the manager produced a new snapshot. Reconcile metrics
// are recorded on that same transition.
func (s *Service) view(ctx context.Context) (*corpus.Snapshot, []groups.Group, error) {
	snap, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	if snap == s.lastSnap {
		gs := s.lastGroups
		s.mu.Unlock()
		return snap, gs, nil
	}
	s.mu.Unlock()

	gs := groups.Build(snap)

	s.mu.Lock()
	if snap != s.lastSnap {
		s.lastSnap = snap
		s.lastGroups = gs
		s.metrics.RecordReconcile(snap.Stats.Parsed, snap.Stats.Reused, snap.Stats.Duration)
	}
	gs = s.lastGroups
	s.mu.Unlock()

	return snap, gs, nil
}

// observe records one completed operation. Use with defer and a named
// error return.
func (s *Service) observe(op string, start time.Time, errp *error) {
	s.metrics.RecordRequest(op, *errp == nil, time.Since(start))
}

// =============================================================================
// Puzzle Operations
// =============================================================================

// ListPuzzles returns every puzzle group with its label status.
func (s *Service) ListPuzzles(ctx context.Context) (_ datatypes.ListPuzzlesResponse, err error) {
	defer s.observe("list_puzzles", time.Now(), &err)

	snap, gs, err := s.view(ctx)
	if err != nil {
		return datatypes.ListPuzzlesResponse{}, err
	}

	byID := s.store.All()
	puzzles := make([]datatypes.PuzzleSummary, 0, len(gs))
	unlabeled := 0
	for _, g := range gs {
		status := datatypes.LabelStatusUnlabeled
		if l, ok := byID[g.PuzzleID]; ok {
			status = l.Label
		} else {
			unlabeled++
		}
		puzzles = append(puzzles, datatypes.NewPuzzleSummary(g, status))
	}
	s.metrics.SetCorpusState(len(gs), len(snap.Invalid), unlabeled)

	return datatypes.ListPuzzlesResponse{
		Puzzles:     puzzles,
		Total:       len(puzzles),
		GeneratedAt: snap.GeneratedAt,
	}, nil
}

// ListUnlabeled returns one page of puzzles that still need review.
// Pages are 0-indexed; an out-of-range page is empty, not an error.
func (s *Service) ListUnlabeled(ctx context.Context, page, pageSize int) (_ datatypes.UnlabeledPage, err error) {
	defer s.observe("list_unlabeled", time.Now(), &err)

	_, gs, err := s.view(ctx)
	if err != nil {
		return datatypes.UnlabeledPage{}, err
	}
	return datatypes.NewUnlabeledPage(selector.ListUnlabeled(gs, s.store, page, pageSize)), nil
}

// NextUnlabeled returns the first puzzle without a label, or nil when the
// corpus is fully reviewed.
func (s *Service) NextUnlabeled(ctx context.Context) (_ *datatypes.PuzzleSummary, err error) {
	defer s.observe("next_unlabeled", time.Now(), &err)

	_, gs, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := selector.NextUnlabeled(gs, s.store)
	if !ok {
		return nil, nil
	}
	summary := datatypes.NewPuzzleSummary(g, datatypes.LabelStatusUnlabeled)
	return &summary, nil
}

// GetPuzzle returns the full trace at a corpus-relative path plus its
// current label and ordered sibling versions.
//
// The path is validated before any filesystem access and must be present
// in the current snapshot. The file is then re-read so the trace body is
// current even when the snapshot is memoized; if it no longer parses, the
// snapshot is invalidated and ErrNotFound is returned.
func (s *Service) GetPuzzle(ctx context.Context, relPath string) (_ *datatypes.PuzzleDetail, err error) {
	defer s.observe("get_puzzle", time.Now(), &err)

	cleaned, cerr := validation.CleanTracePath(relPath)
	if cerr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, cerr)
	}

	snap, gs, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Entry(cleaned); !ok {
		return nil, fmt.Errorf("%w: trace %q", ErrNotFound, cleaned)
	}

	pt, perr := s.corpus.Parser().Parse(s.corpus.Root(), cleaned)
	if perr != nil {
		s.corpus.Invalidate()
		s.logger.Warn("indexed trace no longer readable",
			"path", cleaned,
			"error", perr)
		return nil, fmt.Errorf("%w: trace %q", ErrNotFound, cleaned)
	}

	var versions []datatypes.VersionRef
	if i, ok := groups.Index(gs)[pt.PuzzleID]; ok {
		for _, m := range gs[i].Members {
			versions = append(versions, datatypes.VersionRef{
				FilePath:   m.FilePath,
				VersionTag: m.VersionTag,
			})
		}
	}

	var current *labels.Label
	if l, ok := s.store.Get(pt.PuzzleID); ok {
		current = &l
	}

	return &datatypes.PuzzleDetail{
		PuzzleID:   pt.PuzzleID,
		FilePath:   cleaned,
		VersionTag: pt.VersionTag,
		Summary:    pt.Summary,
		Trace:      pt.Raw,
		Label:      current,
		Versions:   versions,
	}, nil
}

// =============================================================================
// Label Operations
// =============================================================================

// SubmitLabel validates and stores one label judgement.
func (s *Service) SubmitLabel(ctx context.Context, req datatypes.SubmitLabelRequest) (_ datatypes.SubmitLabelResponse, err error) {
	defer s.observe("submit_label", time.Now(), &err)

	req.EnsureDefaults()
	if verr := req.Validate(); verr != nil {
		return datatypes.SubmitLabelResponse{}, fmt.Errorf("%w: %w", ErrInvalidInput, verr)
	}

	res, uerr := s.store.Upsert(labels.Label{
		PuzzleID:     req.PuzzleID,
		Label:        req.Label,
		Reasoning:    req.Reasoning,
		FailureModes: req.FailureModes,
		FilePath:     req.FilePath,
		Reviewer:     req.Reviewer,
	})
	if uerr != nil {
		return datatypes.SubmitLabelResponse{}, classify(uerr)
	}
	s.metrics.RecordLabelWritten(res.Label.Label)

	return datatypes.NewSubmitLabelResponse(res), nil
}

// DeleteLabel removes the label for a puzzle. ErrNotFound when absent.
func (s *Service) DeleteLabel(ctx context.Context, puzzleID string) (err error) {
	defer s.observe("delete_label", time.Now(), &err)

	if verr := validation.ValidatePuzzleID(puzzleID); verr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, verr)
	}
	if derr := s.store.Delete(puzzleID); derr != nil {
		return classify(derr)
	}
	s.metrics.RecordLabelDeleted()
	return nil
}

// GetStats reports labeling progress over the current corpus.
func (s *Service) GetStats(ctx context.Context) (_ datatypes.Stats, err error) {
	defer s.observe("stats", time.Now(), &err)

	snap, gs, err := s.view(ctx)
	if err != nil {
		return datatypes.Stats{}, err
	}
	st := selector.ComputeStats(gs, s.store.All())
	s.metrics.SetCorpusState(st.Total, len(snap.Invalid), st.Unlabeled)
	return datatypes.NewStats(st), nil
}

// =============================================================================
// Import / Export
// =============================================================================

// importEnvelope is the store document shape accepted by ImportLabels.
type importEnvelope struct {
	Version int                     `json:"version"`
	Labels  map[string]labels.Label `json:"labels"`
}

// ImportLabels merges an external label document into the store.
//
// The document may be a full store export (the {version, labels} envelope)
// or a bare {puzzle_id: label} map. Conflicts with locally edited labels
// are reported in the MergeReport, never applied.
func (s *Service) ImportLabels(ctx context.Context, document []byte) (_ labels.MergeReport, err error) {
	defer s.observe("import_labels", time.Now(), &err)

	var incoming map[string]labels.Label

	var env importEnvelope
	if uerr := json.Unmarshal(document, &env); uerr == nil && env.Labels != nil {
		if env.Version != 0 && env.Version != labels.StoreVersion {
			return labels.MergeReport{}, fmt.Errorf("%w: unsupported label document version %d",
				ErrInvalidInput, env.Version)
		}
		incoming = env.Labels
	} else {
		var bare map[string]labels.Label
		if berr := json.Unmarshal(document, &bare); berr != nil {
			return labels.MergeReport{}, fmt.Errorf("%w: label document is not valid JSON: %w",
				ErrInvalidInput, berr)
		}
		incoming = bare
	}

	report, merr := s.store.Merge(ctx, incoming)
	if merr != nil {
		return labels.MergeReport{}, classify(merr)
	}
	s.metrics.RecordMerge(report.Adopted, report.Updated, report.Unchanged, len(report.Conflicts))
	return report, nil
}

// ExportLabels returns the current store document for sharing.
func (s *Service) ExportLabels(ctx context.Context) (_ []byte, err error) {
	defer s.observe("export_labels", time.Now(), &err)
	return s.store.Document()
}
