// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the labeler.
//
// # Description
//
// Metrics cover the HTTP boundary (request counts and latencies), corpus
// reconciliation (parse vs. reuse, which doubles as the metadata cache
// hit/miss ratio), and label store activity (writes, deletes, merge
// outcomes), plus gauges for corpus size and remaining work.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Initialize once at
// startup via InitMetrics; tests build isolated instances with NewMetrics
// and a private registry.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "tracelabel"

// Subsystem for labeler metrics
const labelerSubsystem = "labeler"

// Metrics holds all Prometheus metrics for the labeler service.
type Metrics struct {
	// RequestsTotal counts HTTP requests by endpoint and outcome.
	// Labels: endpoint (list, unlabeled, next, detail, submit, delete,
	// export, import, stats), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency by endpoint.
	RequestDurationSeconds *prometheus.HistogramVec

	// ReconcilesTotal counts corpus reconcile passes.
	ReconcilesTotal prometheus.Counter

	// ReconcileDurationSeconds measures full reconcile passes.
	ReconcileDurationSeconds prometheus.Histogram

	// FilesParsedTotal counts trace files handed to the parser. Each one
	// is a metadata cache miss.
	FilesParsedTotal prometheus.Counter

	// EntriesReusedTotal counts files served from the metadata cache
	// without parsing. Each one is a cache hit.
	EntriesReusedTotal prometheus.Counter

	// LabelsWrittenTotal counts stored labels by value.
	// Labels: value (correct, incorrect, skipped)
	LabelsWrittenTotal *prometheus.CounterVec

	// LabelsDeletedTotal counts label deletions.
	LabelsDeletedTotal prometheus.Counter

	// MergeOutcomesTotal counts per-label merge outcomes.
	// Labels: outcome (adopted, updated, unchanged, conflict)
	MergeOutcomesTotal *prometheus.CounterVec

	// CorpusPuzzles tracks distinct puzzles in the last snapshot.
	CorpusPuzzles prometheus.Gauge

	// CorpusInvalidFiles tracks excluded files in the last snapshot.
	CorpusInvalidFiles prometheus.Gauge

	// UnlabeledPuzzles tracks remaining review work.
	UnlabeledPuzzles prometheus.Gauge
}

// DefaultMetrics is the singleton instance used by the serve path.
// Initialized by InitMetrics().
var DefaultMetrics *Metrics

// InitMetrics initializes DefaultMetrics against the default Prometheus
// registry. Call once at startup; a second call panics on duplicate
// registration.
func InitMetrics() *Metrics {
	DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// NewMetrics creates and registers all labeler metrics against reg.
// Tests pass a private prometheus.NewRegistry() to stay isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "requests_total",
				Help:      "Total HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Handler latency by endpoint",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint"},
		),

		ReconcilesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "reconciles_total",
				Help:      "Total corpus reconcile passes",
			},
		),

		ReconcileDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "reconcile_duration_seconds",
				Help:      "Duration of corpus reconcile passes",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
		),

		FilesParsedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "files_parsed_total",
				Help:      "Trace files parsed during reconciles (metadata cache misses)",
			},
		),

		EntriesReusedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "entries_reused_total",
				Help:      "Trace files served from the metadata cache (hits)",
			},
		),

		LabelsWrittenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "labels_written_total",
				Help:      "Labels stored by value",
			},
			[]string{"value"},
		),

		LabelsDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "labels_deleted_total",
				Help:      "Labels removed from the store",
			},
		),

		MergeOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "merge_outcomes_total",
				Help:      "Per-label outcomes of label document merges",
			},
			[]string{"outcome"},
		),

		CorpusPuzzles: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "corpus_puzzles",
				Help:      "Distinct puzzles in the current snapshot",
			},
		),

		CorpusInvalidFiles: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "corpus_invalid_files",
				Help:      "Excluded trace files in the current snapshot",
			},
		),

		UnlabeledPuzzles: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: labelerSubsystem,
				Name:      "unlabeled_puzzles",
				Help:      "Puzzles still waiting for a label",
			},
		),
	}
}

// =============================================================================
// Helper Methods
// =============================================================================
//
// All helpers accept a nil receiver and do nothing, so callers that never
// initialized metrics (unit tests, the scan CLI) can skip the wiring.

// RecordRequest records one completed boundary operation.
func (m *Metrics) RecordRequest(endpoint string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordReconcile records one reconcile pass. parsed and reused feed the
// cache hit/miss counters.
func (m *Metrics) RecordReconcile(parsed, reused int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ReconcilesTotal.Inc()
	m.ReconcileDurationSeconds.Observe(duration.Seconds())
	m.FilesParsedTotal.Add(float64(parsed))
	m.EntriesReusedTotal.Add(float64(reused))
}

// RecordLabelWritten records a stored label.
func (m *Metrics) RecordLabelWritten(value string) {
	if m == nil {
		return
	}
	m.LabelsWrittenTotal.WithLabelValues(value).Inc()
}

// RecordLabelDeleted records a removed label.
func (m *Metrics) RecordLabelDeleted() {
	if m == nil {
		return
	}
	m.LabelsDeletedTotal.Inc()
}

// RecordMerge records the outcome counts of one merge.
func (m *Metrics) RecordMerge(adopted, updated, unchanged, conflicts int) {
	if m == nil {
		return
	}
	m.MergeOutcomesTotal.WithLabelValues("adopted").Add(float64(adopted))
	m.MergeOutcomesTotal.WithLabelValues("updated").Add(float64(updated))
	m.MergeOutcomesTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	m.MergeOutcomesTotal.WithLabelValues("conflict").Add(float64(conflicts))
}

// SetCorpusState updates the snapshot gauges.
func (m *Metrics) SetCorpusState(puzzles, invalid, unlabeled int) {
	if m == nil {
		return
	}
	m.CorpusPuzzles.Set(float64(puzzles))
	m.CorpusInvalidFiles.Set(float64(invalid))
	m.UnlabeledPuzzles.Set(float64(unlabeled))
}
