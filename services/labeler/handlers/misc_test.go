// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// Tests for the health and stats handlers

package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TraceWorksAI/TraceLabel/services/labeler"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/datatypes"
)

// =============================================================================
// Health Tests
// =============================================================================

func TestHealth_ReturnsOK(t *testing.T) {
	svc, root := newTestService(t)

	router := createTestRouter("GET", "/health", Health(svc))
	w := performRequest(router, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var resp datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, labeler.ServiceName, resp.Service)
	assert.Equal(t, root, resp.CorpusDir)
}

// =============================================================================
// GetStats Tests
// =============================================================================

func TestGetStats_EmptyCorpus(t *testing.T) {
	svc, _ := newTestService(t)

	router := createTestRouter("GET", "/v1/stats", GetStats(svc))
	w := performRequest(router, "GET", "/v1/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var stats datatypes.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.CompletionFraction)
}

func TestGetStats_CountsLabels(t *testing.T) {
	svc, root := newTestService(t)
	writeTrace(t, root, "p1_analysis.json", "p1", 3)
	writeTrace(t, root, "p2_analysis.json", "p2", 3)

	submit := createTestRouter("POST", "/v1/labels", SubmitLabel(svc))
	w := performRequest(submit, "POST", "/v1/labels", datatypes.SubmitLabelRequest{
		PuzzleID: "p1", Label: "incorrect", FailureModes: []string{"C2"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	router := createTestRouter("GET", "/v1/stats", GetStats(svc))
	w = performRequest(router, "GET", "/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats datatypes.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Labeled)
	assert.Equal(t, 1, stats.Unlabeled)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 0.5, stats.CompletionFraction)
	assert.Equal(t, 1, stats.FailureModes["C2"])
}
