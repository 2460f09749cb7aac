// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() (*gin.Engine, *string) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router, &seen
}

// =============================================================================
// RequestID Tests
// =============================================================================

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	router, seen := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	id := w.Header().Get(HeaderXRequestID)
	require.NotEmpty(t, id)
	assert.Equal(t, id, *seen)

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestRequestID_RespectsInboundHeader(t *testing.T) {
	router, seen := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(HeaderXRequestID, "client-assigned-42")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client-assigned-42", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "client-assigned-42", *seen)
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	router, _ := newTestRouter()

	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)

		id := w.Header().Get(HeaderXRequestID)
		require.NotEmpty(t, id)
		assert.False(t, ids[id], "request ID %q repeated", id)
		ids[id] = true
	}
}

// =============================================================================
// Context Helper Tests
// =============================================================================

func TestGetRequestID_MissingReturnsEmpty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	assert.Empty(t, GetRequestID(c))
}

func TestGetRequestID_WrongTypeReturnsEmpty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Set(requestIDKey, 12345)

	assert.Empty(t, GetRequestID(c))
}

func TestSetRequestID_RoundTrip(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	SetRequestID(c, "abc-123")

	assert.Equal(t, "abc-123", GetRequestID(c))
}
