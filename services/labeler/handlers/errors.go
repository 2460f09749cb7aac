// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides HTTP request handlers for the labeler service.
//
// This file implements the shared error-to-status mapping.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TraceWorksAI/TraceLabel/services/labeler"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/labels"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/middleware"
)

// writeError maps a boundary error onto an HTTP status.
//
// ErrNotFound becomes 404 and ErrInvalidInput 400, both with the error
// text so the reviewer UI can show it. A failed store write keeps its
// "label not saved" prefix at 500. Anything else is an internal fault:
// logged with the request id, reported without detail.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, labeler.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, labeler.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, labels.ErrStoreWrite):
		slog.Error("label store write failed",
			"error", err,
			"request_id", middleware.GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "label not saved: " + err.Error()})
	default:
		slog.Error("request failed",
			"path", c.FullPath(),
			"error", err,
			"request_id", middleware.GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
