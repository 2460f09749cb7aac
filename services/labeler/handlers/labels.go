// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides HTTP request handlers for the labeler service.
//
// This file implements the label submission, deletion, and exchange
// endpoints.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TraceWorksAI/TraceLabel/services/labeler"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/datatypes"
)

// SubmitLabel handles POST /v1/labels.
func SubmitLabel(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SubmitLabelRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		resp, err := svc.SubmitLabel(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		status := http.StatusOK
		if resp.Created {
			status = http.StatusCreated
		}
		c.JSON(status, resp)
	}
}

// DeleteLabel handles DELETE /v1/labels/:puzzle_id.
func DeleteLabel(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		puzzleID := c.Param("puzzle_id")

		if err := svc.DeleteLabel(c.Request.Context(), puzzleID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "puzzle_id": puzzleID})
	}
}

// ExportLabels handles GET /v1/labels/export, returning the raw store
// document so two reviewers exchange exactly what is on disk.
func ExportLabels(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := svc.ExportLabels(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", doc)
	}
}

// ImportLabels handles POST /v1/labels/import.
//
// The body is an exported store document or a bare puzzle-to-label map.
// Conflicts come back in the report, not as an error status.
func ImportLabels(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}

		report, err := svc.ImportLabels(c.Request.Context(), body)
		if err != nil {
			writeError(c, err)
			return
		}

		if len(report.Conflicts) > 0 {
			slog.Info("label import finished with conflicts",
				"conflicts", len(report.Conflicts))
		}
		c.JSON(http.StatusOK, datatypes.NewImportResponse(report))
	}
}
