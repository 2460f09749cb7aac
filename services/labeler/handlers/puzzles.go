// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides HTTP request handlers for the labeler service.
//
// This file implements the puzzle listing and trace detail endpoints.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TraceWorksAI/TraceLabel/services/labeler"
)

// ListPuzzles handles GET /v1/puzzles.
//
// ?refresh=true drops the snapshot memo so the listing reflects the
// filesystem as of this request.
func ListPuzzles(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("refresh") == "true" {
			svc.Invalidate()
		}

		resp, err := svc.ListPuzzles(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListUnlabeled handles GET /v1/puzzles/unlabeled.
//
// page is 0-indexed; page_size defaults and caps are applied by the
// selector. Non-numeric values are rejected.
func ListUnlabeled(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
			return
		}
		pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "0"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page_size must be an integer"})
			return
		}

		resp, err := svc.ListUnlabeled(c.Request.Context(), page, pageSize)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// NextUnlabeled handles GET /v1/puzzles/next.
//
// When every puzzle is labeled the response is {"puzzle": null,
// "done": true} rather than an error; a finished corpus is a normal
// state for the reviewer UI.
func NextUnlabeled(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		next, err := svc.NextUnlabeled(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"puzzle": next,
			"done":   next == nil,
		})
	}
}

// GetTrace handles GET /v1/puzzles/trace/*file_path.
//
// The wildcard keeps slashes in nested corpus paths; gin includes the
// leading separator, which is stripped before validation.
func GetTrace(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		relPath := strings.TrimPrefix(c.Param("file_path"), "/")

		detail, err := svc.GetPuzzle(c.Request.Context(), relPath)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}
