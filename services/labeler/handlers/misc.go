// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides HTTP request handlers for the labeler service.
//
// This file implements the health and stats endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TraceWorksAI/TraceLabel/services/labeler"
)

// Health handles GET /health.
func Health(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Health())
	}
}

// GetStats handles GET /v1/stats.
func GetStats(svc *labeler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.GetStats(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
