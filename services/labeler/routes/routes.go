// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes registers the labeler service's HTTP endpoints.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TraceWorksAI/TraceLabel/services/labeler"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/handlers"
)

// SetupRoutes registers all endpoints on the router.
//
// metricsHandler serves GET /metrics; pass telemetry.MetricsHandler() when
// telemetry is initialized, or nil for the default Prometheus handler.
// Middleware (request IDs, tracing, recovery) is applied by the caller
// before registration.
func SetupRoutes(router *gin.Engine, svc *labeler.Service, metricsHandler http.Handler) {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	router.GET("/health", handlers.Health(svc))
	router.GET("/metrics", gin.WrapH(metricsHandler))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/puzzles", handlers.ListPuzzles(svc))
		v1.GET("/puzzles/unlabeled", handlers.ListUnlabeled(svc))
		v1.GET("/puzzles/next", handlers.NextUnlabeled(svc))
		v1.GET("/puzzles/trace/*file_path", handlers.GetTrace(svc))

		// Label administration routes
		labelRoutes := v1.Group("/labels")
		{
			labelRoutes.POST("", handlers.SubmitLabel(svc))
			labelRoutes.DELETE("/:puzzle_id", handlers.DeleteLabel(svc))
			labelRoutes.GET("/export", handlers.ExportLabels(svc))
			labelRoutes.POST("/import", handlers.ImportLabels(svc))
		}

		v1.GET("/stats", handlers.GetStats(svc))
	}
}
