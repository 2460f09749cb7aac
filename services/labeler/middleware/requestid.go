// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the labeler service.
//
// This package contains middleware for request identification and
// request processing. Tracing middleware (otelgin) and panic recovery
// come from their upstream packages and are wired in the routes layer;
// only middleware owned by this service lives here.
//
// # Request ID Flow
//
// The request ID middleware assigns every request a stable identifier
// that appears in logs, response headers, and error reports so a single
// request can be followed across the service.
//
//	Request
//	   │
//	   ▼
//	RequestID
//	   │
//	   ├─► Reuse inbound "X-Request-ID" header if present
//	   │
//	   ├─► Otherwise generate a new UUIDv4
//	   │
//	   └─► Store ID in context and echo it on the response
//	           │
//	           ▼
//	       Handler (retrieves via GetRequestID)
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// =============================================================================
// Context Keys
// =============================================================================

// requestIDKey is the context key for storing the request ID.
// Using a dedicated key prevents collisions with other context values.
const requestIDKey = "tracelabel_request_id"

// HeaderXRequestID is the HTTP header carrying the request ID.
const HeaderXRequestID = "X-Request-ID"

// =============================================================================
// Context Helpers
// =============================================================================

// SetRequestID stores the request ID in the Gin context.
//
// # Description
//
// Called by the RequestID middleware once per request. The stored ID
// can be retrieved by handlers via GetRequestID.
//
// # Inputs
//
//   - c: Gin context. Must not be nil.
//   - id: Request identifier. Must not be empty.
//
// # Thread Safety
//
// Safe to call concurrently (Gin context is request-scoped).
func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

// GetRequestID retrieves the request ID from the Gin context.
//
// # Description
//
// Called by handlers and error reporters to correlate their output
// with a specific request. Returns empty string if the RequestID
// middleware did not run for this request.
//
// # Inputs
//
//   - c: Gin context. Must not be nil.
//
// # Outputs
//
//   - string: The request ID, or empty string if none was assigned
//
// # Examples
//
//	func (h *handler) HandleRequest(c *gin.Context) {
//	    id := middleware.GetRequestID(c)
//	    logger.Info("handling request", "request_id", id)
//	}
//
// # Thread Safety
//
// Safe to call concurrently (Gin context is request-scoped).
func GetRequestID(c *gin.Context) string {
	if v, exists := c.Get(requestIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// =============================================================================
// Request ID Middleware
// =============================================================================

// RequestID creates a Gin middleware that assigns request identifiers.
//
// # Description
//
// Reuses the inbound X-Request-ID header when a client or proxy already
// assigned one, otherwise generates a fresh UUIDv4. The ID is stored in
// the Gin context for handlers and echoed on the response so clients can
// quote it when reporting problems.
//
// # Inputs
//
// None.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin
//
// # Examples
//
//	router := gin.New()
//	router.Use(middleware.RequestID())
//
// # Limitations
//
//   - Inbound IDs are trusted as-is; no length or format validation
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		SetRequestID(c, id)
		c.Writer.Header().Set(HeaderXRequestID, id)

		c.Next()
	}
}
