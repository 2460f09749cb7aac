// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry provides OpenTelemetry-based observability for the
// labeler service.
//
// This package initializes the OTel SDK with opinionated defaults for
// tracing and metrics while leaving the backend swappable through exporter
// configuration.
//
// # Philosophy
//
// Be opinionated about the API, flexible about the backend. OpenTelemetry
// IS the abstraction layer: code uses otel.Tracer() directly and operators
// swap backends by changing exporter configuration, not code.
//
// # Trace Backend (default: OTLP over gRPC)
//
// Traces export over a gRPC client connection to an OTLP collector. The
// stdout exporter is available for local debugging, "none" disables
// tracing entirely.
//
// # Metrics Backend (default: Prometheus)
//
// The Prometheus exporter registers with the default registry, so the
// /metrics endpoint serves both the OTel instruments and the service's
// own promauto collectors.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(ctx)
//
// # Environment Variables
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - TRACELABEL_ENV: environment name (default: development)
package telemetry
