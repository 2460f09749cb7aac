// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/TraceWorksAI/TraceLabel/cmd/tracelabel/config"
	"github.com/TraceWorksAI/TraceLabel/pkg/logging"
	"github.com/TraceWorksAI/TraceLabel/pkg/ux"
	"github.com/TraceWorksAI/TraceLabel/services/labeler"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/corpus"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/middleware"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/observability"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/routes"
	"github.com/TraceWorksAI/TraceLabel/services/labeler/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	servePort  int           // HTTP port (0 = config value)
	serveWatch bool          // rescan on filesystem changes
	serveTTL   time.Duration // snapshot freshness window (0 = config value)
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// serveCmd runs the labeler HTTP service.
//
// # Description
//
// Indexes the trace corpus and serves the review API: puzzle listings,
// trace detail, label submission, merge import/export, and progress
// stats. The corpus index refreshes lazily on a TTL and, with --watch,
// eagerly when files change.
//
// # Examples
//
//	tracelabel serve --corpus ~/arc_traces
//	tracelabel serve --corpus ~/arc_traces --port 8080
//	tracelabel serve --corpus ~/arc_traces --watch=false --ttl 30s
//
// # Limitations
//
//   - One corpus per process
//   - No authentication; bind to localhost or front with a proxy
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the trace labeling HTTP service",
	Long: `Starts the labeler HTTP server over the trace corpus.

The server indexes the corpus once at startup and keeps the index fresh
with cheap incremental rescans. Labels are persisted to a JSON store
inside the corpus directory and survive restarts.

Examples:
  tracelabel serve --corpus ~/arc_traces            # defaults, port 5001
  tracelabel serve --corpus ~/arc_traces -p 8080    # custom port
  tracelabel serve --corpus ~/arc_traces --ttl 30s  # aggressive refresh`,
	Run: runServeCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"HTTP port (default from config, 5001)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true,
		"Watch the corpus for changes and rescan automatically")
	serveCmd.Flags().DurationVar(&serveTTL, "ttl", 0,
		"Corpus snapshot freshness window (default from config, 300s)")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runServeCommand wires up the service stack and blocks until shutdown.
//
// # Description
//
// Resolves configuration (flags over file), initializes logging,
// telemetry, and metrics, then runs the gin server until SIGINT or
// SIGTERM. Shutdown drains in-flight requests before exiting.
//
// # Inputs
//
//   - cmd: Cobra command, used to distinguish set flags from defaults
//   - args: unused
//
// # Outputs
//
// Blocks. Exits 1 on startup or fatal server errors.
func runServeCommand(cmd *cobra.Command, args []string) {
	corpusDir := resolveCorpusDir()

	port := servePort
	if port == 0 {
		port = config.Global.Server.GetPort()
	}
	ttl := serveTTL
	if ttl == 0 {
		ttl = config.Global.Corpus.GetTTL()
	}
	watch := serveWatch
	if !cmd.Flags().Changed("watch") {
		watch = config.Global.Server.Watch
	}

	level, err := logging.ParseLevel(config.Global.Logging.GetLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", config.Global.Logging.GetLevel(), err)
		os.Exit(2)
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  config.Global.Logging.Dir,
		Service: "tracelabel",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry before anything that starts spans.
	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.ServiceName = labeler.ServiceName
	telemetryCfg.ServiceVersion = Version
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		slog.Error("Telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown error", "error", err)
		}
	}()

	metrics := observability.InitMetrics()

	svc, err := labeler.New(labeler.Config{
		CorpusDir:      corpusDir,
		LabelsFile:     expandHome(config.Global.Corpus.LabelsFile),
		Patterns:       config.Global.Corpus.Patterns,
		ServiceVersion: Version,
	},
		labeler.WithLogger(logger.Slog()),
		labeler.WithTTL(ttl),
		labeler.WithMetrics(metrics),
	)
	if err != nil {
		slog.Error("Service init failed", "error", err, "corpus_dir", corpusDir)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(labeler.ServiceName))
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, svc, telemetry.MetricsHandler())

	if watch {
		watcher, err := corpus.NewWatcher(svc.Corpus(), logger.WithComponent("watcher").Slog())
		if err != nil {
			slog.Warn("Corpus watcher unavailable, relying on TTL rescans", "error", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Close()
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting labeler server",
			"port", port,
			"corpus_dir", corpusDir,
			"watch", watch,
			"ttl", ttl.String(),
			"version", Version,
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ux.Error(fmt.Sprintf("Server failed: %v", err))
			os.Exit(1)
		}
	}
	slog.Info("Labeler server stopped")
}
