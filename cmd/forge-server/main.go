// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command forge-server starts the forge dashboard API server.
//
// The dashboard exposes the tracking database (repositories, branches,
// commits, test events) that the forge CLI writes into, so teams can see
// which branches carry generated tests and how generation runs went.
//
// Usage:
//
//	go run ./cmd/forge-server
//	go run ./cmd/forge-server -port 9090
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/dashboard/health
//
//	# Register a repository for tracking
//	curl -X POST http://localhost:8080/v1/dashboard/repositories \
//	  -H "Content-Type: application/json" \
//	  -d '{"local_path": "/path/to/repo"}'
//
//	# List tracked repositories
//	curl http://localhost:8080/v1/dashboard/repositories | jq
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/forgeworks/forge/services/dashboard"
	"github.com/forgeworks/forge/services/store"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Propagate W3C TraceContext from incoming headers through handlers.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if err := setupMetrics(); err != nil {
		slog.Warn("Metrics pipeline unavailable", slog.String("error", err.Error()))
	}

	db, err := openDatabase()
	if err != nil {
		slog.Error("Failed to open tracking database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close tracking database", slog.String("error", err.Error()))
		}
	}()

	handlers := dashboard.NewHandlers(store.New(db))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("forge-dashboard"))
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	dashboard.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down forge dashboard server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Graceful shutdown failed", slog.String("error", err.Error()))
		}
	}()

	printBanner(*port)
	slog.Info("Starting forge dashboard server", slog.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupMetrics bridges the OTel meter provider into the Prometheus default
// registry so instrument recordings show up on /metrics.
func setupMetrics() error {
	exporter, err := otelprom.New()
	if err != nil {
		return err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("forge-dashboard"),
	))
	if err != nil {
		res = resource.Default()
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	return nil
}

// openDatabase opens the shared tracking database. FORGE_DB_DIR overrides
// the default location under the user's home directory, which the CLI
// writes to as well.
func openDatabase() (*store.DB, error) {
	dir := os.Getenv("FORGE_DB_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".forge", "db")
	}

	cfg := store.DefaultConfig()
	cfg.Path = dir
	cfg.Logger = slog.Default()
	return store.OpenDB(cfg)
}

func printBanner(port int) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                     FORGE DASHBOARD SERVER                        ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Tracks repositories, branches, and AI test generation runs.      ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/dashboard/health          │  ║
║  │                                                             │  ║
║  │ # Register a repository                                     │  ║
║  │ curl -X POST http://localhost:%d/v1/dashboard/repositories \│ ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"local_path": "/your/repo/path"}'                    │  ║
║  │                                                             │  ║
║  │ # List repositories                                         │  ║
║  │ curl http://localhost:%d/v1/dashboard/repositories | jq│  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Repositories: list, register, get, delete, scan              ║
║  ├── Branches and commits per repository                          ║
║  ├── Test events per repository                                   ║
║  └── /metrics (Prometheus)                                        ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, port, port, port)
}
