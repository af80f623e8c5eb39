// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// The chronon-trace-service binary runs scenarios on demand over HTTP,
// persists run history, streams live trace entries to websocket
// clients, and exposes Prometheus metrics on a separate listener.
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
	"syscall"
	"time"

	"github.com/chronon-foundation/chronon/cmd/chronon-trace-service/metrics"
	"github.com/chronon-foundation/chronon/lib/clock"
	"github.com/chronon-foundation/chronon/lib/config"
	"github.com/chronon-foundation/chronon/lib/process"
	"github.com/chronon-foundation/chronon/lib/runstore"
	"github.com/chronon-foundation/chronon/lib/stream"
	"github.com/chronon-foundation/chronon/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "configuration file (default: $CHRONON_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("chronon-trace-service %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureStoreDirectory(); err != nil {
		return err
	}
	store, err := runstore.Open(runstore.Config{
		Path:     cfg.Store.Path,
		PoolSize: cfg.Store.PoolSize,
		Clock:    clock.Real(),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer store.Close()

	hub := stream.NewHub(logger)
	hub.CountChanged = metrics.SetWebsocketClients

	// Metrics on a dedicated listener so the run API can be firewalled
	// independently of scraping.
	metricsServer := metrics.NewServer(cfg.Listen.Metrics, logger)
	metricsDone := make(chan error, 1)
	go func() {
		metricsDone <- metricsServer.Start()
	}()

	service := NewService(cfg, store, hub, clock.Real(), logger)
	apiServer := &http.Server{
		Addr:              cfg.Listen.API,
		Handler:           service.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	apiDone := make(chan error, 1)
	go func() {
		logger.Info("trace service listening",
			"addr", cfg.Listen.API,
			"environment", cfg.Environment,
			"store", cfg.Store.Path,
		)
		err := apiServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiDone <- fmt.Errorf("api server: %w", err)
			return
		}
		apiDone <- nil
	}()

	// Block until a shutdown signal arrives or either server fails.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-apiDone:
		return err
	case err := <-metricsDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	if err := <-apiDone; err != nil {
		return err
	}
	return <-metricsDone
}
