// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes Prometheus metrics over HTTP on a dedicated listen
// address, separate from the run API.
type Server struct {
	addr   string
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a metrics HTTP server for the given address. The
// server exposes GET /metrics (the default gatherer) and GET /health.
// A nil logger falls back to slog.Default().
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Server{
		addr:   addr,
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start serves HTTP requests on the configured address, blocking until
// Shutdown is called or the server fails. A graceful shutdown returns
// nil.
func (s *Server) Start() error {
	if err := validateAddress(s.addr); err != nil {
		return fmt.Errorf("metrics address %q: %w", s.addr, err)
	}

	s.logger.Info("metrics server listening", "addr", s.addr)

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, allowing in-flight requests to
// complete within the context's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}

// validateAddress checks that addr is a resolvable host:port before
// attempting to bind.
func validateAddress(addr string) error {
	if addr == "" {
		return errors.New("empty address")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid host:port format: %w", err)
	}
	if port == "" {
		return errors.New("port is required")
	}

	// Empty or wildcard hosts listen on all interfaces.
	if host == "" || host == "0.0.0.0" || host == "::" {
		return nil
	}

	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := net.LookupHost(host); err != nil {
		return fmt.Errorf("cannot resolve host %q: %w", host, err)
	}
	return nil
}
