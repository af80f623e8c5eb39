// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chronon-foundation/chronon/cmd/chronon-trace-service/metrics"
	"github.com/chronon-foundation/chronon/lib/clock"
	"github.com/chronon-foundation/chronon/lib/codec"
	"github.com/chronon-foundation/chronon/lib/config"
	"github.com/chronon-foundation/chronon/lib/runstore"
	"github.com/chronon-foundation/chronon/lib/scenario"
	"github.com/chronon-foundation/chronon/lib/stream"
	"github.com/chronon-foundation/chronon/lib/trace"
)

// maxScenarioBytes bounds the request body for run submissions.
const maxScenarioBytes = 1 << 20

// defaultListLimit is the run listing page size when the limit query
// parameter is absent.
const defaultListLimit = 50

// Service is the trace service core: it executes submitted scenarios,
// persists runs, and streams trace entries to websocket clients.
type Service struct {
	config *config.Config
	store  *runstore.Store
	hub    *stream.Hub
	clock  clock.Clock
	logger *slog.Logger
}

// NewService wires the service from its dependencies.
func NewService(cfg *config.Config, store *runstore.Store, hub *stream.Hub, clk clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config: cfg,
		store:  store,
		hub:    hub,
		clock:  clk,
		logger: logger,
	}
}

// Handler returns the run API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/runs", s.handleSubmitRun)
	mux.HandleFunc("GET /api/v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /api/v1/runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
	return mux
}

// runSummary is the JSON shape of one run in API responses. Durations
// are nanoseconds, matching trace entry encoding.
type runSummary struct {
	ID        string        `json:"id"`
	Scenario  string        `json:"scenario"`
	StartedAt time.Time     `json:"started_at"`
	Entries   int           `json:"entries"`
	Wakes     int           `json:"wakes"`
	Elapsed   time.Duration `json:"elapsed"`
	Digest    string        `json:"digest"`
}

func summarizeRun(run *runstore.Run) runSummary {
	return runSummary{
		ID:        run.ID,
		Scenario:  run.Scenario,
		StartedAt: run.StartedAt,
		Entries:   run.Entries,
		Wakes:     run.Wakes,
		Elapsed:   run.Elapsed,
		Digest:    trace.FormatDigest(run.Digest),
	}
}

// submitResponse is the response to a successful run submission.
type submitResponse struct {
	ID      string        `json:"id"`
	Digest  string        `json:"digest"`
	Summary trace.Summary `json:"summary"`
}

// handleSubmitRun parses the request body as a JSONC scenario, checks
// it against the configured limits, executes it on a fresh virtual
// clock, and stores the result. Trace entries are broadcast to
// websocket clients as the run progresses.
func (s *Service) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading request body: %v", err))
		return
	}

	spec, err := scenario.Parse(body)
	if err != nil {
		metrics.RecordRunFailed("parse")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := spec.Validate(); err != nil {
		metrics.RecordRunFailed("invalid")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid scenario: %v", err))
		return
	}
	if err := s.checkLimits(spec); err != nil {
		metrics.RecordRunFailed("limits")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	runID := uuid.NewString()
	metrics.RecordRunStarted()
	started := s.clock.Now()

	runner := scenario.NewRunner(spec,
		scenario.WithLogger(s.logger),
		scenario.WithOnEntry(func(entry trace.Entry) {
			s.hub.Broadcast(stream.Message{
				Run:      runID,
				Scenario: spec.Name,
				Entry:    entry,
			})
		}),
	)

	result, err := runner.Run()
	if err != nil {
		metrics.RecordRunFailed("execution")
		s.logger.Error("run failed", "run", runID, "scenario", spec.Name, "error", err)
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("running scenario: %v", err))
		return
	}
	metrics.RecordRunCompleted(s.clock.Now().Sub(started), result.Summary.Wakes)

	digest, err := result.Digest()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("computing digest: %v", err))
		return
	}
	archive, err := result.CanonicalBytes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("encoding trace: %v", err))
		return
	}

	if _, err := s.store.Put(r.Context(), &runstore.Run{
		ID:        runID,
		Scenario:  result.Scenario,
		StartedAt: started,
		Entries:   len(result.Entries),
		Wakes:     result.Summary.Wakes,
		Elapsed:   result.Summary.Elapsed,
		Digest:    digest,
		Archive:   archive,
	}); err != nil {
		s.logger.Error("storing run", "run", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "storing run")
		return
	}

	s.logger.Info("run completed",
		"run", runID,
		"scenario", result.Scenario,
		"wakes", result.Summary.Wakes,
		"elapsed", result.Summary.Elapsed,
		"digest", trace.FormatRef(digest),
	)

	writeJSON(w, http.StatusCreated, submitResponse{
		ID:      runID,
		Digest:  trace.FormatDigest(digest),
		Summary: result.Summary,
	})
}

func (s *Service) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs")
		return
	}

	summaries := make([]runSummary, len(runs))
	for i := range runs {
		summaries[i] = summarizeRun(&runs[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": summaries})
}

// runDetail extends runSummary with the optional inlined trace.
type runDetail struct {
	runSummary
	Trace *trace.Trace `json:"trace,omitempty"`
}

func (s *Service) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, runstore.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
			return
		}
		s.logger.Error("loading run", "run", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading run")
		return
	}

	detail := runDetail{runSummary: summarizeRun(run)}
	if r.URL.Query().Get("trace") == "1" {
		var decoded trace.Trace
		if err := codec.Unmarshal(run.Archive, &decoded); err != nil {
			s.logger.Error("decoding stored trace", "run", id, "error", err)
			writeError(w, http.StatusInternalServerError, "decoding stored trace")
			return
		}
		detail.Trace = &decoded
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Service) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, runstore.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
			return
		}
		s.logger.Error("deleting run", "run", id, "error", err)
		writeError(w, http.StatusInternalServerError, "deleting run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkLimits enforces the configured scenario size bounds. The runner
// applies its own advance budget; the service additionally refuses
// scenarios that declare a budget above the configured ceiling.
func (s *Service) checkLimits(spec *scenario.Scenario) error {
	limits := s.config.Limits
	if len(spec.Timers) > limits.MaxTimers {
		return fmt.Errorf("scenario declares %d timers, limit is %d", len(spec.Timers), limits.MaxTimers)
	}
	if spec.MaxAdvances > limits.MaxAdvances {
		return fmt.Errorf("scenario declares %d max advances, limit is %d", spec.MaxAdvances, limits.MaxAdvances)
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := http.MaxBytesReader(w, r.Body, maxScenarioBytes)
	defer reader.Close()
	return io.ReadAll(reader)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
