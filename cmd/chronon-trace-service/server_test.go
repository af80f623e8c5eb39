// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chronon-foundation/chronon/lib/clock"
	"github.com/chronon-foundation/chronon/lib/config"
	"github.com/chronon-foundation/chronon/lib/runstore"
	"github.com/chronon-foundation/chronon/lib/stream"
	"github.com/chronon-foundation/chronon/lib/trace"
)

// staggeredScenario exercises JSONC features: comments and a trailing
// comma survive parsing.
const staggeredScenario = `{
	// two timers with staggered fire times
	"name": "staggered",
	"timers": [
		{"id": "heartbeat", "period": "50ms"},
		{"id": "retry", "period": "150ms"},
	],
}`

func newTestService(t *testing.T, mutate func(*config.Config)) (*Service, http.Handler) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "runs.db")
	if mutate != nil {
		mutate(cfg)
	}

	store, err := runstore.Open(runstore.Config{
		Path:   cfg.Store.Path,
		Clock:  clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hub := stream.NewHub(logger)
	service := NewService(cfg, store, hub,
		clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)), logger)
	return service, service.Handler()
}

func submitRun(t *testing.T, handler http.Handler, body string) submitResponse {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201 (body: %s)", recorder.Code, recorder.Body)
	}
	var response submitResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding submit response: %v", err)
	}
	return response
}

func TestSubmitRun(t *testing.T) {
	_, handler := newTestService(t, nil)

	response := submitRun(t, handler, staggeredScenario)
	if response.ID == "" {
		t.Error("response missing run id")
	}
	if len(response.Digest) != 64 {
		t.Errorf("digest = %q, want 64 hex characters", response.Digest)
	}
	if response.Summary.Wakes != 2 {
		t.Errorf("wakes = %d, want 2", response.Summary.Wakes)
	}
	if response.Summary.Elapsed != 150*time.Millisecond {
		t.Errorf("elapsed = %s, want 150ms", response.Summary.Elapsed)
	}
}

func TestSubmitRunDeterministicDigest(t *testing.T) {
	_, handler := newTestService(t, nil)

	first := submitRun(t, handler, staggeredScenario)
	second := submitRun(t, handler, staggeredScenario)
	if first.Digest != second.Digest {
		t.Errorf("digests differ across identical submissions: %s vs %s", first.Digest, second.Digest)
	}
	if first.ID == second.ID {
		t.Error("run ids must be unique per submission")
	}
}

func TestSubmitRunParseError(t *testing.T) {
	_, handler := newTestService(t, nil)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestSubmitRunInvalidScenario(t *testing.T) {
	_, handler := newTestService(t, nil)

	// Missing name and a negative repeat.
	body := `{"timers": [{"id": "a", "period": "1ms", "repeat": -1}]}`
	request := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "name") {
		t.Errorf("error should mention the missing name, got %s", recorder.Body)
	}
}

func TestSubmitRunTimerLimit(t *testing.T) {
	_, handler := newTestService(t, func(cfg *config.Config) {
		cfg.Limits.MaxTimers = 1
	})

	request := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(staggeredScenario))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", recorder.Code)
	}
}

func TestSubmitRunAdvanceLimit(t *testing.T) {
	_, handler := newTestService(t, func(cfg *config.Config) {
		cfg.Limits.MaxAdvances = 10
	})

	body := `{"name": "greedy", "max_advances": 100, "timers": [{"id": "a", "period": "1ms"}]}`
	request := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", recorder.Code)
	}
}

func TestListRuns(t *testing.T) {
	_, handler := newTestService(t, nil)

	submitRun(t, handler, staggeredScenario)
	submitRun(t, handler, staggeredScenario)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var response struct {
		Runs []runSummary `json:"runs"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if len(response.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(response.Runs))
	}
	if response.Runs[0].Scenario != "staggered" {
		t.Errorf("scenario = %q, want staggered", response.Runs[0].Scenario)
	}

	// The limit query parameter caps the page.
	request = httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=1", nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding limited list response: %v", err)
	}
	if len(response.Runs) != 1 {
		t.Errorf("runs = %d with limit=1, want 1", len(response.Runs))
	}
}

func TestListRunsBadLimit(t *testing.T) {
	_, handler := newTestService(t, nil)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=zero", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestGetRunInlinesTrace(t *testing.T) {
	_, handler := newTestService(t, nil)

	submitted := submitRun(t, handler, staggeredScenario)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+submitted.ID+"?trace=1", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var detail struct {
		runSummary
		Trace *trace.Trace `json:"trace"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decoding detail response: %v", err)
	}
	if detail.Digest != submitted.Digest {
		t.Errorf("digest = %s, want %s", detail.Digest, submitted.Digest)
	}
	if detail.Trace == nil {
		t.Fatal("trace not inlined with ?trace=1")
	}
	if len(detail.Trace.Entries) == 0 {
		t.Error("inlined trace has no entries")
	}
	if detail.Trace.Entries[0].Kind != trace.KindRegister {
		t.Errorf("first entry kind = %s, want register", detail.Trace.Entries[0].Kind)
	}

	// Without the query parameter the trace stays out of the payload.
	request = httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+submitted.ID, nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if strings.Contains(recorder.Body.String(), `"trace"`) {
		t.Error("trace inlined without ?trace=1")
	}
}

func TestGetRunNotFound(t *testing.T) {
	_, handler := newTestService(t, nil)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/runs/no-such-run", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", recorder.Code)
	}
}

func TestDeleteRun(t *testing.T) {
	_, handler := newTestService(t, nil)

	submitted := submitRun(t, handler, staggeredScenario)

	request := httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+submitted.ID, nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", recorder.Code)
	}

	request = httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+submitted.ID, nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", recorder.Code)
	}

	request = httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+submitted.ID, nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", recorder.Code)
	}
}

func TestHealth(t *testing.T) {
	_, handler := newTestService(t, nil)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "ok") {
		t.Errorf("body = %s, want ok status", recorder.Body)
	}
}

func TestWebSocketStreamsRunEntries(t *testing.T) {
	service, handler := newTestService(t, nil)

	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// The handshake completes before the hub registers the client;
	// wait for registration so the run's broadcasts reach us.
	deadline := time.Now().Add(5 * time.Second)
	for service.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	response, err := http.Post(server.URL+"/api/v1/runs", "application/json",
		strings.NewReader(staggeredScenario))
	if err != nil {
		t.Fatalf("submitting run: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", response.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading stream message: %v", err)
	}
	var message stream.Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("decoding stream message: %v", err)
	}
	if message.Scenario != "staggered" {
		t.Errorf("scenario = %q, want staggered", message.Scenario)
	}
	if message.Run == "" {
		t.Error("stream message missing run id")
	}
	if message.Entry.Kind != trace.KindRegister {
		t.Errorf("first streamed entry kind = %s, want register", message.Entry.Kind)
	}
}
