// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics registers and records Prometheus metrics for the
// trace service: run execution counters, wake event throughput, run
// duration, and websocket client count.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal        prometheus.Counter
	RunsFailed       *prometheus.CounterVec
	WakeEvents       prometheus.Counter
	RunDuration      prometheus.Histogram
	WebsocketClients prometheus.Gauge

	metricsMu         sync.RWMutex
	currentRegisterer prometheus.Registerer = prometheus.DefaultRegisterer
)

func init() {
	resetMetrics(prometheus.DefaultRegisterer)
}

// SetRegisterer sets a new registerer and reinitializes all metrics.
// It returns the previous registerer so it can be restored later.
// Thread-safe; intended for tests that need an isolated registry.
func SetRegisterer(registerer prometheus.Registerer) prometheus.Registerer {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	previous := currentRegisterer

	if currentRegisterer != nil {
		unregisterAll(currentRegisterer)
	}

	currentRegisterer = registerer
	initializeMetrics(registerer)

	return previous
}

func resetMetrics(registerer prometheus.Registerer) {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if currentRegisterer != nil {
		unregisterAll(currentRegisterer)
	}

	currentRegisterer = registerer
	initializeMetrics(registerer)
}

// initializeMetrics creates all metrics using the provided registerer.
// Must be called while holding metricsMu.
func initializeMetrics(registerer prometheus.Registerer) {
	factory := promauto.With(registerer)

	RunsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "runs_total",
			Help: "Total number of scenario runs started",
		},
	)

	RunsFailed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runs_failed_total",
			Help: "Total number of scenario runs that failed",
		},
		[]string{"reason"},
	)

	WakeEvents = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "wake_events_total",
			Help: "Total number of wake notifications delivered across all runs",
		},
	)

	RunDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "run_duration_seconds",
			Help:    "Wall-clock time taken to execute a scenario run",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
	)

	WebsocketClients = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of currently connected websocket stream clients",
		},
	)
}

func unregisterAll(registerer prometheus.Registerer) {
	if RunsTotal != nil {
		registerer.Unregister(RunsTotal)
	}
	if RunsFailed != nil {
		registerer.Unregister(RunsFailed)
	}
	if WakeEvents != nil {
		registerer.Unregister(WakeEvents)
	}
	if RunDuration != nil {
		registerer.Unregister(RunDuration)
	}
	if WebsocketClients != nil {
		registerer.Unregister(WebsocketClients)
	}
}

// RecordRunStarted counts a run the moment it is accepted.
func RecordRunStarted() {
	RunsTotal.Inc()
}

// RecordRunCompleted records a successful run's wall-clock duration
// and wake count.
func RecordRunCompleted(duration time.Duration, wakes int) {
	if duration < 0 {
		duration = 0
	}
	RunDuration.Observe(duration.Seconds())
	if wakes > 0 {
		WakeEvents.Add(float64(wakes))
	}
}

// RecordRunFailed counts a failed run with a reason label.
func RecordRunFailed(reason string) {
	RunsFailed.WithLabelValues(reason).Inc()
}

// SetWebsocketClients publishes the current stream client count.
func SetWebsocketClients(count int) {
	WebsocketClients.Set(float64(count))
}
