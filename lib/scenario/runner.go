// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"fmt"
	"log/slog"

	"github.com/chronon-foundation/chronon/lib/trace"
	"github.com/chronon-foundation/chronon/lib/vclock"
)

// Runner drives a fresh virtual clock through a scenario's timers and
// records every step. A Runner is single-use: construct, Run once,
// discard.
type Runner struct {
	scenario *Scenario
	clock    *vclock.VirtualClock
	recorder *trace.Recorder
	logger   *slog.Logger

	start  vclock.Instant
	timers []*timerState

	// woken collects the timers notified by the current Advance, in
	// notification order. Appended to by wakeFlag.Wake under the
	// clock's lock, drained by the drive loop between advances.
	woken []*timerState

	summary trace.Summary
}

// timerState tracks one scenario timer across the run.
type timerState struct {
	spec Timer

	// event is the timer's live pending event, nil once consumed or
	// cancelled with no re-arm left.
	event *vclock.Event

	// remaining is how many re-arms the timer has left.
	remaining int

	// cancelAt is the virtual instant at or past which the live
	// event is retracted. Zero period means no cancellation.
	cancelAt    vclock.Instant
	cancellable bool
}

// wakeFlag is the Waiter registered for each timer event. Wake runs
// under the clock's lock: it only appends to the runner's wake list,
// which blocks on nothing and never re-enters the clock.
type wakeFlag struct {
	runner *Runner
	timer  *timerState
}

var _ vclock.Waiter = (*wakeFlag)(nil)

func (w *wakeFlag) Wake() {
	w.runner.woken = append(w.runner.woken, w.timer)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger. The default discards nothing:
// slog.Default() is used.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithOnEntry streams each recorded trace entry to fn as it happens.
// fn is called synchronously from the drive loop.
func WithOnEntry(fn func(trace.Entry)) RunnerOption {
	return func(r *Runner) { r.recorder = trace.NewRecorder(fn) }
}

// NewRunner builds a runner for a validated scenario.
func NewRunner(s *Scenario, options ...RunnerOption) *Runner {
	r := &Runner{
		scenario: s,
		clock:    vclock.NewAtOrigin(),
		recorder: trace.NewRecorder(nil),
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Run executes the scenario and returns its trace. The run registers
// every timer at virtual start in declaration order, then repeatedly
// advances the clock, consuming wakes, re-arming repeating timers, and
// applying due cancellations, until the queue drains or the advance
// budget is exhausted.
func (r *Runner) Run() (*trace.Trace, error) {
	r.start = r.clock.Now()

	if err := r.registerAll(); err != nil {
		return nil, err
	}

	budget := r.scenario.maxAdvances()
	for r.clock.PendingCount() > 0 {
		if r.summary.Advances >= budget {
			r.logger.Warn("advance budget exhausted, stopping run",
				"scenario", r.scenario.Name,
				"max_advances", budget,
				"pending", r.clock.PendingCount())
			break
		}

		r.woken = r.woken[:0]
		r.clock.Advance()
		r.summary.Advances++
		r.record(trace.Entry{Kind: trace.KindAdvance, At: r.clock.Elapsed()})

		if err := r.consumeWakes(); err != nil {
			return nil, err
		}
		if err := r.applyCancellations(); err != nil {
			return nil, err
		}
	}

	r.summary.Timers = len(r.scenario.Timers)
	r.summary.Elapsed = r.clock.Elapsed()
	return r.recorder.Trace(r.scenario.Name, r.summary), nil
}

// registerAll registers every timer at virtual start, in declaration
// order so sequence assignment is deterministic.
func (r *Runner) registerAll() error {
	for _, spec := range r.scenario.Timers {
		state := &timerState{
			spec:      spec,
			remaining: spec.Repeat,
		}
		if spec.CancelAfter > 0 {
			state.cancelAt = r.start.Add(spec.CancelAfter.Std())
			state.cancellable = true
		}
		if err := r.arm(state); err != nil {
			return err
		}
		r.timers = append(r.timers, state)
	}
	return nil
}

// arm registers the timer's next event and records the registration.
func (r *Runner) arm(state *timerState) error {
	event, err := r.clock.AddWaitEvent(state.spec.Period.Std(), &wakeFlag{runner: r, timer: state})
	if err != nil {
		return fmt.Errorf("registering timer %q: %w", state.spec.ID, err)
	}
	state.event = event
	r.record(trace.Entry{
		Kind:     trace.KindRegister,
		At:       r.clock.Elapsed(),
		Timer:    state.spec.ID,
		FireTime: event.FireTime().Sub(r.start),
		Sequence: event.Sequence(),
	})
	return nil
}

// consumeWakes handles every timer notified by the last Advance, in
// notification order: record the wake, consume the event, re-arm when
// repeats remain.
func (r *Runner) consumeWakes() error {
	for _, state := range r.woken {
		event := state.event
		r.summary.Wakes++
		r.record(trace.Entry{
			Kind:     trace.KindWake,
			At:       r.clock.Elapsed(),
			Timer:    state.spec.ID,
			FireTime: event.FireTime().Sub(r.start),
			Sequence: event.Sequence(),
		})

		if err := r.clock.RemoveEvent(event); err != nil {
			return fmt.Errorf("consuming event for timer %q: %w", state.spec.ID, err)
		}
		state.event = nil
		r.summary.Removes++
		r.record(trace.Entry{
			Kind:     trace.KindRemove,
			At:       r.clock.Elapsed(),
			Timer:    state.spec.ID,
			FireTime: event.FireTime().Sub(r.start),
			Sequence: event.Sequence(),
		})

		if state.remaining > 0 {
			state.remaining--
			if err := r.arm(state); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyCancellations retracts live events whose cancel deadline has
// been reached.
func (r *Runner) applyCancellations() error {
	now := r.clock.Now()
	for _, state := range r.timers {
		if !state.cancellable || state.event == nil {
			continue
		}
		if now.Before(state.cancelAt) {
			continue
		}
		event := state.event
		if err := r.clock.RemoveEvent(event); err != nil {
			return fmt.Errorf("cancelling timer %q: %w", state.spec.ID, err)
		}
		state.event = nil
		state.cancellable = false
		r.summary.Cancels++
		r.record(trace.Entry{
			Kind:     trace.KindCancel,
			At:       r.clock.Elapsed(),
			Timer:    state.spec.ID,
			FireTime: event.FireTime().Sub(r.start),
			Sequence: event.Sequence(),
		})
	}
	return nil
}

func (r *Runner) record(entry trace.Entry) {
	r.recorder.Record(entry)
}
