// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package vclock provides a virtual clock with an ordered wake-event
// queue for deterministic time-based testing and simulation.
//
// A VirtualClock owns a virtual "now" and a queue of pending wake
// events. Callers register a wake point some duration in the future
// with AddWaitEvent and drive the clock forward with Advance, which
// moves "now" to the earliest pending fire time and synchronously
// notifies every waiter scheduled for exactly that instant. Simulated
// hours elapse in microseconds of wall time while the relative order
// of timed events is preserved exactly.
//
// # Wiring Pattern
//
// The component that drives a simulation constructs one clock and
// shares it with every participant:
//
//	clock := vclock.NewAtOrigin()
//	event, err := clock.AddWaitEvent(5*time.Second, waiter)
//	// ...
//	clock.Advance() // now = +5s, waiter.Wake() called
//	if err := clock.RemoveEvent(event); err != nil { ... }
//
// # Ordering
//
// Events order by (fire time, sequence) ascending. The sequence number
// breaks ties among events sharing a fire time in FIFO registration
// order, so simultaneous wake-ups are always delivered in the order
// they were scheduled.
//
// # Notification Contract
//
// Waiter.Wake runs while the clock's internal lock is held. A Wake
// implementation must not block, must not suspend, and must not call
// back into the clock; it may only flag readiness or signal an
// external mechanism. Notification does not remove the event: the
// waiter owns removal via RemoveEvent once it has consumed the wake,
// and an event left in place is notified again on the next Advance.
package vclock
