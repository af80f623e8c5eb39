// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall-clock abstraction.
//
// Production code accepts a Clock parameter instead of calling
// time.Now, time.After, time.NewTicker, or time.Sleep directly: Real()
// in production, Fake() in tests. Fake time advances only when the
// test calls Advance, so timer-driven code paths run deterministically.
//
// Use WaitForTimers to block until goroutines have registered their
// timers before advancing:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	service := NewService(fake)
//	go service.Run()
//	fake.WaitForTimers(1)
//	fake.Advance(30 * time.Second)
//
// The virtual timeline for simulation scenarios lives in lib/vclock;
// this package only covers wall-clock concerns of the surrounding
// tooling (timestamps, periodic flushes).
package clock
