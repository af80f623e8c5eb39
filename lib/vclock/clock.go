// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package vclock

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNegativePeriod is returned by AddWaitEvent for a negative
	// wait period. Zero is valid and schedules a wake at the current
	// virtual time.
	ErrNegativePeriod = errors.New("vclock: negative wait period")

	// ErrNilWaiter is returned by AddWaitEvent when no waiter is
	// supplied.
	ErrNilWaiter = errors.New("vclock: nil waiter")

	// ErrEventNotFound is returned by RemoveEvent for an event that is
	// not in the pending queue. Removal is recoverable rather than
	// fatal: a waiter that races its own cancellation against a wake
	// can treat duplicate removal as benign via errors.Is.
	ErrEventNotFound = errors.New("vclock: event not in pending queue")
)

// VirtualClock is a virtual timeline with a queue of pending wake
// events. Time stands still until Advance is called. Safe for
// concurrent use by multiple goroutines; every operation acquires one
// internal lock, so the sequence of observations is linearizable.
type VirtualClock struct {
	mu sync.Mutex

	// startTime is captured once at construction and never changes.
	// Used only for elapsed-time reporting, never for ordering.
	startTime Instant

	// currentTime is the present virtual instant. Monotonically
	// non-decreasing; mutated only by Advance.
	currentTime Instant

	// pending holds the registered events, physically sorted by
	// (fire time, sequence) ascending at all times.
	pending []*Event
}

// New returns a VirtualClock whose timeline begins at start.
func New(start Instant) *VirtualClock {
	return &VirtualClock{
		startTime:   start,
		currentTime: start,
	}
}

// NewAtOrigin returns a VirtualClock whose timeline begins at the zero
// instant.
func NewAtOrigin() *VirtualClock {
	return New(Origin)
}

// Now returns the current virtual time. Never fails; linearizable with
// respect to Advance.
func (c *VirtualClock) Now() Instant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// Elapsed returns the virtual time that has passed since the clock was
// constructed.
func (c *VirtualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime.Sub(c.startTime)
}

// PendingCount returns the number of registered events that have not
// been removed. Useful for harness and test assertions.
func (c *VirtualClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// AddWaitEvent schedules a wake at the current virtual time plus
// period and returns the created Event so the caller can later remove
// it. The period may be zero; a negative period returns
// ErrNegativePeriod without mutating any state. Registration does not
// advance time and notifies no one.
//
// Events sharing a fire time are assigned dense ascending sequence
// numbers in registration order, so their wake-ups are delivered FIFO.
func (c *VirtualClock) AddWaitEvent(period time.Duration, waiter Waiter) (*Event, error) {
	if period < 0 {
		return nil, fmt.Errorf("wait period %v: %w", period, ErrNegativePeriod)
	}
	if waiter == nil {
		return nil, ErrNilWaiter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	wakeTime := c.currentTime.Add(period)

	// The queue is sorted, so only the greatest element can share the
	// new fire time with a live tail of same-time registrations.
	var sequence uint64
	if last := len(c.pending) - 1; last >= 0 && c.pending[last].fireTime == wakeTime {
		sequence = c.pending[last].sequence + 1
	}

	event := &Event{
		fireTime: wakeTime,
		sequence: sequence,
		waiter:   waiter,
	}

	// Insert at the upper bound: the newest registration sorts after
	// every event it compares equal or prior to, keeping same-time
	// delivery in registration order.
	insertPosition := sort.Search(len(c.pending), func(i int) bool {
		return event.before(c.pending[i])
	})
	c.pending = slices.Insert(c.pending, insertPosition, event)

	return event, nil
}

// RemoveEvent retracts a registered event. This is the only
// cancellation primitive, and the standard way for a waiter to consume
// its event after being notified. Removing an event that is not
// pending returns ErrEventNotFound. Removal preserves the relative
// order of all remaining events.
func (c *VirtualClock) RemoveEvent(event *Event) error {
	if event == nil {
		return ErrEventNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Binary-search to the first event that does not sort ahead of
	// the target, then match by identity across the equal-order run.
	index := sort.Search(len(c.pending), func(i int) bool {
		return !c.pending[i].before(event)
	})
	for ; index < len(c.pending) && !event.before(c.pending[index]); index++ {
		if c.pending[index] == event {
			c.pending = slices.Delete(c.pending, index, index+1)
			return nil
		}
	}
	return fmt.Errorf("event at %v sequence %d: %w", event.fireTime, event.sequence, ErrEventNotFound)
}

// Advance moves the clock to the earliest pending fire time and wakes,
// in order, every event scheduled for exactly that instant. With no
// pending events it is a no-op. If the front of the queue is already
// at the current time (events notified earlier but not yet removed, or
// zero-period registrations), time does not move again but the front
// events are notified.
//
// The time update and the notification scan execute under the clock's
// lock as one atomic step: no other operation observes a half-advanced
// clock. Wake does not remove the event; a waiter that fails to remove
// its event is woken again on the next Advance.
func (c *VirtualClock) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return
	}

	frontTime := c.pending[0].fireTime
	if frontTime.After(c.currentTime) {
		c.currentTime = frontTime
	}

	for _, event := range c.pending {
		if event.fireTime != frontTime {
			// Sorted queue: everything past here is still future.
			break
		}
		event.waiter.Wake()
	}
}
