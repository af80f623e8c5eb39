// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package vclock

// Waiter is the capability a registered event notifies when its fire
// time is reached.
type Waiter interface {
	// Wake signals that the event's fire time has arrived. It is
	// called with the clock's internal lock held: it must not block,
	// must not suspend, and must not call back into the clock. It may
	// only flag readiness or wake a waiting task through an external
	// mechanism.
	Wake()
}

// Event is a scheduled future wake point. Events are created by
// VirtualClock.AddWaitEvent, are immutable after construction, and are
// identified by pointer for removal.
type Event struct {
	fireTime Instant
	sequence uint64
	waiter   Waiter
}

// FireTime returns the virtual instant at which the event fires.
func (e *Event) FireTime() Instant { return e.fireTime }

// Sequence returns the event's tie-break counter among events sharing
// its fire time. Sequences are dense and ascending within a fire-time
// bucket, in registration order.
func (e *Event) Sequence() uint64 { return e.sequence }

// before reports whether e sorts ahead of other: fire time ascending,
// then sequence ascending.
func (e *Event) before(other *Event) bool {
	if e.fireTime != other.fireTime {
		return e.fireTime < other.fireTime
	}
	return e.sequence < other.sequence
}
