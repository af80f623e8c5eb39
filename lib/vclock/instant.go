// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package vclock

import "time"

// Instant is a point on a virtual timeline: a nanosecond count from an
// arbitrary per-clock origin. Instants are strictly ordered and
// monotonic but carry no wall-clock meaning; comparing instants from
// different clocks is not meaningful.
type Instant int64

// Origin is the zero Instant, the conventional start of a virtual
// timeline.
const Origin Instant = 0

// Add returns the instant d after i.
func (i Instant) Add(d time.Duration) Instant {
	return i + Instant(d)
}

// Sub returns the duration from earlier to i. Negative when earlier
// is actually later.
func (i Instant) Sub(earlier Instant) time.Duration {
	return time.Duration(i - earlier)
}

// Before reports whether i precedes other.
func (i Instant) Before(other Instant) bool { return i < other }

// After reports whether i follows other.
func (i Instant) After(other Instant) bool { return i > other }

// String renders the instant as its offset from the origin, using
// duration notation ("1.5s", "2m10s").
func (i Instant) String() string {
	return time.Duration(i).String()
}
