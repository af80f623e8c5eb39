// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"fmt"
	"time"
)

// Kind classifies a trace entry.
type Kind string

// Entry kinds, in the order they typically appear in a run.
const (
	// KindRegister records a timer registering a wake event.
	KindRegister Kind = "register"

	// KindAdvance records a call that moved (or confirmed) virtual
	// time. Advance entries have no timer id.
	KindAdvance Kind = "advance"

	// KindWake records a waiter being notified at its fire time.
	KindWake Kind = "wake"

	// KindRemove records a timer consuming its event after a wake.
	KindRemove Kind = "remove"

	// KindCancel records a timer's event being retracted before it
	// fired.
	KindCancel Kind = "cancel"
)

// ParseKind validates a kind string read from external input.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRegister, KindAdvance, KindWake, KindRemove, KindCancel:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown trace entry kind %q", s)
}

// Entry is one step of a run. All times are virtual durations from the
// clock's start instant, so entries are meaningful without knowing the
// clock's origin.
type Entry struct {
	// Kind classifies the step.
	Kind Kind `cbor:"kind" json:"kind"`

	// At is the virtual elapsed time when the step happened.
	At time.Duration `cbor:"at" json:"at"`

	// Timer is the scenario timer id the step concerns. Empty for
	// advance entries.
	Timer string `cbor:"timer,omitempty" json:"timer,omitempty"`

	// FireTime is the virtual elapsed fire time of the affected
	// event. Zero for advance entries.
	FireTime time.Duration `cbor:"fire_time,omitempty" json:"fire_time,omitempty"`

	// Sequence is the affected event's tie-break counter among
	// events sharing its fire time.
	Sequence uint64 `cbor:"sequence,omitempty" json:"sequence,omitempty"`
}

// Summary holds the counters a run reports when it finishes.
type Summary struct {
	// Timers is the number of scenario timers registered at start.
	Timers int `cbor:"timers" json:"timers"`

	// Wakes is the total number of wake notifications delivered.
	Wakes int `cbor:"wakes" json:"wakes"`

	// Removes counts events consumed by their timers after waking.
	Removes int `cbor:"removes" json:"removes"`

	// Cancels counts events retracted before firing.
	Cancels int `cbor:"cancels" json:"cancels"`

	// Advances is the number of Advance calls the run made.
	Advances int `cbor:"advances" json:"advances"`

	// Elapsed is the final virtual elapsed time of the run.
	Elapsed time.Duration `cbor:"elapsed" json:"elapsed"`
}

// Trace is the complete record of one run.
type Trace struct {
	// Scenario is the scenario name the run executed.
	Scenario string `cbor:"scenario" json:"scenario"`

	// Entries is the ordered step list.
	Entries []Entry `cbor:"entries" json:"entries"`

	// Summary holds the run's counters.
	Summary Summary `cbor:"summary" json:"summary"`
}
