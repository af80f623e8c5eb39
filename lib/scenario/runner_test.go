// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"testing"
	"time"

	"github.com/chronon-foundation/chronon/lib/trace"
)

// wakesOf extracts the timer ids of wake entries, in order.
func wakesOf(t *trace.Trace) []string {
	var wakes []string
	for _, entry := range t.Entries {
		if entry.Kind == trace.KindWake {
			wakes = append(wakes, entry.Timer)
		}
	}
	return wakes
}

func TestRunStaggeredOrdering(t *testing.T) {
	// a and b share a fire time and must wake in declaration order;
	// c fires earlier and must wake first.
	s := &Scenario{
		Name: "staggered",
		Timers: []Timer{
			{ID: "a", Period: Duration(10 * time.Millisecond)},
			{ID: "b", Period: Duration(10 * time.Millisecond)},
			{ID: "c", Period: Duration(5 * time.Millisecond)},
		},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	result, err := NewRunner(s).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := wakesOf(result)
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("wakes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wakes = %v, want %v", got, want)
		}
	}

	if result.Summary.Advances != 2 {
		t.Errorf("Advances = %d, want 2", result.Summary.Advances)
	}
	if result.Summary.Elapsed != 10*time.Millisecond {
		t.Errorf("Elapsed = %v, want 10ms", result.Summary.Elapsed)
	}

	// Same-time registrations get dense ascending sequences.
	var sequences []uint64
	for _, entry := range result.Entries {
		if entry.Kind == trace.KindRegister && entry.FireTime == 10*time.Millisecond {
			sequences = append(sequences, entry.Sequence)
		}
	}
	if len(sequences) != 2 || sequences[0] != 0 || sequences[1] != 1 {
		t.Errorf("same-time registration sequences = %v, want [0 1]", sequences)
	}
}

func TestRunRepeat(t *testing.T) {
	s := &Scenario{
		Name: "heartbeat",
		Timers: []Timer{
			{ID: "beat", Period: Duration(50 * time.Millisecond), Repeat: 3},
		},
	}

	result, err := NewRunner(s).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Summary.Wakes != 4 {
		t.Errorf("Wakes = %d, want 4", result.Summary.Wakes)
	}
	if result.Summary.Elapsed != 200*time.Millisecond {
		t.Errorf("Elapsed = %v, want 200ms", result.Summary.Elapsed)
	}

	// Each wake lands one period after the previous.
	var at []time.Duration
	for _, entry := range result.Entries {
		if entry.Kind == trace.KindWake {
			at = append(at, entry.At)
		}
	}
	for i, want := range []time.Duration{50, 100, 150, 200} {
		if at[i] != want*time.Millisecond {
			t.Errorf("wake %d at %v, want %v", i, at[i], want*time.Millisecond)
		}
	}
}

func TestRunCancellation(t *testing.T) {
	// retry would fire at 150ms, but the heartbeat run drags now past
	// retry's 100ms cancel deadline first.
	s := &Scenario{
		Name: "cancel",
		Timers: []Timer{
			{ID: "beat", Period: Duration(50 * time.Millisecond), Repeat: 3},
			{ID: "retry", Period: Duration(150 * time.Millisecond), CancelAfter: Duration(100 * time.Millisecond)},
		},
	}

	result, err := NewRunner(s).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, id := range wakesOf(result) {
		if id == "retry" {
			t.Fatal("cancelled timer still woke")
		}
	}
	if result.Summary.Cancels != 1 {
		t.Errorf("Cancels = %d, want 1", result.Summary.Cancels)
	}

	var cancel *trace.Entry
	for i, entry := range result.Entries {
		if entry.Kind == trace.KindCancel {
			cancel = &result.Entries[i]
		}
	}
	if cancel == nil {
		t.Fatal("no cancel entry recorded")
	}
	if cancel.Timer != "retry" {
		t.Errorf("cancel entry names %q, want %q", cancel.Timer, "retry")
	}
	if cancel.At != 100*time.Millisecond {
		t.Errorf("cancel at %v, want 100ms", cancel.At)
	}
}

func TestRunZeroPeriod(t *testing.T) {
	s := &Scenario{
		Name: "immediate",
		Timers: []Timer{
			{ID: "now", Period: 0},
		},
	}

	result, err := NewRunner(s).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.Wakes != 1 {
		t.Fatalf("Wakes = %d, want 1", result.Summary.Wakes)
	}
	if result.Summary.Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0 (zero-period wake must not move time)", result.Summary.Elapsed)
	}
}

func TestRunDeterministic(t *testing.T) {
	s := &Scenario{
		Name: "deterministic",
		Timers: []Timer{
			{ID: "a", Period: Duration(10 * time.Millisecond), Repeat: 5},
			{ID: "b", Period: Duration(15 * time.Millisecond), Repeat: 3},
			{ID: "c", Period: Duration(30 * time.Millisecond), CancelAfter: Duration(20 * time.Millisecond)},
		},
	}

	first, err := NewRunner(s).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := NewRunner(s).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	firstDigest, err := first.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	secondDigest, err := second.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if firstDigest != secondDigest {
		t.Fatalf("two runs of the same scenario diverged: %s vs %s",
			trace.FormatDigest(firstDigest), trace.FormatDigest(secondDigest))
	}
}

func TestRunAdvanceBudget(t *testing.T) {
	s := &Scenario{
		Name:        "budget",
		MaxAdvances: 5,
		Timers: []Timer{
			{ID: "forever", Period: Duration(time.Millisecond), Repeat: 1000},
		},
	}

	result, err := NewRunner(s).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.Advances != 5 {
		t.Errorf("Advances = %d, want 5 (budget)", result.Summary.Advances)
	}
	if result.Summary.Wakes != 5 {
		t.Errorf("Wakes = %d, want 5", result.Summary.Wakes)
	}
}

func TestRunStreamsEntries(t *testing.T) {
	s := &Scenario{
		Name:   "stream",
		Timers: []Timer{{ID: "once", Period: Duration(time.Millisecond)}},
	}

	var streamed []trace.Entry
	result, err := NewRunner(s, WithOnEntry(func(entry trace.Entry) {
		streamed = append(streamed, entry)
	})).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(streamed) != len(result.Entries) {
		t.Fatalf("streamed %d entries, trace holds %d", len(streamed), len(result.Entries))
	}
	for i := range streamed {
		if streamed[i] != result.Entries[i] {
			t.Fatalf("entry %d: streamed %+v, stored %+v", i, streamed[i], result.Entries[i])
		}
	}
}
