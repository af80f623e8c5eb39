// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package trace

// Recorder accumulates entries during a run. It is not safe for
// concurrent use: the scenario runner drives it from a single
// goroutine, and the clock's lock discipline means waiters never
// record directly.
type Recorder struct {
	entries []Entry
	onEntry func(Entry)
}

// NewRecorder returns an empty recorder. onEntry, if non-nil, is
// called synchronously with each recorded entry; it is how the service
// streams in-flight runs to websocket viewers.
func NewRecorder(onEntry func(Entry)) *Recorder {
	return &Recorder{onEntry: onEntry}
}

// Record appends one entry.
func (r *Recorder) Record(entry Entry) {
	r.entries = append(r.entries, entry)
	if r.onEntry != nil {
		r.onEntry(entry)
	}
}

// Entries returns the recorded entries in order. The returned slice is
// the recorder's own backing store; callers must not mutate it.
func (r *Recorder) Entries() []Entry {
	return r.entries
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	return len(r.entries)
}

// Trace assembles the recorded entries into a Trace with the given
// scenario name and summary.
func (r *Recorder) Trace(scenario string, summary Summary) *Trace {
	return &Trace{
		Scenario: scenario,
		Entries:  r.entries,
		Summary:  summary,
	}
}
