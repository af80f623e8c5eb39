// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// jsonlHeader is the first line of a JSONL trace stream, carrying the
// run-level fields so the entry lines stay uniform.
type jsonlHeader struct {
	Scenario string  `json:"scenario"`
	Summary  Summary `json:"summary"`
}

// WriteJSONL writes the trace as line-delimited JSON: a header line
// with the scenario name and summary, then one line per entry. Field
// order within each line is fixed by the struct definitions, so the
// output is byte-stable for a given trace.
func WriteJSONL(w io.Writer, t *Trace) error {
	encoder := json.NewEncoder(w)
	if err := encoder.Encode(jsonlHeader{Scenario: t.Scenario, Summary: t.Summary}); err != nil {
		return fmt.Errorf("writing trace header: %w", err)
	}
	for i, entry := range t.Entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("writing trace entry %d: %w", i, err)
		}
	}
	return nil
}

// ReadJSONL reads a trace previously written by WriteJSONL.
func ReadJSONL(r io.Reader) (*Trace, error) {
	scanner := bufio.NewScanner(r)
	// Entry lines are short; the header can grow with the summary but
	// stays well under the default token limit. Keep the default.

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading trace header: %w", err)
		}
		return nil, fmt.Errorf("reading trace header: empty input")
	}
	var header jsonlHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("parsing trace header: %w", err)
	}

	t := &Trace{Scenario: header.Scenario, Summary: header.Summary}
	for line := 1; scanner.Scan(); line++ {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("parsing trace entry on line %d: %w", line+1, err)
		}
		if _, err := ParseKind(string(entry.Kind)); err != nil {
			return nil, fmt.Errorf("trace entry on line %d: %w", line+1, err)
		}
		t.Entries = append(t.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace entries: %w", err)
	}
	return t, nil
}
