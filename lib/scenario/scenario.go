// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// DefaultMaxAdvances is the advance-call budget applied when a
// scenario does not set max_advances. It bounds runaway repeat chains.
const DefaultMaxAdvances = 1024

// namePattern constrains scenario names to lowercase words and
// hyphens, so names are safe in file paths, URLs, and metric labels.
var namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Duration is a time.Duration that marshals as a Go duration string
// ("50ms", "1h30m") in scenario JSON.
type Duration time.Duration

// UnmarshalJSON parses a quoted Go duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("duration must be a string like \"50ms\": %w", err)
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON renders the duration as a quoted Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Timer declares one scheduled waiter in a scenario.
type Timer struct {
	// ID names the timer in trace entries. Unique within a scenario.
	ID string `json:"id"`

	// Period is the wait before each firing. Zero fires at the
	// current virtual time.
	Period Duration `json:"period"`

	// Repeat is how many further times the timer re-arms with the
	// same period after each wake. Zero means fire once.
	Repeat int `json:"repeat,omitempty"`

	// CancelAfter, when positive, retracts the timer's live event at
	// the first advance whose resulting virtual time is at or past
	// this offset from the run start, if the event has not fired.
	CancelAfter Duration `json:"cancel_after,omitempty"`
}

// Scenario is a parsed scenario file.
type Scenario struct {
	// Name identifies the scenario in traces, archives, and the run
	// store. Lowercase words and hyphens.
	Name string `json:"name"`

	// Description is optional markdown shown by "chronon scenario
	// show".
	Description string `json:"description,omitempty"`

	// Timers are registered in declaration order at virtual start.
	Timers []Timer `json:"timers"`

	// MaxAdvances bounds the number of Advance calls the run makes.
	// Zero applies DefaultMaxAdvances.
	MaxAdvances int `json:"max_advances,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Scenario.
func Parse(data []byte) (*Scenario, error) {
	stripped := jsonc.ToJSON(data)

	var s Scenario
	if err := json.Unmarshal(stripped, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}

// ReadFile reads a JSONC scenario file from disk, parses it, and
// validates it. When the file omits "name", the name is derived from
// the file path. Errors carry the file path.
func ReadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = NameFromPath(path)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// NameFromPath derives a scenario name from a file path by stripping
// the directory prefix and the file extension. For example,
// "scenarios/staggered-timeouts.jsonc" returns "staggered-timeouts".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}

// Validate performs structural checks on the scenario. All failures
// are reported together, one error per field.
func (s *Scenario) Validate() error {
	var problems []error

	if s.Name == "" {
		problems = append(problems, errors.New("name: required"))
	} else if !namePattern.MatchString(s.Name) {
		problems = append(problems, fmt.Errorf("name: %q must match %s", s.Name, namePattern))
	}

	if s.MaxAdvances < 0 {
		problems = append(problems, fmt.Errorf("max_advances: %d is negative", s.MaxAdvances))
	}

	seen := make(map[string]bool, len(s.Timers))
	for i, timer := range s.Timers {
		field := fmt.Sprintf("timers[%d]", i)
		if timer.ID == "" {
			problems = append(problems, fmt.Errorf("%s.id: required", field))
		} else if seen[timer.ID] {
			problems = append(problems, fmt.Errorf("%s.id: duplicate id %q", field, timer.ID))
		}
		seen[timer.ID] = true

		if timer.Period < 0 {
			problems = append(problems, fmt.Errorf("%s.period: %v is negative", field, timer.Period.Std()))
		}
		if timer.Repeat < 0 {
			problems = append(problems, fmt.Errorf("%s.repeat: %d is negative", field, timer.Repeat))
		}
		if timer.CancelAfter < 0 {
			problems = append(problems, fmt.Errorf("%s.cancel_after: %v is negative", field, timer.CancelAfter.Std()))
		}
	}

	return errors.Join(problems...)
}

// maxAdvances returns the effective advance budget.
func (s *Scenario) maxAdvances() int {
	if s.MaxAdvances > 0 {
		return s.MaxAdvances
	}
	return DefaultMaxAdvances
}
