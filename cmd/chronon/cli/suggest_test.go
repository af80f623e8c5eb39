// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"run", "", 3},
		{"", "run", 3},
		{"verify", "verify", 0},
		{"verfy", "verify", 1},
		{"vreify", "verify", 2},
		{"scenario", "trace", 7},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "run"},
		{Name: "verify"},
		{Name: "scenario"},
		{Name: "trace"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"verfy", "verify"},
		{"scenaro", "scenario"},
		{"trce", "trace"},
		{"completely-different", ""},
	}

	for _, tt := range tests {
		if got := suggestCommand(tt.input, commands); got != tt.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String("trace", "", "")
	flagSet.Bool("quiet", false, "")

	if got := suggestFlag([]string{"--trce"}, flagSet); got != "--trace" {
		t.Errorf("suggestFlag(--trce) = %q, want %q", got, "--trace")
	}
	if got := suggestFlag([]string{"--nothing-close-at-all"}, flagSet); got != "" {
		t.Errorf("suggestFlag(far-off) = %q, want empty", got)
	}
	if got := suggestFlag([]string{"positional"}, flagSet); got != "" {
		t.Errorf("suggestFlag(positional) = %q, want empty", got)
	}
}
