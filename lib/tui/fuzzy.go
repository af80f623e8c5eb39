// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult holds the outcome of a fuzzy match: the fzf score (zero
// means no match) and the rune positions in the text that matched, for
// highlight rendering.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// FuzzyMatch runs fzf's FuzzyMatchV2 algorithm over a single text with
// a pre-lowercased pattern. Matching is case-insensitive: the text is
// lowercased here, the caller is expected to lowercase the pattern
// once per query rather than once per candidate.
//
// The slab parameter is fzf's scratch allocation arena; passing the
// same slab across calls within one filter pass avoids per-candidate
// allocations. A nil slab is accepted and simply allocates.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	lowered := make([]rune, 0, len(pattern))
	for _, r := range pattern {
		lowered = append(lowered, unicode.ToLower(r))
	}

	// Lowercase rune by rune so match positions still index into the
	// original text.
	loweredText := []rune(text)
	for i, r := range loweredText {
		loweredText[i] = unicode.ToLower(r)
	}

	chars := util.ToChars([]byte(string(loweredText)))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Score: result.Score}
	if positions != nil {
		matched.Positions = *positions
	}
	return matched
}
