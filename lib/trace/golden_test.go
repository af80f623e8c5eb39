// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TestJSONLGolden pins the exact JSONL export bytes. The export format
// is an interchange surface: changing field names, field order, or the
// header shape breaks downstream tooling, so a byte-level golden
// catches accidental drift. Regenerate with:
//
//	go test ./lib/trace -update
func TestJSONLGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	var buffer bytes.Buffer
	if err := WriteJSONL(&buffer, sampleTrace()); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	g.Assert(t, "jsonl-staggered", buffer.Bytes())
}
