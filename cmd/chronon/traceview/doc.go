// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package traceview implements the interactive trace viewer behind
// "chronon trace view". It is a bubbletea program: a scrolling entry
// list colored by entry kind, a fuzzy filter on /, and a detail pane
// for the selected entry.
//
// The viewer is read-only. It operates on a fully decoded
// [trace.Trace]; archive reading, decompression, and decryption happen
// in the command layer before the program starts.
package traceview
