// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace records what happened during a virtual-time run.
//
// A [Trace] is the ordered list of [Entry] values produced while a
// scenario drives a virtual clock: one entry per registration, wake,
// removal, cancellation, and time advance. Because the clock is
// deterministic, identical scenario input produces byte-identical
// canonical traces; [Trace.Digest] hashes the canonical CBOR encoding
// (lib/codec) with a domain-keyed BLAKE3 so two runs can be compared
// by digest alone.
//
// A [Recorder] accumulates entries during a run and optionally streams
// each one to a callback (used for live websocket feeds). JSONL
// export/import ([WriteJSONL], [ReadJSONL]) provides a line-oriented
// interchange format for tooling outside the archive container.
package trace
