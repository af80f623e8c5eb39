// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package scenario parses, validates, and runs virtual-time scenario
// files.
//
// Scenarios are authored on disk as JSONC (JSON extended with //
// line comments, /* block comments */, and trailing commas) and
// declare a set of named timers: each has a wait period and may
// repeat or be cancelled partway through the run. The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Scenario
//  2. Scenario.Validate: structural checks (name shape, unique timer
//     ids, non-negative periods)
//  3. NewRunner(...).Run: drive a fresh virtual clock through the
//     declared timers, recording every step as a trace entry
//
// Runs are fully deterministic: timer registration order is file
// order, the clock's tie-break discipline fixes same-instant delivery
// order, and no wall-clock input reaches the run. Identical scenario
// bytes therefore produce identical traces and digests, which is what
// "chronon verify" checks.
package scenario
