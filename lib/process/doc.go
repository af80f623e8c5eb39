// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for Chronon
// binaries. These functions centralize the raw I/O that legitimately
// happens before or after the structured logger exists:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit after an unrecoverable error in main().
//
// All other raw output in service binaries should go through the
// structured logger instead.
package process
