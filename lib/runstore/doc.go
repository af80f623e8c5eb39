// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package runstore persists run history in SQLite.
//
// Each completed scenario run is one row: a uuid id, the scenario
// name, the wall-clock start time (stamped with an injected lib/clock
// so tests control it), trace counters, the trace digest, and the
// archived trace bytes. The store is backed by lib/sqlitepool
// (zombiezen.com/go/sqlite with WAL pragmas); the schema is created on
// open.
//
// The store answers "what ran, when, and what did it produce" for the
// CLI's runs commands and the trace service's HTTP API. The archive
// blob lets either reconstruct the full trace without keeping separate
// archive files around.
package runstore
