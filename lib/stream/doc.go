// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream broadcasts trace entries to live websocket viewers.
//
// The trace service runs scenarios on request; while a run is in
// flight, every recorded trace entry is handed to a [Hub], which fans
// it out as JSON to all connected websocket clients. Clients are
// write-only from the hub's point of view — a per-client read loop
// exists solely to notice disconnects and unregister the client.
package stream
