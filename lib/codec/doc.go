// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Chronon's standard CBOR encoding configuration.
//
// Chronon uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: scenario files (JSONC), HTTP API
//     responses, CLI output, the JSONL trace export, and websocket
//     frames.
//   - CBOR for internal canonical forms: trace archive headers and
//     payloads, and any bytes that feed a digest.
//
// This package provides the shared CBOR encoding and decoding modes so
// every package encodes identically without duplicating configuration.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes — which is what
// makes trace digests meaningful as determinism evidence.
//
// For buffer-oriented operations (archives, digests):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR (archive
//     headers, chunk records).
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor` tags
//     are absent, so a single `json` tag controls field naming and
//     omitempty for both formats (trace entries, run summaries).
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract.
package codec
