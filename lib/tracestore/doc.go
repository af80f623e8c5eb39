// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracestore reads and writes trace archive files.
//
// An archive is a single-file container for one trace: a deterministic
// CBOR header followed by the trace's canonical CBOR payload, split
// into chunks that are independently compressed (LZ4 or zstd, chosen
// per chunk by a compression probe) and integrity-checked with keyed
// BLAKE3 chunk digests. The header records the trace digest, so a
// reader can verify that the reassembled payload is exactly the trace
// the writer stored.
//
// Archives can optionally be encrypted: each chunk is sealed with
// XChaCha20-Poly1305 under a key derived from a caller passphrase via
// HKDF-SHA256, with the chunk digest bound into the AEAD additional
// authenticated data so chunks cannot be swapped between archives.
// Key material lives in mmap-backed secret.Buffer memory.
//
// Writes are atomic: the archive is assembled in a temp file in the
// destination directory and renamed into place.
package tracestore
