// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/chronon-foundation/chronon/lib/codec"
)

// Digest is a 32-byte BLAKE3 digest of a trace's canonical bytes.
type Digest [32]byte

// traceDomainKey is the BLAKE3 key for trace digests. Domain
// separation keeps trace digests from colliding with any other keyed
// hash of the same bytes. The value is the ASCII domain name
// zero-padded to 32 bytes, readable in hex dumps; BLAKE3 keyed mode
// treats it as an opaque key.
var traceDomainKey = [32]byte{
	'c', 'h', 'r', 'o', 'n', 'o', 'n', '.', 't', 'r', 'a', 'c', 'e', '.', 'v', '1',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// CanonicalBytes returns the deterministic CBOR encoding of the trace.
// Identical logical traces always produce identical bytes.
func (t *Trace) CanonicalBytes() ([]byte, error) {
	data, err := codec.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding trace: %w", err)
	}
	return data, nil
}

// Digest returns the keyed BLAKE3 digest of the trace's canonical
// bytes. Two runs with the same digest recorded the same steps.
func (t *Trace) Digest() (Digest, error) {
	data, err := t.CanonicalBytes()
	if err != nil {
		return Digest{}, err
	}
	return digestBytes(data), nil
}

func digestBytes(data []byte) Digest {
	hasher, err := blake3.NewKeyed(traceDomainKey[:])
	if err != nil {
		panic("trace: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// FormatDigest returns the hex-encoded form of a digest. This is the
// canonical format used in run metadata, logs, and CLI output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing trace digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("trace digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// FormatRef returns the short reference for a digest: the "trc-"
// prefix followed by the first 12 hex characters.
func FormatRef(digest Digest) string {
	return "trc-" + hex.EncodeToString(digest[:6])
}
