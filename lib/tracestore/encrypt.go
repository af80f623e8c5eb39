// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package tracestore

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/chronon-foundation/chronon/lib/secret"
)

// KeySize is the size in bytes of archive encryption keys.
const KeySize = 32

// EncryptedBlobVersion is the version byte prepended to all encrypted
// chunks. Included as additional authenticated data (AAD) in the AEAD
// Seal/Open call, so tampering with the version byte causes
// authentication failure.
const EncryptedBlobVersion byte = 0x01

// EncryptedBlobOverhead is the total byte overhead per encrypted
// chunk: 1 (version) + 24 (XChaCha20-Poly1305 nonce) + 16 (Poly1305
// tag).
const EncryptedBlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfoArchiveKey is the "info" parameter for deriving the archive
// encryption key from a caller passphrase. Changing it invalidates
// every encrypted archive.
var hkdfInfoArchiveKey = []byte("chronon.archive.key.v1")

// ArchiveKey is the symmetric key for an encrypted archive, held in
// mmap-backed guarded memory (locked against swap, excluded from core
// dumps, zeroed on Close).
type ArchiveKey struct {
	buffer *secret.Buffer
}

// NewKeyFromPassphrase derives an archive key from a passphrase via
// HKDF-SHA256. The passphrase slice is zeroed before returning; the
// derived key is the durable copy. The caller must Close the returned
// key when done.
func NewKeyFromPassphrase(passphrase []byte) (*ArchiveKey, error) {
	defer secret.Zero(passphrase)

	reader := hkdf.New(sha256.New, passphrase, nil, hkdfInfoArchiveKey)
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}

	// NewFromBytes copies into mmap and zeros the heap slice.
	buffer, err := secret.NewFromBytes(derived)
	if err != nil {
		return nil, fmt.Errorf("protecting archive key: %w", err)
	}
	return &ArchiveKey{buffer: buffer}, nil
}

// Close zeroes and releases the key memory. Idempotent.
func (key *ArchiveKey) Close() error {
	return key.buffer.Close()
}

// encryptChunk seals compressed chunk bytes with XChaCha20-Poly1305
// and returns the encrypted blob in the standard format:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes (random)] [Ciphertext+Tag: N+16 bytes]
//
// The version byte and the chunk digest are included as AAD: the
// digest binds the ciphertext to its position in this archive's
// payload, so encrypted chunks cannot be swapped between archives (or
// within one) without failing authentication.
func encryptChunk(plaintext []byte, key *ArchiveKey, chunkDigest ChunkDigest) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	aad := buildAAD(EncryptedBlobVersion, chunkDigest)

	output := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	output[0] = EncryptedBlobVersion
	copy(output[1:], nonce[:])

	output = aead.Seal(output, nonce[:], plaintext, aad)
	return output, nil
}

// decryptChunk opens an encrypted chunk produced by encryptChunk. It
// verifies the version byte, extracts the nonce, and authenticates
// the ciphertext against the AAD (version byte + chunk digest).
func decryptChunk(encrypted []byte, key *ArchiveKey, chunkDigest ChunkDigest) ([]byte, error) {
	if len(encrypted) < EncryptedBlobOverhead {
		return nil, fmt.Errorf("encrypted chunk is %d bytes, minimum is %d (version + nonce + tag)",
			len(encrypted), EncryptedBlobOverhead)
	}

	version := encrypted[0]
	if version != EncryptedBlobVersion {
		return nil, fmt.Errorf("encrypted chunk version %d is not supported (expected %d)",
			version, EncryptedBlobVersion)
	}

	nonce := encrypted[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := encrypted[1+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(key.buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	aad := buildAAD(version, chunkDigest)

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("AEAD decryption failed (wrong key, tampered data, or mismatched chunk): %w", err)
	}

	return plaintext, nil
}

// buildAAD constructs the additional authenticated data for AEAD
// operations: the version byte followed by the chunk digest.
func buildAAD(version byte, chunkDigest ChunkDigest) []byte {
	aad := make([]byte, 1+len(chunkDigest))
	aad[0] = version
	copy(aad[1:], chunkDigest[:])
	return aad
}
