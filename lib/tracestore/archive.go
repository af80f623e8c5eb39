// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package tracestore

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/chronon-foundation/chronon/lib/codec"
	"github.com/chronon-foundation/chronon/lib/trace"
)

// FormatVersion is the archive container format version. Bumped on
// any incompatible change to the header or chunk record layout.
const FormatVersion = 1

// ChunkSize is the payload chunk size. Each chunk is compressed and
// integrity-checked independently, so a corrupt archive fails fast
// without decompressing the whole payload.
const ChunkSize = 256 * 1024

// ChunkDigest is a keyed BLAKE3 digest of a chunk's uncompressed
// bytes.
type ChunkDigest [32]byte

// chunkDomainKey is the BLAKE3 key for chunk digests. ASCII domain
// name zero-padded to 32 bytes; separate from the trace digest domain
// so a chunk digest can never be confused for a trace digest.
var chunkDomainKey = [32]byte{
	'c', 'h', 'r', 'o', 'n', 'o', 'n', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e', '.',
	'c', 'h', 'u', 'n', 'k', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ErrDigestMismatch is returned when an archive's reassembled payload
// does not hash to the digest recorded in its header.
var ErrDigestMismatch = errors.New("tracestore: payload digest does not match archive header")

// ErrEncrypted is returned when Read encounters an encrypted archive
// but was given no key.
var ErrEncrypted = errors.New("tracestore: archive is encrypted and no key was provided")

// header is the first CBOR item in an archive file.
type header struct {
	Version    int       `cbor:"version"`
	Scenario   string    `cbor:"scenario"`
	Digest     string    `cbor:"digest"`
	ChunkCount int       `cbor:"chunk_count"`
	Encrypted  bool      `cbor:"encrypted"`
	CreatedAt  time.Time `cbor:"created_at"`
}

// chunkRecord is one CBOR item per payload chunk, following the
// header.
type chunkRecord struct {
	Compression      uint8  `cbor:"compression"`
	UncompressedSize int    `cbor:"uncompressed_size"`
	Digest           []byte `cbor:"digest"`
	Data             []byte `cbor:"data"`
}

// Options controls archive encryption. A nil Key writes or reads a
// plaintext archive.
type Options struct {
	// Key encrypts each chunk when writing, and decrypts when
	// reading. The key is borrowed: the caller still owns it and
	// must Close it.
	Key *ArchiveKey
}

// Info is the archive metadata surfaced without decoding the payload.
type Info struct {
	Scenario   string
	Digest     trace.Digest
	ChunkCount int
	Encrypted  bool
	CreatedAt  time.Time
}

// Write stores the trace as an archive file at path. The write is
// atomic: the archive is assembled in a temp file in the destination
// directory and renamed into place, so a crash never leaves a partial
// archive behind.
func Write(path string, t *trace.Trace, options Options) error {
	payload, err := t.CanonicalBytes()
	if err != nil {
		return err
	}
	digest, err := t.Digest()
	if err != nil {
		return err
	}

	chunkCount := (len(payload) + ChunkSize - 1) / ChunkSize
	if chunkCount == 0 {
		// A trace always encodes to at least a few bytes, but keep
		// the empty case well-formed.
		chunkCount = 1
	}

	var buffer bytes.Buffer
	encoder := codec.NewEncoder(&buffer)

	err = encoder.Encode(header{
		Version:    FormatVersion,
		Scenario:   t.Scenario,
		Digest:     trace.FormatDigest(digest),
		ChunkCount: chunkCount,
		Encrypted:  options.Key != nil,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding archive header: %w", err)
	}

	for i := 0; i < chunkCount; i++ {
		start := i * ChunkSize
		end := min(start+ChunkSize, len(payload))
		chunk := payload[start:end]

		chunkDigest := hashChunk(chunk)

		compressed, tag, err := CompressChunkAuto(chunk)
		if err != nil {
			return fmt.Errorf("compressing chunk %d: %w", i, err)
		}

		data := compressed
		if options.Key != nil {
			data, err = encryptChunk(compressed, options.Key, chunkDigest)
			if err != nil {
				return fmt.Errorf("encrypting chunk %d: %w", i, err)
			}
		}

		err = encoder.Encode(chunkRecord{
			Compression:      uint8(tag),
			UncompressedSize: len(chunk),
			Digest:           chunkDigest[:],
			Data:             data,
		})
		if err != nil {
			return fmt.Errorf("encoding chunk %d: %w", i, err)
		}
	}

	return writeFileAtomic(path, buffer.Bytes())
}

// Read loads a trace from an archive file, verifying every chunk
// digest and the whole-payload digest against the header.
func Read(path string, options Options) (*trace.Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	decoder := codec.NewDecoder(file)

	var head header
	if err := decoder.Decode(&head); err != nil {
		return nil, fmt.Errorf("decoding archive header: %w", err)
	}
	if head.Version != FormatVersion {
		return nil, fmt.Errorf("archive format version %d is not supported (expected %d)",
			head.Version, FormatVersion)
	}
	if head.Encrypted && options.Key == nil {
		return nil, ErrEncrypted
	}

	wantDigest, err := trace.ParseDigest(head.Digest)
	if err != nil {
		return nil, fmt.Errorf("archive header: %w", err)
	}

	var payload bytes.Buffer
	for i := 0; i < head.ChunkCount; i++ {
		var record chunkRecord
		if err := decoder.Decode(&record); err != nil {
			return nil, fmt.Errorf("decoding chunk %d: %w", i, err)
		}
		if len(record.Digest) != len(ChunkDigest{}) {
			return nil, fmt.Errorf("chunk %d: digest is %d bytes, want %d",
				i, len(record.Digest), len(ChunkDigest{}))
		}
		var chunkDigest ChunkDigest
		copy(chunkDigest[:], record.Digest)

		data := record.Data
		if head.Encrypted {
			data, err = decryptChunk(data, options.Key, chunkDigest)
			if err != nil {
				return nil, fmt.Errorf("decrypting chunk %d: %w", i, err)
			}
		}

		chunk, err := DecompressChunk(data, CompressionTag(record.Compression), record.UncompressedSize)
		if err != nil {
			return nil, fmt.Errorf("decompressing chunk %d: %w", i, err)
		}

		if hashChunk(chunk) != chunkDigest {
			return nil, fmt.Errorf("chunk %d: content does not match its digest %s",
				i, hex.EncodeToString(chunkDigest[:]))
		}

		payload.Write(chunk)
	}

	var t trace.Trace
	if err := codec.Unmarshal(payload.Bytes(), &t); err != nil {
		return nil, fmt.Errorf("decoding trace payload: %w", err)
	}

	gotDigest, err := t.Digest()
	if err != nil {
		return nil, err
	}
	if gotDigest != wantDigest {
		return nil, fmt.Errorf("%w: header %s, payload %s",
			ErrDigestMismatch, trace.FormatDigest(wantDigest), trace.FormatDigest(gotDigest))
	}

	return &t, nil
}

// ReadInfo decodes only the archive header. Used by listing and diag
// tooling that does not need (or cannot decrypt) the payload.
func ReadInfo(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	var head header
	if err := codec.NewDecoder(file).Decode(&head); err != nil {
		return Info{}, fmt.Errorf("decoding archive header: %w", err)
	}
	if head.Version != FormatVersion {
		return Info{}, fmt.Errorf("archive format version %d is not supported (expected %d)",
			head.Version, FormatVersion)
	}
	digest, err := trace.ParseDigest(head.Digest)
	if err != nil {
		return Info{}, fmt.Errorf("archive header: %w", err)
	}
	return Info{
		Scenario:   head.Scenario,
		Digest:     digest,
		ChunkCount: head.ChunkCount,
		Encrypted:  head.Encrypted,
		CreatedAt:  head.CreatedAt,
	}, nil
}

// hashChunk computes the chunk-domain keyed BLAKE3 digest of
// uncompressed chunk bytes.
func hashChunk(data []byte) ChunkDigest {
	hasher, err := blake3.NewKeyed(chunkDomainKey[:])
	if err != nil {
		panic("tracestore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest ChunkDigest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by rename.
func writeFileAtomic(path string, data []byte) error {
	directory := filepath.Dir(path)
	temp, err := os.CreateTemp(directory, ".archive-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	tempPath := temp.Name()

	if _, err := io.Copy(temp, bytes.NewReader(data)); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing temp archive: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming archive into place: %w", err)
	}
	return nil
}
