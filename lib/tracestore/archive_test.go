// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package tracestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chronon-foundation/chronon/lib/trace"
)

func archiveTrace() *trace.Trace {
	t := &trace.Trace{
		Scenario: "archive-roundtrip",
		Summary: trace.Summary{
			Timers:   1,
			Wakes:    64,
			Removes:  64,
			Advances: 64,
			Elapsed:  64 * time.Second,
		},
	}
	for i := 0; i < 64; i++ {
		at := time.Duration(i+1) * time.Second
		t.Entries = append(t.Entries,
			trace.Entry{Kind: trace.KindAdvance, At: at},
			trace.Entry{Kind: trace.KindWake, At: at, Timer: "tick", FireTime: at},
			trace.Entry{Kind: trace.KindRemove, At: at, Timer: "tick", FireTime: at},
		)
	}
	return t
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.trace")
	original := archiveTrace()

	if err := Write(path, original, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	restored, err := Read(path, Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	wantDigest, err := original.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	gotDigest, err := restored.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if gotDigest != wantDigest {
		t.Fatalf("archive roundtrip changed the trace: %s vs %s",
			trace.FormatDigest(gotDigest), trace.FormatDigest(wantDigest))
	}
}

func TestArchiveInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.trace")
	original := archiveTrace()

	if err := Write(path, original, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.Scenario != "archive-roundtrip" {
		t.Errorf("Scenario = %q, want %q", info.Scenario, "archive-roundtrip")
	}
	if info.Encrypted {
		t.Error("plaintext archive reported as encrypted")
	}
	if info.ChunkCount < 1 {
		t.Errorf("ChunkCount = %d, want >= 1", info.ChunkCount)
	}
	wantDigest, err := original.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if info.Digest != wantDigest {
		t.Error("header digest does not match the trace digest")
	}
}

func TestArchiveEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.trace")
	original := archiveTrace()

	key, err := NewKeyFromPassphrase([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("NewKeyFromPassphrase: %v", err)
	}
	defer key.Close()

	if err := Write(path, original, Options{Key: key}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if !info.Encrypted {
		t.Fatal("encrypted archive not flagged in header")
	}

	t.Run("no key", func(t *testing.T) {
		if _, err := Read(path, Options{}); !errors.Is(err, ErrEncrypted) {
			t.Fatalf("Read without key: err = %v, want ErrEncrypted", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		wrong, err := NewKeyFromPassphrase([]byte("incorrect donkey fuse cell"))
		if err != nil {
			t.Fatalf("NewKeyFromPassphrase: %v", err)
		}
		defer wrong.Close()
		if _, err := Read(path, Options{Key: wrong}); err == nil {
			t.Fatal("Read with the wrong key succeeded")
		}
	})

	t.Run("right key", func(t *testing.T) {
		// The passphrase slice is consumed (zeroed) by derivation, so
		// build it fresh.
		key2, err := NewKeyFromPassphrase([]byte("correct horse battery staple"))
		if err != nil {
			t.Fatalf("NewKeyFromPassphrase: %v", err)
		}
		defer key2.Close()

		restored, err := Read(path, Options{Key: key2})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		wantDigest, err := original.Digest()
		if err != nil {
			t.Fatalf("Digest: %v", err)
		}
		gotDigest, err := restored.Digest()
		if err != nil {
			t.Fatalf("Digest: %v", err)
		}
		if gotDigest != wantDigest {
			t.Fatal("encrypted roundtrip changed the trace")
		}
	})
}

func TestKeyFromPassphraseZeroesInput(t *testing.T) {
	passphrase := []byte("ephemeral")
	key, err := NewKeyFromPassphrase(passphrase)
	if err != nil {
		t.Fatalf("NewKeyFromPassphrase: %v", err)
	}
	defer key.Close()

	for i, b := range passphrase {
		if b != 0 {
			t.Fatalf("passphrase byte %d not zeroed", i)
		}
	}
}

func TestArchiveTamperDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.trace")
	if err := Write(path, archiveTrace(), Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	// Flip a byte near the end, inside the chunk data.
	data[len(data)-10] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing tampered archive: %v", err)
	}

	if _, err := Read(path, Options{}); err == nil {
		t.Fatal("Read accepted a tampered archive")
	}
}

func TestReadMissingArchive(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.trace"), Options{}); err == nil {
		t.Fatal("Read of a missing file succeeded")
	}
}
