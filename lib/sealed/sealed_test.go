// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/chronon-foundation/chronon/lib/secret"
)

func TestGenerateKeypair(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Error("private key missing AGE-SECRET-KEY-1 prefix")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", keypair.PublicKey)
	}

	if keypair.PrivateKey.Len() < 20 {
		t.Errorf("private key too short: %d bytes", keypair.PrivateKey.Len())
	}
	if len(keypair.PublicKey) < 20 {
		t.Errorf("PublicKey too short: %d chars", len(keypair.PublicKey))
	}
}

func TestGenerateKeypairUnique(t *testing.T) {
	keypair1, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair1.Close()
	keypair2, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair2.Close()

	if keypair1.PrivateKey.String() == keypair2.PrivateKey.String() {
		t.Error("two generated keypairs have identical private keys")
	}
	if keypair1.PublicKey == keypair2.PublicKey {
		t.Error("two generated keypairs have identical public keys")
	}
}

func TestEncryptDecryptSingleRecipient(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	plaintext := []byte("hello, sealed archive")
	ciphertext, err := Encrypt(plaintext, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// Ciphertext should be valid base64 and differ from the plaintext.
	if _, err := base64.StdEncoding.DecodeString(ciphertext); err != nil {
		t.Errorf("Encrypt() returned invalid base64: %v", err)
	}
	if ciphertext == string(plaintext) {
		t.Error("ciphertext equals plaintext")
	}

	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	defer decrypted.Close()
	if got := string(decrypted.Bytes()); got != "hello, sealed archive" {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}

func TestEncryptDecryptMultipleRecipients(t *testing.T) {
	// A sealed archive handed to a reviewer with an escrow copy.
	reviewer, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer reviewer.Close()
	escrow, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer escrow.Close()

	want := "trace archive bytes for the staggered scenario"
	ciphertext, err := Encrypt([]byte(want), []string{reviewer.PublicKey, escrow.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// Both recipients decrypt independently.
	decryptedByReviewer, err := Decrypt(ciphertext, reviewer.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt(reviewer) error: %v", err)
	}
	defer decryptedByReviewer.Close()
	if got := string(decryptedByReviewer.Bytes()); got != want {
		t.Errorf("Decrypt(reviewer) = %q, want %q", got, want)
	}

	decryptedByEscrow, err := Decrypt(ciphertext, escrow.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt(escrow) error: %v", err)
	}
	defer decryptedByEscrow.Close()
	if got := string(decryptedByEscrow.Bytes()); got != want {
		t.Errorf("Decrypt(escrow) = %q, want %q", got, want)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()
	wrongKeypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer wrongKeypair.Close()

	ciphertext, err := Encrypt([]byte("secret data"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	if _, err := Decrypt(ciphertext, wrongKeypair.PrivateKey); err == nil {
		t.Error("Decrypt() with wrong key should return error")
	}
}

func TestEncryptNoRecipients(t *testing.T) {
	_, err := Encrypt([]byte("data"), nil)
	if err == nil {
		t.Error("Encrypt() with no recipients should return error")
	}
	if !strings.Contains(err.Error(), "at least one recipient") {
		t.Errorf("error = %v, want 'at least one recipient'", err)
	}

	if _, err := Encrypt([]byte("data"), []string{}); err == nil {
		t.Error("Encrypt() with empty recipients should return error")
	}
}

func TestEncryptInvalidRecipientKey(t *testing.T) {
	_, err := Encrypt([]byte("data"), []string{"not-a-valid-key"})
	if err == nil {
		t.Error("Encrypt() with invalid recipient key should return error")
	}
	if !strings.Contains(err.Error(), "parsing recipient key") {
		t.Errorf("error = %v, want 'parsing recipient key'", err)
	}
}

func TestDecryptInvalidPrivateKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()
	ciphertext, err := Encrypt([]byte("data"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	garbage, err := secret.NewFromBytes([]byte("not-a-valid-private-key"))
	if err != nil {
		t.Fatalf("NewFromBytes() error: %v", err)
	}
	defer garbage.Close()

	_, err = Decrypt(ciphertext, garbage)
	if err == nil {
		t.Error("Decrypt() with invalid private key should return error")
	}
	if !strings.Contains(err.Error(), "parsing private key") {
		t.Errorf("error = %v, want 'parsing private key'", err)
	}
}

func TestDecryptInvalidBase64(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	_, err = Decrypt("not-valid-base64!!!", keypair.PrivateKey)
	if err == nil {
		t.Error("Decrypt() with invalid base64 should return error")
	}
	if !strings.Contains(err.Error(), "decoding base64") {
		t.Errorf("error = %v, want 'decoding base64'", err)
	}
}

func TestDecryptCorruptedCiphertext(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	// Valid base64 but not valid age ciphertext.
	corruptedBase64 := base64.StdEncoding.EncodeToString([]byte("this is not age ciphertext"))

	if _, err := Decrypt(corruptedBase64, keypair.PrivateKey); err == nil {
		t.Error("Decrypt() with corrupted ciphertext should return error")
	}
}

func TestEncryptDecryptLargePlaintext(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	// The size of a multi-chunk trace archive.
	largePlaintext := make([]byte, 64*1024)
	for i := range largePlaintext {
		largePlaintext[i] = byte(i % 256)
	}

	ciphertext, err := Encrypt(largePlaintext, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt(large) error: %v", err)
	}

	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt(large) error: %v", err)
	}
	defer decrypted.Close()

	got := decrypted.Bytes()
	if len(got) != len(largePlaintext) {
		t.Fatalf("Decrypt(large) length = %d, want %d", len(got), len(largePlaintext))
	}
	for i := range got {
		if got[i] != byte(i%256) {
			t.Errorf("Decrypt(large) byte %d = %d, want %d", i, got[i], byte(i%256))
			break
		}
	}
}

func TestParsePublicKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey(valid) error: %v", err)
	}
	if err := ParsePublicKey("not-a-valid-key"); err == nil {
		t.Error("ParsePublicKey(invalid) should return error")
	}
	if err := ParsePublicKey(""); err == nil {
		t.Error("ParsePublicKey(empty) should return error")
	}
}

func TestParsePrivateKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	if err := ParsePrivateKey(keypair.PrivateKey); err != nil {
		t.Errorf("ParsePrivateKey(valid) error: %v", err)
	}

	garbage, err := secret.NewFromBytes([]byte("not-a-valid-key"))
	if err != nil {
		t.Fatalf("NewFromBytes() error: %v", err)
	}
	defer garbage.Close()
	if err := ParsePrivateKey(garbage); err == nil {
		t.Error("ParsePrivateKey(invalid) should return error")
	}
}

func TestKeypairCloseIdempotent(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}

	if err := keypair.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := keypair.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
