package storage

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	plaintext := []byte("feature matrix artifact payload")

	encrypted, err := EncryptGCM(plaintext, "s3cret")
	if err != nil {
		t.Fatalf("EncryptGCM: %v", err)
	}
	if !bytes.HasPrefix(encrypted, []byte("GCM3NCR0")) {
		t.Errorf("encrypted payload missing magic prefix")
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Errorf("ciphertext contains plaintext")
	}

	decrypted, err := DecryptGCM(encrypted, "s3cret")
	if err != nil {
		t.Fatalf("DecryptGCM: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("roundtrip mismatch: got %q", decrypted)
	}
}

func TestDecryptWrongSecret(t *testing.T) {
	encrypted, err := EncryptGCM([]byte("data"), "right")
	if err != nil {
		t.Fatalf("EncryptGCM: %v", err)
	}
	if _, err := DecryptGCM(encrypted, "wrong"); err == nil {
		t.Errorf("expected error with wrong secret")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	encrypted, err := EncryptGCM([]byte("data"), "secret")
	if err != nil {
		t.Fatalf("EncryptGCM: %v", err)
	}
	encrypted[len(encrypted)-1] ^= 0xff
	if _, err := DecryptGCM(encrypted, "secret"); err == nil {
		t.Errorf("expected error for tampered ciphertext")
	}
}

func TestDecryptRejectsShortAndUnknownData(t *testing.T) {
	if _, err := DecryptGCM([]byte("short"), "secret"); err == nil {
		t.Errorf("expected error for short input")
	}

	junk := []byte(strings.Repeat("x", 64))
	_, err := DecryptGCM(junk, "secret")
	if err == nil || !strings.Contains(err.Error(), "unknown encryption format") {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestEncryptUniqueSaltAndNonce(t *testing.T) {
	a, err := EncryptGCM([]byte("same input"), "secret")
	if err != nil {
		t.Fatalf("EncryptGCM: %v", err)
	}
	b, err := EncryptGCM([]byte("same input"), "secret")
	if err != nil {
		t.Fatalf("EncryptGCM: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Errorf("two encryptions of the same input produced identical output")
	}
}
