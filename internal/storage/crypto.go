package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted artifact layout: magic(8) + salt(16) + nonce(12) + ciphertext + tag(16).
const (
	gcmMagic    = "GCM3NCR0"
	saltSize    = 16
	nonceSize   = 12
	tagSize     = 16
	pbkdf2Iters = 100000
	keySize     = 32
)

func deriveKey(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, pbkdf2Iters, keySize, sha256.New)
}

// EncryptGCM encrypts data with AES-256-GCM under a key derived from
// the secret with PBKDF2-SHA256.
func EncryptGCM(data []byte, secret string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(secret, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	out := make([]byte, 0, len(gcmMagic)+saltSize+nonceSize+len(data)+tagSize)
	out = append(out, gcmMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, data, nil)
	return out, nil
}

// DecryptGCM reverses EncryptGCM. It rejects payloads that do not
// start with the expected magic bytes.
func DecryptGCM(encrypted []byte, secret string) ([]byte, error) {
	if len(encrypted) < len(gcmMagic)+saltSize+nonceSize+tagSize {
		return nil, fmt.Errorf("encrypted data too short: %d bytes", len(encrypted))
	}
	if !bytes.HasPrefix(encrypted, []byte(gcmMagic)) {
		return nil, fmt.Errorf("unknown encryption format")
	}

	salt := encrypted[8:24]
	nonce := encrypted[24:36]
	ciphertext := encrypted[36:]

	block, err := aes.NewCipher(deriveKey(secret, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plaintext, nil
}
