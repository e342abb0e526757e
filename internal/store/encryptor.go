/**
 * @description
 * AES-GCM encryption for card numbers at rest. The clear sixteen-digit value
 * is encrypted before it is written and decrypted only inside this package;
 * everything above the store sees the masked rendering.
 */

package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// CardEncryptor encrypts and decrypts card numbers with AES-GCM. The
// ciphertext is base64(nonce || sealed) so a single column stores both.
type CardEncryptor struct {
	aead cipher.AEAD
}

// NewCardEncryptor creates a CardEncryptor from a 16-, 24-, or 32-byte key.
func NewCardEncryptor(key []byte) (*CardEncryptor, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &CardEncryptor{aead: aead}, nil
}

// Encrypt seals the given card number.
func (e *CardEncryptor) Encrypt(clear string) (string, error) {
	if clear == "" {
		return "", fmt.Errorf("input data is empty")
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(clear), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (e *CardEncryptor) Decrypt(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(raw) < e.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}

	nonce, sealed := raw[:e.aead.NonceSize()], raw[e.aead.NonceSize():]
	clear, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt card number: %w", err)
	}

	return string(clear), nil
}
