package store

import (
	"strings"
	"testing"
)

func TestCardEncryptorRoundTrip(t *testing.T) {
	enc, err := NewCardEncryptor([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sealed, err := enc.Encrypt("4000123412345678")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if strings.Contains(sealed, "4000") || strings.Contains(sealed, "5678") {
		t.Fatalf("ciphertext leaks digits: %q", sealed)
	}

	clear, err := enc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if clear != "4000123412345678" {
		t.Fatalf("expected original number back, got %q", clear)
	}
}

func TestCardEncryptorRejectsBadKeyLength(t *testing.T) {
	if _, err := NewCardEncryptor([]byte("short")); err == nil {
		t.Fatal("expected error for invalid key length")
	}
}

func TestCardEncryptorRejectsForeignCiphertext(t *testing.T) {
	enc, err := NewCardEncryptor([]byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := NewCardEncryptor([]byte("fedcba9876543210"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sealed, err := enc.Encrypt("4000123412345678")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := other.Decrypt(sealed); err == nil {
		t.Fatal("expected decryption under a different key to fail")
	}
}
