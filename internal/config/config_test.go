package config

import (
	"encoding/base64"
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "CARD_EXPIRY_YEARS")
	unsetEnvWithCleanup(t, "CARD_CACHE_TTL_SECONDS")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.CardExpiryYears != 5 {
		t.Fatalf("expected default expiry horizon of 5 years, got %d", cfg.CardExpiryYears)
	}
	if cfg.CardCacheTTLSeconds != 300 {
		t.Fatalf("expected default cache TTL of 300s, got %d", cfg.CardCacheTTLSeconds)
	}
}

func TestLoadConfig_CapsExpiryHorizon(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "CARD_EXPIRY_YEARS", "50")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CardExpiryYears != 20 {
		t.Fatalf("expected expiry horizon capped at 20, got %d", cfg.CardExpiryYears)
	}
}

func TestLoadConfig_PortEnvOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected PORT to take precedence, got %q", cfg.ServerPort)
	}
}

func TestDecodeCardEncryptionKey(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	cfg := Config{CardEncryptionKey: base64.StdEncoding.EncodeToString(key)}

	decoded, err := cfg.DecodeCardEncryptionKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(decoded) != string(key) {
		t.Fatalf("expected decoded key to round-trip, got %q", decoded)
	}

	cfg = Config{CardEncryptionKey: "not base64!!"}
	if _, err := cfg.DecodeCardEncryptionKey(); err == nil {
		t.Fatal("expected error for invalid base64 key")
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
			return
		}
		os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
		}
	})
}
