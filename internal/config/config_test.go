package config

import (
	"os"
	"path/filepath"
	"testing"

	"tradebot/pkg/crypto"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Bot.MaxOpenTrades != 3 {
		t.Errorf("MaxOpenTrades = %d, want 3", cfg.Bot.MaxOpenTrades)
	}
	if cfg.Exchange.Name != "binance" {
		t.Errorf("Exchange.Name = %q, want binance", cfg.Exchange.Name)
	}
	if !cfg.Bot.DryRun {
		t.Error("DryRun should default to true")
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "user_data/trades.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[bot]
max_open_trades = 5
stake_currency = "USDT"
stake_amount = 50.0
dry_run = true

[exchange]
name = "binance"

[database]
path = "custom.db"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bot.MaxOpenTrades != 5 {
		t.Errorf("MaxOpenTrades = %d, want 5", cfg.Bot.MaxOpenTrades)
	}
	if cfg.Database.Path != "custom.db" {
		t.Errorf("Database.Path = %q, want custom.db", cfg.Database.Path)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "env-key-1234567890123456")
	t.Setenv("EXCHANGE_API_SECRET", "env-secret-1234567890123456")
	t.Setenv("DATABASE_PATH", "/tmp/env.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Exchange.Key != "env-key-1234567890123456" {
		t.Errorf("Exchange.Key = %q, want env override", cfg.Exchange.Key)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_RejectsLiveRunWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[bot]
dry_run = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject dry_run=false without credentials")
	}
}

func TestLoad_RejectsUnsupportedExchange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[exchange]
name = "kraken"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unsupported exchange name")
	}
}

func TestLoad_RejectsMalformedTradingPair(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[bot]
trading_pairs = ["!!not a symbol!!"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject a malformed trading pair symbol")
	}
}

func TestLoad_DecryptsExchangeSecretAtRest(t *testing.T) {
	key := "01234567890123456789012345678901"
	ciphertext, err := crypto.EncryptWithKeyString("super-secret-value", key)
	if err != nil {
		t.Fatalf("EncryptWithKeyString() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[security]
encryption_key = "` + key + `"

[exchange]
name = "binance"
key = "plaintext-api-key-1234"
secret = "` + ciphertext + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Exchange.Secret != "super-secret-value" {
		t.Errorf("Exchange.Secret = %q, want decrypted plaintext", cfg.Exchange.Secret)
	}
}

func TestLoad_PlaintextEnvSecretOverridesEncryptedFileSecret(t *testing.T) {
	key := "01234567890123456789012345678901"
	ciphertext, err := crypto.EncryptWithKeyString("file-secret-value", key)
	if err != nil {
		t.Fatalf("EncryptWithKeyString() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[security]
encryption_key = "` + key + `"

[exchange]
secret = "` + ciphertext + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EXCHANGE_API_SECRET", "env-secret-1234567890123456")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Exchange.Secret != "env-secret-1234567890123456" {
		t.Errorf("Exchange.Secret = %q, want env override to win", cfg.Exchange.Secret)
	}
}

func TestStrategyTimeframeDuration(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	d, err := cfg.StrategyTimeframeDuration()
	if err != nil {
		t.Fatalf("StrategyTimeframeDuration() error = %v", err)
	}
	if d.Hours() != 1 {
		t.Errorf("duration = %v, want 1h", d)
	}
}
