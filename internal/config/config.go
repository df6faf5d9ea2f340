package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"tradebot/internal/boterr"
	"tradebot/pkg/crypto"
	"tradebot/pkg/utils"
)

// Config is the full application configuration, loaded from a TOML file
// and then overridden by a small set of environment variables.
type Config struct {
	Bot       BotConfig       `toml:"bot"`
	Exchange  ExchangeConfig  `toml:"exchange"`
	Strategy  StrategyConfig  `toml:"strategy"`
	Database  DatabaseConfig  `toml:"database"`
	APIServer APIServerConfig `toml:"api_server"`
	Log       LogConfig       `toml:"log"`
	Security  SecurityConfig  `toml:"security"`
}

// BotConfig controls the trading coordinator's loop.
type BotConfig struct {
	MaxOpenTrades         int      `toml:"max_open_trades"`
	StakeCurrency         string   `toml:"stake_currency"`
	StakeAmount           float64  `toml:"stake_amount"`
	DryRun                bool     `toml:"dry_run"`
	DryRunWallet          float64  `toml:"dry_run_wallet"`
	ProcessOnlyNewCandles bool     `toml:"process_only_new_candles"`
	Pairs                 []string `toml:"trading_pairs"`
	LotSize               float64  `toml:"lot_size"`
}

// SecurityConfig holds the key used to decrypt exchange.secret at rest.
type SecurityConfig struct {
	EncryptionKey string `toml:"encryption_key"`
}

// ExchangeConfig names the venue adapter and its credentials.
type ExchangeConfig struct {
	Name            string `toml:"name"`
	Key             string `toml:"key"`
	Secret          string `toml:"secret"`
	EnableRateLimit bool   `toml:"enable_rate_limit"`
}

// StrategyConfig selects the strategy implementation and its timeframe.
type StrategyConfig struct {
	Name      string                 `toml:"name"`
	Timeframe string                 `toml:"timeframe"`
	Params    map[string]interface{} `toml:"params"`
}

// DatabaseConfig points at the SQLite file backing the repository.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// APIServerConfig controls the thin HTTP command surface.
type APIServerConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenIP   string `toml:"listen_ip"`
	ListenPort int    `toml:"listen_port"`
}

// LogConfig controls the zap logger wired at startup.
type LogConfig struct {
	Level string `toml:"level"`
}

// defaults gives every section a sane value so a config file may omit any
// section entirely.
func defaults() Config {
	return Config{
		Bot: BotConfig{
			MaxOpenTrades:         3,
			StakeCurrency:         "USDT",
			StakeAmount:           100.0,
			DryRun:                true,
			DryRunWallet:          10000.0,
			ProcessOnlyNewCandles: true,
			LotSize:               0.00001,
		},
		Exchange: ExchangeConfig{
			Name:            "binance",
			EnableRateLimit: true,
		},
		Strategy: StrategyConfig{
			Name:      "SimpleStrategy",
			Timeframe: "1h",
			Params:    map[string]interface{}{},
		},
		Database: DatabaseConfig{
			Path: "user_data/trades.db",
		},
		APIServer: APIServerConfig{
			Enabled:    true,
			ListenIP:   "127.0.0.1",
			ListenPort: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML config file at path (if it exists) on top of the
// built-in defaults, applies CONFIG_ENCRYPTION_KEY over
// security.encryption_key, decrypts exchange.secret if a key is then set,
// and finally applies the remaining environment overrides: EXCHANGE_API_KEY,
// EXCHANGE_API_SECRET, DATABASE_PATH, LOG_LEVEL.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, boterr.Wrapf(boterr.Config, err, "decode config file %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, boterr.Wrapf(boterr.Config, err, "stat config file %s", path)
		}
	}

	cfg.Security.EncryptionKey = getEnv("CONFIG_ENCRYPTION_KEY", cfg.Security.EncryptionKey)
	if err := decryptExchangeSecret(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// decryptExchangeSecret replaces a file-sourced exchange.secret with its
// plaintext before the venue adapter ever sees it. A config without
// security.encryption_key set is assumed to carry a plaintext secret
// already, so existing dry-run fixtures keep working unchanged.
func decryptExchangeSecret(cfg *Config) error {
	if cfg.Security.EncryptionKey == "" || cfg.Exchange.Secret == "" {
		return nil
	}
	plaintext, err := crypto.DecryptWithKeyString(cfg.Exchange.Secret, cfg.Security.EncryptionKey)
	if err != nil {
		return boterr.Wrap(boterr.Config, err, "decrypt exchange.secret")
	}
	cfg.Exchange.Secret = plaintext
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Exchange.Key = getEnv("EXCHANGE_API_KEY", cfg.Exchange.Key)
	cfg.Exchange.Secret = getEnv("EXCHANGE_API_SECRET", cfg.Exchange.Secret)
	cfg.Database.Path = getEnv("DATABASE_PATH", cfg.Database.Path)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

func validate(cfg *Config) error {
	if cfg.Bot.MaxOpenTrades <= 0 {
		return boterr.New(boterr.Config, "bot.max_open_trades must be positive")
	}
	if cfg.Bot.StakeAmount <= 0 {
		return boterr.New(boterr.Config, "bot.stake_amount must be positive")
	}
	if err := utils.ValidateExchange(cfg.Exchange.Name); err != nil {
		return boterr.Wrap(boterr.Config, err, "exchange.name")
	}
	for _, pair := range cfg.Bot.Pairs {
		if err := utils.ValidateSymbol(pair); err != nil {
			return boterr.Wrapf(boterr.Config, err, "bot.trading_pairs %q", pair)
		}
	}
	if cfg.Database.Path == "" {
		return boterr.New(boterr.Config, "database.path is required")
	}
	if !cfg.Bot.DryRun {
		if err := utils.ValidateAPIKey(cfg.Exchange.Key); err != nil {
			return boterr.Wrap(boterr.Config, err, "exchange.key")
		}
		if err := utils.ValidateAPISecret(cfg.Exchange.Secret); err != nil {
			return boterr.Wrap(boterr.Config, err, "exchange.secret")
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// StrategyTimeframeDuration parses the configured strategy timeframe into
// a polling interval floor, used by the coordinator when
// process_only_new_candles is set.
func (c *Config) StrategyTimeframeDuration() (time.Duration, error) {
	d, ok := timeframeDurations[c.Strategy.Timeframe]
	if !ok {
		return 0, boterr.Newf(boterr.Config, "unknown strategy timeframe %q", c.Strategy.Timeframe)
	}
	return d, nil
}

var timeframeDurations = map[string]time.Duration{
	"1m": time.Minute, "3m": 3 * time.Minute, "5m": 5 * time.Minute,
	"15m": 15 * time.Minute, "30m": 30 * time.Minute,
	"1h": time.Hour, "2h": 2 * time.Hour, "4h": 4 * time.Hour,
	"6h": 6 * time.Hour, "8h": 8 * time.Hour, "12h": 12 * time.Hour,
	"1d": 24 * time.Hour, "3d": 72 * time.Hour, "1w": 7 * 24 * time.Hour,
	"1M": 30 * 24 * time.Hour,
}
