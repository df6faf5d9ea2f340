package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradebot/internal/api"
	"tradebot/internal/bot"
	"tradebot/internal/config"
	"tradebot/internal/exchange"
	"tradebot/internal/protection"
	"tradebot/internal/repository"
	"tradebot/internal/strategy"
	"tradebot/internal/types"
	"tradebot/pkg/crypto"
	"tradebot/pkg/utils"
)

func main() {
	configPath := flag.String("config", "user_data/config.toml", "path to the TOML config file")
	encryptSecret := flag.String("encrypt-secret", "", "encrypt this value with CONFIG_ENCRYPTION_KEY and print it for storage in exchange.secret, then exit")
	flag.Parse()

	if *encryptSecret != "" {
		if err := runEncryptSecret(*encryptSecret); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encrypt secret: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitLogger(utils.LogConfig{Level: cfg.Log.Level})
	utils.SetGlobalLogger(logger)
	defer logger.Logger.Sync()

	repo, err := repository.Open(cfg.Database.Path)
	if err != nil {
		logger.Logger.Fatal("failed to open repository", utils.Err(err))
	}
	defer repo.Close()

	exch, err := exchange.New(cfg.Exchange.Name, cfg.Exchange.Key, cfg.Exchange.Secret)
	if err != nil {
		logger.Logger.Fatal("failed to build exchange adapter", utils.Err(err))
	}

	tf := types.Timeframe(cfg.Strategy.Timeframe)
	if !tf.Valid() {
		logger.Logger.Fatal("unrecognized strategy timeframe", utils.String("timeframe", cfg.Strategy.Timeframe))
	}
	strat := buildStrategy(cfg, tf)

	protections := buildProtections()

	coordinator := bot.NewCoordinator(cfg, exch, strat, repo, protections)

	var server *http.Server
	if cfg.APIServer.Enabled {
		router := api.SetupRoutes(&api.Dependencies{
			Coordinator: coordinator,
			Repository:  repo,
			Protections: protections,
			Strategy:    strat,
		})
		server = &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.APIServer.ListenIP, cfg.APIServer.ListenPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			utils.Info("command surface listening", utils.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Logger.Fatal("command surface failed", utils.Err(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := coordinator.Start(ctx); err != nil {
		logger.Logger.Fatal("failed to start coordinator", utils.Err(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Info("shutting down")
	cancel()
	_ = coordinator.Stop()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			utils.Error("command surface did not shut down cleanly", utils.Err(err))
		}
	}

	utils.Info("shutdown complete")
}

// runEncryptSecret implements the --encrypt-secret operator tool: it seals
// plaintext with the key the running config would also decrypt with, so an
// operator can populate exchange.secret in a config file without ever
// writing the plaintext credential to disk.
func runEncryptSecret(plaintext string) error {
	key := os.Getenv("CONFIG_ENCRYPTION_KEY")
	if key == "" {
		return fmt.Errorf("CONFIG_ENCRYPTION_KEY must be set to encrypt a secret")
	}
	ciphertext, err := crypto.EncryptWithKeyString(plaintext, key)
	if err != nil {
		return err
	}
	fmt.Println(ciphertext)
	return nil
}

// buildStrategy always builds SMACrossStrategy, the only one shipped;
// strategy.name is not consulted here. Its fast/slow periods come from
// strategy.params in the config file, defaulting to 10/30.
func buildStrategy(cfg *config.Config, tf types.Timeframe) strategy.Strategy {
	fast := paramInt(cfg.Strategy.Params, "fast_period", 10)
	slow := paramInt(cfg.Strategy.Params, "slow_period", 30)
	return strategy.NewSMACrossStrategy(fast, slow, tf)
}

func paramInt(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// buildProtections wires the full required rule family in registration
// order: cooldown first (fastest to evaluate, most common trigger), then
// low-profit-pairs, max-drawdown, and stoploss-guard.
func buildProtections() *protection.Manager {
	m := protection.NewManager()
	m.Add(protection.NewCooldownPeriod(protection.DefaultCooldownConfig()))
	m.Add(protection.NewLowProfitPairs(protection.DefaultLowProfitConfig()))
	m.Add(protection.NewMaxDrawdownProtection(protection.DefaultMaxDrawdownConfig()))
	m.Add(protection.NewStoplossGuard(protection.DefaultStoplossGuardConfig()))
	return m
}
