// Package config reads runtime settings from the environment, optionally
// seeded from a .env file, and the operator's peer list from YAML.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/wal"
)

type Config struct {
	Port                string
	LedgerPath          string
	SyncMode            wal.SyncMode
	Recovery            ledger.RecoveryPolicy
	SyncTimeout         time.Duration
	NodeID              string
	PeersFile           string
	Peers               Peers
	LowStockThreshold   int
	ExpiryWarningMonths int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables alone.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "3000"),
		LedgerPath:          getEnv("LEDGER_PATH", "data/ledger.wal"),
		NodeID:              os.Getenv("NODE_ID"),
		PeersFile:           os.Getenv("PEERS_FILE"),
		LowStockThreshold:   20,
		ExpiryWarningMonths: 3,
	}

	var err error
	if cfg.SyncMode, err = wal.ParseSyncMode(os.Getenv("LEDGER_SYNC_MODE")); err != nil {
		return nil, fmt.Errorf("LEDGER_SYNC_MODE: %w", err)
	}
	if cfg.Recovery, err = ledger.ParseRecoveryPolicy(os.Getenv("LEDGER_RECOVERY")); err != nil {
		return nil, fmt.Errorf("LEDGER_RECOVERY: %w", err)
	}

	cfg.SyncTimeout = 5 * time.Second
	if v := os.Getenv("SYNC_TIMEOUT"); v != "" {
		if cfg.SyncTimeout, err = time.ParseDuration(v); err != nil || cfg.SyncTimeout <= 0 {
			return nil, fmt.Errorf("SYNC_TIMEOUT: invalid duration %q", v)
		}
	}

	if cfg.LowStockThreshold, err = getEnvInt("LOW_STOCK_THRESHOLD", cfg.LowStockThreshold); err != nil {
		return nil, err
	}
	if cfg.ExpiryWarningMonths, err = getEnvInt("EXPIRY_WARNING_MONTHS", cfg.ExpiryWarningMonths); err != nil {
		return nil, err
	}

	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}

	if cfg.PeersFile != "" {
		if cfg.Peers, err = LoadPeers(cfg.PeersFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LedgerConfig returns the engine settings.
func (c *Config) LedgerConfig() ledger.Config {
	return ledger.Config{
		Path:     c.LedgerPath,
		SyncMode: c.SyncMode,
		Recovery: c.Recovery,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}
