package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Bridge   BridgeConfig
	Sync     SyncConfig
	Cache    CacheConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	SeedDemoAccounts bool
}

// BridgeConfig holds MT5 bridge API settings
type BridgeConfig struct {
	BaseURL      string
	APIKey       string
	FetchTimeout time.Duration
}

// SyncConfig holds sync worker settings
type SyncConfig struct {
	Interval    time.Duration
	SleepFloor  time.Duration
	Lookback    time.Duration
	LivenessTTL time.Duration
	BatchSize   int
	Groups      []string
	RulesFile   string
}

// CacheConfig holds Redis checkpoint cache settings.
// An empty Addr selects the in-memory checkpoint backend.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
}
