/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.RiskStore.
var _ store.RiskStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if cfg.SeedDemoAccounts {
		service.seedDemoAccounts(ctx)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Challenge accounts, one row per MT5 login
	CREATE TABLE IF NOT EXISTS challenges (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		login INTEGER NOT NULL UNIQUE,
		mt5_group TEXT NOT NULL DEFAULT '',
		challenge_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		initial_balance REAL NOT NULL,
		current_balance REAL NOT NULL,
		current_equity REAL NOT NULL,
		start_of_day_equity REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_challenges_login ON challenges(login);
	CREATE INDEX IF NOT EXISTS idx_challenges_status ON challenges(status);

	-- Canonical trades keyed by platform ticket
	CREATE TABLE IF NOT EXISTS trades (
		ticket INTEGER PRIMARY KEY,
		challenge_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		login INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		lots TEXT NOT NULL,
		open_price TEXT NOT NULL,
		close_price TEXT,
		open_time TIMESTAMP NOT NULL,
		close_time TIMESTAMP,
		profit TEXT NOT NULL,
		commission TEXT NOT NULL,
		swap TEXT NOT NULL,
		synced_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_login ON trades(login);
	CREATE INDEX IF NOT EXISTS idx_trades_challenge ON trades(challenge_id);
	CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);

	-- Immutable breach audit records
	CREATE TABLE IF NOT EXISTS risk_violations (
		id TEXT PRIMARY KEY,
		challenge_id TEXT NOT NULL,
		login INTEGER NOT NULL,
		violation_type TEXT NOT NULL,
		rule_source TEXT NOT NULL,
		threshold TEXT NOT NULL,
		observed TEXT NOT NULL,
		delta TEXT NOT NULL,
		equity TEXT NOT NULL,
		balance TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_violations_login ON risk_violations(login);
	CREATE INDEX IF NOT EXISTS idx_violations_created_at ON risk_violations(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Service) seedDemoAccounts(ctx context.Context) {
	demo := []struct {
		login          int64
		group          string
		challengeType  string
		initialBalance decimal.Decimal
	}{
		{100001, "demo\\prime", "prime-100k", decimal.NewFromInt(100000)},
		{100002, "demo\\prime", "prime-50k", decimal.NewFromInt(50000)},
		{100003, "demo\\lite", "lite-10k", decimal.NewFromInt(10000)},
	}

	for _, account := range demo {
		created, err := s.CreateAccount(ctx, store.CreateAccountParams{
			UserId:         fmt.Sprintf("demo-user-%d", account.login),
			Login:          account.login,
			Group:          account.group,
			ChallengeType:  account.challengeType,
			InitialBalance: account.initialBalance,
		})
		if err != nil {
			zap.L().Error("Failed to seed demo account", zap.Int64("login", account.login), zap.Error(err))
			continue
		}
		zap.L().Info("Demo account created",
			zap.String("id", created.Id),
			zap.Int64("login", created.Login),
			zap.String("type", created.ChallengeType))
	}
}
