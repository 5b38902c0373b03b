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

package main

import (
	"context"
	"flag"
	"fmt"

	"mt5-risk-sync-go/internal/common"
	"mt5-risk-sync-go/internal/config"
	"mt5-risk-sync-go/internal/database"
	"mt5-risk-sync-go/internal/models"

	"go.uber.org/zap"
)

func printAccount(account models.Account, trades int, isLast bool) {
	symbol := common.BoxPrefix(isLast)

	fmt.Printf("%s %-10d %-12s %-14s balance: %12s  equity: %12s  trades: %d\n",
		symbol,
		account.Login,
		account.Status,
		account.ChallengeType,
		account.CurrentBalance.String(),
		account.CurrentEquity.String(),
		trades)
}

func main() {
	loginFlag := flag.Int64("login", 0, "Filter by specific MT5 login (optional)")
	flag.Parse()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	accounts, err := loadAccounts(ctx, dbService, *loginFlag)
	if err != nil {
		logger.Fatal("Failed to load accounts", zap.Error(err))
	}

	common.PrintHeader("CHALLENGE ACCOUNT REPORT", common.DefaultWidth)

	for i, account := range accounts {
		trades, err := dbService.CountTrades(ctx, account.Login)
		if err != nil {
			logger.Error("Failed to count trades",
				zap.Int64("login", account.Login),
				zap.Error(err))
		}
		printAccount(account, trades, i == len(accounts)-1)
	}

	summary := fmt.Sprintf("SUMMARY: %d accounts", len(accounts))
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Account report completed", zap.Int("accounts", len(accounts)))
}

func loadAccounts(ctx context.Context, dbService *database.Service, login int64) ([]models.Account, error) {
	if login != 0 {
		account, err := dbService.GetAccountByLogin(ctx, login)
		if err != nil {
			return nil, err
		}
		return []models.Account{*account}, nil
	}
	return dbService.ListActiveAccounts(ctx)
}
