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
	"errors"
	"fmt"

	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) ListActiveAccounts(ctx context.Context) ([]models.Account, error) {
	zap.L().Debug("Querying active accounts")

	rows, err := s.db.QueryContext(ctx, queryListActiveAccounts)
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.Error(err))
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows.Scan)
		if err != nil {
			zap.L().Error("Failed to scan account row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during account row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	zap.L().Debug("Retrieved active accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}

func (s *Service) GetAccountByLogin(ctx context.Context, login int64) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccountByLogin, login).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		zap.L().Error("Failed to query account by login", zap.Int64("login", login), zap.Error(err))
		return nil, fmt.Errorf("unable to query account by login: %w", err)
	}

	return account, nil
}

func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	id := uuid.New().String()

	zap.L().Info("Creating account",
		zap.String("id", id),
		zap.Int64("login", params.Login),
		zap.String("type", params.ChallengeType))

	// A fresh account opens with balance, equity and day anchor all at the
	// initial balance.
	initial := params.InitialBalance.String()
	_, err := s.db.ExecContext(ctx, queryInsertAccount,
		id, params.UserId, params.Login, params.Group, params.ChallengeType,
		initial, initial, initial, initial)
	if err != nil {
		zap.L().Error("Failed to insert account", zap.Int64("login", params.Login), zap.Error(err))
		return nil, fmt.Errorf("unable to insert account: %w", err)
	}

	return s.GetAccountByLogin(ctx, params.Login)
}

func (s *Service) UpdateAccountState(ctx context.Context, params store.AccountStateParams) error {
	result, err := s.db.ExecContext(ctx, queryUpdateAccountState,
		params.Balance.String(), params.Equity.String(), params.Login)
	if err != nil {
		zap.L().Error("Failed to update account state", zap.Int64("login", params.Login), zap.Error(err))
		return fmt.Errorf("unable to update account state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrAccountNotFound
	}

	return nil
}

// MarkBreached flips an active account to breached. An account already in a
// terminal status is left untouched and ErrTerminalStatus is returned, so a
// stale evaluation can never resurrect or re-fail a settled account.
func (s *Service) MarkBreached(ctx context.Context, login int64) error {
	result, err := s.db.ExecContext(ctx, queryMarkBreached, login)
	if err != nil {
		zap.L().Error("Failed to mark account breached", zap.Int64("login", login), zap.Error(err))
		return fmt.Errorf("unable to mark account breached: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		account, err := s.GetAccountByLogin(ctx, login)
		if err != nil {
			return err
		}
		zap.L().Warn("Breach skipped for non-active account",
			zap.Int64("login", login),
			zap.String("status", string(account.Status)))
		return store.ErrTerminalStatus
	}

	zap.L().Info("Account marked breached", zap.Int64("login", login))
	return nil
}

func (s *Service) ResetStartOfDay(ctx context.Context, login int64, equity decimal.Decimal) error {
	result, err := s.db.ExecContext(ctx, queryResetStartOfDay, equity.String(), login)
	if err != nil {
		return fmt.Errorf("unable to reset start-of-day equity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrAccountNotFound
	}

	zap.L().Debug("Start-of-day equity reset",
		zap.Int64("login", login),
		zap.String("equity", equity.String()))
	return nil
}

func scanAccount(scan func(dest ...any) error) (*models.Account, error) {
	var account models.Account
	var initialBalance, currentBalance, currentEquity, startOfDayEquity string

	err := scan(
		&account.Id, &account.UserId, &account.Login, &account.Group,
		&account.ChallengeType, &account.Status,
		&initialBalance, &currentBalance, &currentEquity, &startOfDayEquity,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if account.InitialBalance, err = decimal.NewFromString(initialBalance); err != nil {
		return nil, fmt.Errorf("invalid initial balance %q: %w", initialBalance, err)
	}
	if account.CurrentBalance, err = decimal.NewFromString(currentBalance); err != nil {
		return nil, fmt.Errorf("invalid current balance %q: %w", currentBalance, err)
	}
	if account.CurrentEquity, err = decimal.NewFromString(currentEquity); err != nil {
		return nil, fmt.Errorf("invalid current equity %q: %w", currentEquity, err)
	}
	if account.StartOfDayEquity, err = decimal.NewFromString(startOfDayEquity); err != nil {
		return nil, fmt.Errorf("invalid start-of-day equity %q: %w", startOfDayEquity, err)
	}

	return &account, nil
}
