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

package syncer

import (
	"context"
	"errors"
	"fmt"

	"mt5-risk-sync-go/internal/checkpoint"
	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/normalize"
	"mt5-risk-sync-go/internal/risk"
	"mt5-risk-sync-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// syncOpenPositions runs the open-positions flow for one group: fetch the
// snapshot, refresh the liveness set, persist the trades, then evaluate
// every account in the group against its drawdown rules.
func (w *Worker) syncOpenPositions(ctx context.Context, group string, refs map[int64]normalize.AccountRef, accounts []models.Account) error {
	raw, err := w.bridge.OpenPositions(ctx, group)
	if err != nil {
		return fmt.Errorf("failed to fetch open positions: %w", err)
	}

	w.refreshLiveTickets(ctx, group, raw)

	trades, skipped := normalize.Trades(raw, refs)
	logSkipped(group, skipped)

	if err := w.store.UpsertTrades(ctx, trades); err != nil {
		return fmt.Errorf("failed to persist open positions: %w", err)
	}

	floating := floatingByLogin(trades)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.batch)
	for _, account := range accounts {
		account := account
		g.Go(func() error {
			if err := w.evaluateAccount(gctx, account, floating[account.Login]); err != nil {
				// One account's failure never blocks the rest of the group.
				zap.L().Error("Account evaluation failed",
					zap.Int64("login", account.Login),
					zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

// refreshLiveTickets atomically replaces the cached set of open tickets for
// the group. Purely advisory, so failures are logged and swallowed.
func (w *Worker) refreshLiveTickets(ctx context.Context, group string, raw []models.BridgeTrade) {
	tickets := make([]int64, 0, len(raw))
	for _, record := range raw {
		if record.Ticket != 0 {
			tickets = append(tickets, record.Ticket)
		}
	}

	if err := w.cache.SetLiveTickets(ctx, group, tickets, w.liveTTL); err != nil {
		zap.L().Warn("Failed to refresh live ticket set",
			zap.String("group", group),
			zap.Error(err))
	}
}

// floatingByLogin sums the floating P/L of open trades per login, including
// commission and swap already charged against the position.
func floatingByLogin(trades []models.Trade) map[int64]decimal.Decimal {
	floating := make(map[int64]decimal.Decimal)
	for _, trade := range trades {
		if trade.IsClosed() {
			continue
		}
		floating[trade.Login] = floating[trade.Login].
			Add(trade.Profit).Add(trade.Commission).Add(trade.Swap)
	}
	return floating
}

// evaluateAccount builds one consistent equity/balance snapshot for the
// account, persists it, and applies the drawdown rules.
func (w *Worker) evaluateAccount(ctx context.Context, account models.Account, floatingPL decimal.Decimal) error {
	balance := account.CurrentBalance
	if snap, ok, err := w.cache.AccountSnapshot(ctx, account.Login); err != nil {
		zap.L().Warn("Account snapshot read failed, using store balance",
			zap.Int64("login", account.Login),
			zap.Error(err))
	} else if ok {
		balance = snap.Balance
	}

	equity := balance.Add(floatingPL)

	if err := w.store.UpdateAccountState(ctx, store.AccountStateParams{
		Login:   account.Login,
		Balance: balance,
		Equity:  equity,
	}); err != nil {
		return fmt.Errorf("failed to update account state: %w", err)
	}

	if err := w.cache.SetAccountSnapshot(ctx, account.Login, checkpoint.Snapshot{
		Balance:     balance,
		ChallengeId: account.Id,
		Status:      string(account.Status),
	}); err != nil {
		zap.L().Warn("Failed to cache account snapshot",
			zap.Int64("login", account.Login),
			zap.Error(err))
	}

	rules := w.rules.Resolve(account.ChallengeType)
	result := risk.Evaluate(risk.Input{
		ChallengeId:      account.Id,
		Login:            account.Login,
		InitialBalance:   account.InitialBalance,
		Balance:          balance,
		Equity:           equity,
		StartOfDayEquity: account.StartOfDayEquity,
	}, rules)

	if !result.IsBreached {
		return nil
	}

	return w.commitBreach(ctx, account, rules, equity, balance, result.Violations)
}

// commitBreach persists a breach in a strict order: violation records first,
// then the status flip, then the cache invalidation. A crash between steps
// leaves an account whose state can be reconciled from the audit trail,
// never a masked breach.
func (w *Worker) commitBreach(ctx context.Context, account models.Account, rules risk.Rules, equity, balance decimal.Decimal, violations []risk.Violation) error {
	for _, violation := range violations {
		_, err := w.store.InsertViolation(ctx, store.ViolationParams{
			ChallengeId:   account.Id,
			Login:         account.Login,
			ViolationType: violation.Type,
			RuleSource:    rules.Source,
			Threshold:     violation.Threshold,
			Observed:      violation.Observed,
			Delta:         violation.Delta,
			Equity:        equity,
			Balance:       balance,
		})
		if err != nil {
			return fmt.Errorf("failed to record violation: %w", err)
		}
	}

	if err := w.store.MarkBreached(ctx, account.Login); err != nil {
		if errors.Is(err, store.ErrTerminalStatus) {
			// Already settled by an earlier cycle or an operator.
			zap.L().Warn("Breach on account already in terminal status",
				zap.Int64("login", account.Login))
			return nil
		}
		return fmt.Errorf("failed to mark account breached: %w", err)
	}

	if err := w.cache.InvalidateStatus(ctx, account.Login, string(models.StatusBreached)); err != nil {
		zap.L().Warn("Failed to invalidate cached status",
			zap.Int64("login", account.Login),
			zap.Error(err))
	}

	zap.L().Info("Account breached",
		zap.Int64("login", account.Login),
		zap.String("challenge_id", account.Id),
		zap.String("equity", equity.String()),
		zap.Int("violations", len(violations)))

	return nil
}

func logSkipped(group string, skipped []normalize.Skipped) {
	for _, skip := range skipped {
		zap.L().Warn("Skipped trade record",
			zap.String("group", group),
			zap.Int64("ticket", skip.Ticket),
			zap.Int64("login", skip.Login),
			zap.String("reason", string(skip.Reason)))
	}
}
