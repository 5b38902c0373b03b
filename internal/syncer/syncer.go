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

// Package syncer drives the periodic sync and risk-evaluation cycle: pull
// trade data from the bridge, persist it, and evaluate every active account
// against its drawdown rules.
package syncer

import (
	"context"
	"time"

	"mt5-risk-sync-go/internal/checkpoint"
	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/normalize"
	"mt5-risk-sync-go/internal/risk"
	"mt5-risk-sync-go/internal/store"

	"go.uber.org/zap"
)

// Bridge is the read-only trade feed the worker pulls from.
type Bridge interface {
	OpenPositions(ctx context.Context, group string) ([]models.BridgeTrade, error)
	ClosedHistory(ctx context.Context, group string, from, to int64) ([]models.BridgeTrade, error)
}

// WorkerConfig contains the collaborators and settings for a Worker.
type WorkerConfig struct {
	Bridge     Bridge
	Store      store.RiskStore
	Checkpoint checkpoint.Store
	Rules      *risk.RuleSet
	Sync       models.SyncConfig
}

// Worker runs sync cycles on a fixed wall-clock cadence. A single goroutine
// drives cycles, so two cycles never overlap regardless of how long one takes.
type Worker struct {
	bridge   Bridge
	store    store.RiskStore
	cache    checkpoint.Store
	rules    *risk.RuleSet
	interval time.Duration
	floor    time.Duration
	lookback time.Duration
	liveTTL  time.Duration
	batch    int
	groups   []string

	// UTC day of the last start-of-day reset check
	currentDay string

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewWorker(cfg WorkerConfig) *Worker {
	return &Worker{
		bridge:   cfg.Bridge,
		store:    cfg.Store,
		cache:    cfg.Checkpoint,
		rules:    cfg.Rules,
		interval: cfg.Sync.Interval,
		floor:    cfg.Sync.SleepFloor,
		lookback: cfg.Sync.Lookback,
		liveTTL:  cfg.Sync.LivenessTTL,
		batch:    cfg.Sync.BatchSize,
		groups:   cfg.Sync.Groups,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the sync loop.
func (w *Worker) Start(ctx context.Context) {
	zap.L().Info("Starting sync worker",
		zap.Duration("interval", w.interval),
		zap.Duration("lookback", w.lookback),
		zap.Strings("groups", w.groups))

	go w.run(ctx)
}

// Stop gracefully stops the worker, waiting for an in-flight cycle to finish.
func (w *Worker) Stop() {
	zap.L().Info("Stopping sync worker")
	close(w.stopChan)
	<-w.doneChan
	zap.L().Info("Sync worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneChan)

	for {
		started := time.Now()
		w.cycle(ctx)

		select {
		case <-time.After(pause(w.interval, w.floor, time.Since(started))):
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pause returns how long to sleep before the next cycle: the remainder of
// the interval, but never less than the floor so a slow cycle cannot pin
// the bridge with back-to-back requests.
func pause(interval, floor, elapsed time.Duration) time.Duration {
	remaining := interval - elapsed
	if remaining < floor {
		return floor
	}
	return remaining
}

// cycle performs one full pass: start-of-day bookkeeping, then per group the
// open-positions flow and the closed-history flow. Failures are isolated per
// scope; nothing propagates past the cycle boundary.
func (w *Worker) cycle(ctx context.Context) {
	now := time.Now().UTC()

	accounts, err := w.store.ListActiveAccounts(ctx)
	if err != nil {
		zap.L().Error("Failed to list active accounts, skipping cycle", zap.Error(err))
		return
	}

	w.maybeResetStartOfDay(ctx, now, accounts)

	refs := make(map[int64]normalize.AccountRef, len(accounts))
	byGroup := make(map[string][]models.Account)
	for _, account := range accounts {
		refs[account.Login] = normalize.AccountRef{
			ChallengeId: account.Id,
			UserId:      account.UserId,
			Login:       account.Login,
			CreatedAt:   account.CreatedAt,
		}
		byGroup[account.Group] = append(byGroup[account.Group], account)
	}

	for _, group := range w.groups {
		if err := w.syncOpenPositions(ctx, group, refs, byGroup[group]); err != nil {
			zap.L().Error("Open-positions sync failed for group",
				zap.String("group", group),
				zap.Error(err))
		}

		if err := w.syncHistory(ctx, group, refs, now); err != nil {
			zap.L().Error("History sync failed for group",
				zap.String("group", group),
				zap.Error(err))
		}
	}
}

// maybeResetStartOfDay re-anchors every active account's daily drawdown at
// its current equity when the UTC day rolls over. The first cycle after boot
// only records the day; resetting there would erase losses already taken
// earlier in the day.
func (w *Worker) maybeResetStartOfDay(ctx context.Context, now time.Time, accounts []models.Account) {
	day := now.Format("2006-01-02")
	if w.currentDay == "" {
		w.currentDay = day
		return
	}
	if w.currentDay == day {
		return
	}
	w.currentDay = day

	zap.L().Info("UTC day rollover, resetting start-of-day equity",
		zap.String("day", day),
		zap.Int("accounts", len(accounts)))

	for i := range accounts {
		account := &accounts[i]
		if err := w.store.ResetStartOfDay(ctx, account.Login, account.CurrentEquity); err != nil {
			zap.L().Error("Failed to reset start-of-day equity",
				zap.Int64("login", account.Login),
				zap.Error(err))
			continue
		}
		// Keep this cycle's in-memory view consistent with the store.
		account.StartOfDayEquity = account.CurrentEquity
	}
}
