package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/store"

	"github.com/shopspring/decimal"
)

func testTrade(ticket int64, closed bool) models.Trade {
	openTime := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	trade := models.Trade{
		Ticket:      ticket,
		ChallengeId: "ch-1",
		UserId:      "user1",
		Login:       5001,
		Symbol:      "EURUSD",
		Direction:   models.DirectionBuy,
		Lots:        decimal.NewFromFloat(1.5),
		OpenPrice:   decimal.NewFromFloat(1.085),
		OpenTime:    openTime,
		Profit:      decimal.NewFromFloat(-12.5),
		Commission:  decimal.NewFromFloat(-7),
		Swap:        decimal.Zero,
	}
	if closed {
		closeTime := openTime.Add(time.Hour)
		trade.CloseTime = &closeTime
		trade.ClosePrice = decimal.NewFromFloat(1.090)
		trade.Profit = decimal.NewFromFloat(75)
	}
	return trade
}

func TestUpsertTrades_InsertAndRead(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	err := service.UpsertTrades(ctx, []models.Trade{testTrade(1, false), testTrade(2, true)})
	if err != nil {
		t.Fatalf("UpsertTrades failed: %v", err)
	}

	count, err := service.CountTrades(ctx, 5001)
	if err != nil {
		t.Fatalf("CountTrades failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 trades, got %d", count)
	}

	trades, err := service.GetTradeHistory(ctx, 5001, 10, 0)
	if err != nil {
		t.Fatalf("GetTradeHistory failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(trades))
	}

	for _, trade := range trades {
		if trade.Ticket == 1 && trade.CloseTime != nil {
			t.Error("Expected open trade to have nil close time")
		}
		if trade.Ticket == 2 {
			if trade.CloseTime == nil {
				t.Error("Expected closed trade to have close time")
			}
			if !trade.Profit.Equal(decimal.NewFromFloat(75)) {
				t.Errorf("Expected profit 75, got %s", trade.Profit)
			}
		}
	}
}

func TestUpsertTrades_IdempotentReingest(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	trade := testTrade(1, true)

	if err := service.UpsertTrades(ctx, []models.Trade{trade}); err != nil {
		t.Fatalf("First UpsertTrades failed: %v", err)
	}
	// Replaying the same window must not duplicate rows
	if err := service.UpsertTrades(ctx, []models.Trade{trade}); err != nil {
		t.Fatalf("Second UpsertTrades failed: %v", err)
	}

	count, err := service.CountTrades(ctx, 5001)
	if err != nil {
		t.Fatalf("CountTrades failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 trade after re-ingest, got %d", count)
	}
}

func TestUpsertTrades_OpenToClosedTransition(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()

	if err := service.UpsertTrades(ctx, []models.Trade{testTrade(1, false)}); err != nil {
		t.Fatalf("Open upsert failed: %v", err)
	}
	if err := service.UpsertTrades(ctx, []models.Trade{testTrade(1, true)}); err != nil {
		t.Fatalf("Closed upsert failed: %v", err)
	}

	trades, err := service.GetTradeHistory(ctx, 5001, 10, 0)
	if err != nil {
		t.Fatalf("GetTradeHistory failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(trades))
	}
	if trades[0].CloseTime == nil {
		t.Fatal("Expected trade to transition to closed")
	}
	if !trades[0].ClosePrice.Equal(decimal.NewFromFloat(1.090)) {
		t.Errorf("Expected close price 1.09, got %s", trades[0].ClosePrice)
	}
}

func TestUpsertTrades_DuplicateInBatch(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := service.UpsertTrades(context.Background(), []models.Trade{testTrade(1, false), testTrade(1, true)})
	if !errors.Is(err, store.ErrDuplicateTicket) {
		t.Fatalf("Expected ErrDuplicateTicket, got %v", err)
	}

	// The whole batch must roll back
	count, _ := service.CountTrades(context.Background(), 5001)
	if count != 0 {
		t.Errorf("Expected no trades after failed batch, got %d", count)
	}
}

func TestUpsertTrades_EmptyBatch(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	if err := service.UpsertTrades(context.Background(), nil); err != nil {
		t.Errorf("Expected empty batch to be a no-op, got %v", err)
	}
}

func TestInsertAndGetViolations(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	params := store.ViolationParams{
		ChallengeId:   "ch-1",
		Login:         5001,
		ViolationType: "daily_drawdown",
		RuleSource:    "configured",
		Threshold:     decimal.NewFromInt(96000),
		Observed:      decimal.NewFromInt(95500),
		Delta:         decimal.NewFromInt(-500),
		Equity:        decimal.NewFromInt(95500),
		Balance:       decimal.NewFromInt(97000),
	}

	violation, err := service.InsertViolation(ctx, params)
	if err != nil {
		t.Fatalf("InsertViolation failed: %v", err)
	}
	if violation.Id == "" {
		t.Error("Expected generated violation id")
	}

	// Violations accumulate, nothing is overwritten
	if _, err := service.InsertViolation(ctx, params); err != nil {
		t.Fatalf("Second InsertViolation failed: %v", err)
	}

	violations, err := service.GetViolations(ctx, 5001)
	if err != nil {
		t.Fatalf("GetViolations failed: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("Expected 2 violations, got %d", len(violations))
	}
	if violations[0].ViolationType != "daily_drawdown" {
		t.Errorf("Unexpected violation type %s", violations[0].ViolationType)
	}
	if !violations[0].Threshold.Equal(decimal.NewFromInt(96000)) {
		t.Errorf("Expected threshold 96000, got %s", violations[0].Threshold)
	}
}
