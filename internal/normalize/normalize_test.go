package normalize

import (
	"testing"
	"time"

	"mt5-risk-sync-go/internal/models"
)

var accountCreated = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func testAccounts() map[int64]AccountRef {
	return map[int64]AccountRef{
		5001: {ChallengeId: "ch-1", UserId: "u-1", Login: 5001, CreatedAt: accountCreated},
		5002: {ChallengeId: "ch-2", UserId: "u-2", Login: 5002, CreatedAt: accountCreated},
	}
}

func TestTradesNormalization(t *testing.T) {
	openUnix := accountCreated.Add(24 * time.Hour).Unix()
	closeUnix := accountCreated.Add(25 * time.Hour).Unix()

	raw := []models.BridgeTrade{
		{Ticket: 1, Login: 5001, Symbol: "EURUSD", Cmd: 0, Volume: 15000, OpenTime: openUnix, OpenPrice: 1.085, CloseTime: closeUnix, ClosePrice: 1.090, Profit: 75, Commission: -7, Swap: -1.5},
	}

	trades, skipped := Trades(raw, testAccounts())
	if len(skipped) != 0 {
		t.Fatalf("expected no skips, got %+v", skipped)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	trade := trades[0]
	if trade.Direction != models.DirectionBuy {
		t.Errorf("expected buy, got %s", trade.Direction)
	}
	if trade.Lots.String() != "1.5" {
		t.Errorf("expected 1.5 lots, got %s", trade.Lots)
	}
	if trade.ChallengeId != "ch-1" || trade.UserId != "u-1" {
		t.Errorf("account resolution failed: %+v", trade)
	}
	if trade.OpenTime.Location() != time.UTC {
		t.Error("open time not in UTC")
	}
	if trade.CloseTime == nil || trade.CloseTime.Unix() != closeUnix {
		t.Errorf("unexpected close time: %v", trade.CloseTime)
	}
}

func TestOpenTradeHasNilCloseTime(t *testing.T) {
	raw := []models.BridgeTrade{
		{Ticket: 2, Login: 5001, Cmd: 1, Volume: 10000, OpenTime: accountCreated.Add(time.Hour).Unix(), CloseTime: 0},
	}

	trades, _ := Trades(raw, testAccounts())
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].CloseTime != nil {
		t.Errorf("expected nil close time for open trade, got %v", trades[0].CloseTime)
	}
	if trades[0].Direction != models.DirectionSell {
		t.Errorf("expected sell for cmd 1, got %s", trades[0].Direction)
	}
}

func TestSkipReasons(t *testing.T) {
	openUnix := accountCreated.Add(time.Hour).Unix()
	ghostClose := accountCreated.Add(-2 * time.Minute).Unix()

	cases := []struct {
		name   string
		record models.BridgeTrade
		reason SkipReason
	}{
		{"zero ticket", models.BridgeTrade{Ticket: 0, Login: 5001, Cmd: 0, OpenTime: openUnix}, SkipZeroTicket},
		{"unknown login", models.BridgeTrade{Ticket: 3, Login: 9999, Cmd: 0, OpenTime: openUnix}, SkipUnknownLogin},
		{"bad command", models.BridgeTrade{Ticket: 4, Login: 5001, Cmd: 6, OpenTime: openUnix}, SkipBadCommand},
		{"ghost trade", models.BridgeTrade{Ticket: 5, Login: 5001, Cmd: 0, OpenTime: ghostClose - 3600, CloseTime: ghostClose}, SkipGhostTrade},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trades, skipped := Trades([]models.BridgeTrade{tc.record}, testAccounts())
			if len(trades) != 0 {
				t.Fatalf("expected record to be skipped, got %+v", trades)
			}
			if len(skipped) != 1 || skipped[0].Reason != tc.reason {
				t.Errorf("expected skip reason %s, got %+v", tc.reason, skipped)
			}
		})
	}
}

func TestGhostToleranceBoundary(t *testing.T) {
	// Closed exactly at created-60s is kept; one second earlier is a ghost.
	atBoundary := accountCreated.Add(-GhostSkew).Unix()

	raw := []models.BridgeTrade{
		{Ticket: 6, Login: 5001, Cmd: 0, OpenTime: atBoundary - 3600, CloseTime: atBoundary},
		{Ticket: 7, Login: 5001, Cmd: 0, OpenTime: atBoundary - 3600, CloseTime: atBoundary - 1},
	}

	trades, skipped := Trades(raw, testAccounts())
	if len(trades) != 1 || trades[0].Ticket != 6 {
		t.Fatalf("expected only ticket 6 kept, got %+v", trades)
	}
	if len(skipped) != 1 || skipped[0].Ticket != 7 || skipped[0].Reason != SkipGhostTrade {
		t.Errorf("expected ticket 7 skipped as ghost, got %+v", skipped)
	}
}

func TestDedupLastWriteWins(t *testing.T) {
	openUnix := accountCreated.Add(time.Hour).Unix()
	closeUnix := accountCreated.Add(2 * time.Hour).Unix()

	raw := []models.BridgeTrade{
		{Ticket: 10, Login: 5001, Cmd: 0, Volume: 10000, OpenTime: openUnix, Profit: -5},
		{Ticket: 11, Login: 5002, Cmd: 1, Volume: 20000, OpenTime: openUnix},
		{Ticket: 10, Login: 5001, Cmd: 0, Volume: 10000, OpenTime: openUnix, CloseTime: closeUnix, Profit: 42},
	}

	trades, skipped := Trades(raw, testAccounts())
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %+v", skipped)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 deduplicated trades, got %d", len(trades))
	}

	// First-seen order preserved, later payload wins.
	if trades[0].Ticket != 10 || trades[1].Ticket != 11 {
		t.Errorf("expected first-seen order [10 11], got [%d %d]", trades[0].Ticket, trades[1].Ticket)
	}
	if trades[0].Profit.String() != "42" {
		t.Errorf("expected last write to win for ticket 10, got profit %s", trades[0].Profit)
	}
	if trades[0].CloseTime == nil {
		t.Error("expected close time from later record")
	}
}
