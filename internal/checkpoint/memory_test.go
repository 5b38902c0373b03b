package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWatermarkMonotonic(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Watermark(ctx, "demo\\prime")
	if err != nil {
		t.Fatalf("Watermark failed: %v", err)
	}
	if ok {
		t.Fatal("Expected no watermark for fresh scope")
	}

	first := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	if err := store.AdvanceWatermark(ctx, "demo\\prime", first); err != nil {
		t.Fatalf("AdvanceWatermark failed: %v", err)
	}

	// A rewind attempt must be ignored
	if err := store.AdvanceWatermark(ctx, "demo\\prime", first.Add(-time.Hour)); err != nil {
		t.Fatalf("AdvanceWatermark failed: %v", err)
	}

	got, ok, err := store.Watermark(ctx, "demo\\prime")
	if err != nil || !ok {
		t.Fatalf("Watermark failed: ok=%v err=%v", ok, err)
	}
	if !got.Equal(first) {
		t.Errorf("Expected watermark %v, got %v", first, got)
	}

	// Forward advance applies
	second := first.Add(15 * time.Second)
	if err := store.AdvanceWatermark(ctx, "demo\\prime", second); err != nil {
		t.Fatalf("AdvanceWatermark failed: %v", err)
	}
	got, _, _ = store.Watermark(ctx, "demo\\prime")
	if !got.Equal(second) {
		t.Errorf("Expected watermark %v, got %v", second, got)
	}
}

func TestWatermarkScopesAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	mark := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	if err := store.AdvanceWatermark(ctx, "demo\\prime", mark); err != nil {
		t.Fatalf("AdvanceWatermark failed: %v", err)
	}

	_, ok, err := store.Watermark(ctx, "demo\\lite")
	if err != nil {
		t.Fatalf("Watermark failed: %v", err)
	}
	if ok {
		t.Error("Expected other scope to have no watermark")
	}
}

func TestAccountSnapshotRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.AccountSnapshot(ctx, 5001)
	if err != nil {
		t.Fatalf("AccountSnapshot failed: %v", err)
	}
	if ok {
		t.Fatal("Expected miss for unknown login")
	}

	snap := Snapshot{
		Balance:     decimal.NewFromInt(98000),
		ChallengeId: "ch-1",
		Status:      "active",
	}
	if err := store.SetAccountSnapshot(ctx, 5001, snap); err != nil {
		t.Fatalf("SetAccountSnapshot failed: %v", err)
	}

	got, ok, err := store.AccountSnapshot(ctx, 5001)
	if err != nil || !ok {
		t.Fatalf("AccountSnapshot failed: ok=%v err=%v", ok, err)
	}
	if !got.Balance.Equal(snap.Balance) || got.ChallengeId != "ch-1" || got.Status != "active" {
		t.Errorf("Snapshot mismatch: %+v", got)
	}
}

func TestInvalidateStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.SetAccountSnapshot(ctx, 5001, Snapshot{Status: "active", Balance: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("SetAccountSnapshot failed: %v", err)
	}
	if err := store.InvalidateStatus(ctx, 5001, "breached"); err != nil {
		t.Fatalf("InvalidateStatus failed: %v", err)
	}

	got, ok, _ := store.AccountSnapshot(ctx, 5001)
	if !ok {
		t.Fatal("Expected snapshot to survive invalidation")
	}
	if got.Status != "breached" {
		t.Errorf("Expected status breached, got %s", got.Status)
	}
	// The balance field is untouched
	if !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance preserved, got %s", got.Balance)
	}
}

func TestLiveTicketsTTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.SetLiveTickets(ctx, "demo\\prime", []int64{1, 2, 3}, 50*time.Millisecond); err != nil {
		t.Fatalf("SetLiveTickets failed: %v", err)
	}

	tickets, ok := store.LiveTickets("demo\\prime")
	if !ok || len(tickets) != 3 {
		t.Fatalf("Expected 3 live tickets, got %v ok=%v", tickets, ok)
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := store.LiveTickets("demo\\prime"); ok {
		t.Error("Expected live set to expire")
	}

	// Replacement semantics: a new set fully supersedes the old one
	if err := store.SetLiveTickets(ctx, "demo\\prime", []int64{9}, time.Minute); err != nil {
		t.Fatalf("SetLiveTickets failed: %v", err)
	}
	tickets, ok = store.LiveTickets("demo\\prime")
	if !ok || len(tickets) != 1 || tickets[0] != 9 {
		t.Errorf("Expected replaced set [9], got %v", tickets)
	}
}
