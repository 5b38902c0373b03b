package syncer

import (
	"context"
	"fmt"
	"time"

	"mt5-risk-sync-go/internal/normalize"

	"go.uber.org/zap"
)

// syncHistory runs the closed-history flow for one group: fetch the window
// since the last watermark, persist the trades, and only then advance the
// watermark. A failed window is re-fetched next cycle; the upsert makes the
// redelivery harmless.
func (w *Worker) syncHistory(ctx context.Context, group string, refs map[int64]normalize.AccountRef, now time.Time) error {
	from := now.Add(-w.lookback)
	if last, ok, err := w.cache.Watermark(ctx, group); err != nil {
		zap.L().Warn("Watermark read failed, falling back to lookback window",
			zap.String("group", group),
			zap.Error(err))
	} else if ok {
		from = last
	}

	raw, err := w.bridge.ClosedHistory(ctx, group, from.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to fetch closed history: %w", err)
	}

	trades, skipped := normalize.Trades(raw, refs)
	logSkipped(group, skipped)

	if err := w.store.UpsertTrades(ctx, trades); err != nil {
		return fmt.Errorf("failed to persist closed history: %w", err)
	}

	// An empty window advances too; the bridge confirmed there is nothing
	// in it, so re-reading it would be wasted work.
	if err := w.cache.AdvanceWatermark(ctx, group, now); err != nil {
		zap.L().Warn("Failed to advance watermark",
			zap.String("group", group),
			zap.Error(err))
		return nil
	}

	if len(trades) > 0 {
		zap.L().Info("Closed history synced",
			zap.String("group", group),
			zap.Int("trades", len(trades)),
			zap.Time("from", from),
			zap.Time("to", now))
	}

	return nil
}
