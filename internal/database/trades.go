package database

import (
	"context"
	"database/sql"
	"fmt"

	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpsertTrades writes a batch of canonical trades in a single transaction.
// Existing tickets are updated in place, so re-ingesting a window is
// idempotent and an open trade transitions to closed on a later pass.
// The caller must pre-deduplicate the batch; a repeated ticket within one
// batch is a caller bug and fails the whole transaction.
func (s *Service) UpsertTrades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(trades))
	for _, trade := range trades {
		if _, dup := seen[trade.Ticket]; dup {
			return fmt.Errorf("%w: ticket %d", store.ErrDuplicateTicket, trade.Ticket)
		}
		seen[trade.Ticket] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			zap.L().Warn("Failed to rollback transaction", zap.Error(err))
		}
	}()

	stmt, err := tx.PrepareContext(ctx, queryUpsertTrade)
	if err != nil {
		return fmt.Errorf("unable to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, trade := range trades {
		var closePrice any
		var closeTime any
		if trade.CloseTime != nil {
			closePrice = trade.ClosePrice.String()
			closeTime = *trade.CloseTime
		}

		_, err := stmt.ExecContext(ctx,
			trade.Ticket, trade.ChallengeId, trade.UserId, trade.Login,
			trade.Symbol, string(trade.Direction),
			trade.Lots.String(), trade.OpenPrice.String(), closePrice,
			trade.OpenTime, closeTime,
			trade.Profit.String(), trade.Commission.String(), trade.Swap.String())
		if err != nil {
			return fmt.Errorf("unable to upsert trade %d: %w", trade.Ticket, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit trade batch: %w", err)
	}

	zap.L().Debug("Upserted trade batch", zap.Int("count", len(trades)))
	return nil
}

func (s *Service) GetTradeHistory(ctx context.Context, login int64, limit, offset int) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTradeHistory, login, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query trade history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan trade row: %w", err)
		}
		trades = append(trades, *trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}

	return trades, nil
}

func (s *Service) CountTrades(ctx context.Context, login int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountTrades, login).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count trades: %w", err)
	}
	return count, nil
}

func scanTrade(rows *sql.Rows) (*models.Trade, error) {
	var trade models.Trade
	var lots, openPrice, profit, commission, swap string
	var closePrice sql.NullString
	var closeTime sql.NullTime

	err := rows.Scan(
		&trade.Ticket, &trade.ChallengeId, &trade.UserId, &trade.Login,
		&trade.Symbol, &trade.Direction,
		&lots, &openPrice, &closePrice,
		&trade.OpenTime, &closeTime,
		&profit, &commission, &swap, &trade.SyncedAt)
	if err != nil {
		return nil, err
	}

	if trade.Lots, err = decimal.NewFromString(lots); err != nil {
		return nil, fmt.Errorf("invalid lots %q: %w", lots, err)
	}
	if trade.OpenPrice, err = decimal.NewFromString(openPrice); err != nil {
		return nil, fmt.Errorf("invalid open price %q: %w", openPrice, err)
	}
	if trade.Profit, err = decimal.NewFromString(profit); err != nil {
		return nil, fmt.Errorf("invalid profit %q: %w", profit, err)
	}
	if trade.Commission, err = decimal.NewFromString(commission); err != nil {
		return nil, fmt.Errorf("invalid commission %q: %w", commission, err)
	}
	if trade.Swap, err = decimal.NewFromString(swap); err != nil {
		return nil, fmt.Errorf("invalid swap %q: %w", swap, err)
	}

	if closePrice.Valid {
		if trade.ClosePrice, err = decimal.NewFromString(closePrice.String); err != nil {
			return nil, fmt.Errorf("invalid close price %q: %w", closePrice.String, err)
		}
	}
	if closeTime.Valid {
		ct := closeTime.Time
		trade.CloseTime = &ct
	}

	return &trade, nil
}
