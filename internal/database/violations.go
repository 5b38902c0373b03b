package database

import (
	"context"
	"database/sql"
	"fmt"

	"mt5-risk-sync-go/internal/models"
	"mt5-risk-sync-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InsertViolation records a breach. Records are append-only; an account with
// repeated breaches accumulates one row per violation.
func (s *Service) InsertViolation(ctx context.Context, params store.ViolationParams) (*models.Violation, error) {
	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx, queryInsertViolation,
		id, params.ChallengeId, params.Login, params.ViolationType, params.RuleSource,
		params.Threshold.String(), params.Observed.String(), params.Delta.String(),
		params.Equity.String(), params.Balance.String())
	if err != nil {
		zap.L().Error("Failed to insert violation",
			zap.Int64("login", params.Login),
			zap.String("type", params.ViolationType),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert violation: %w", err)
	}

	zap.L().Info("Violation recorded",
		zap.String("id", id),
		zap.Int64("login", params.Login),
		zap.String("type", params.ViolationType),
		zap.String("rule_source", params.RuleSource),
		zap.String("threshold", params.Threshold.String()),
		zap.String("observed", params.Observed.String()))

	return &models.Violation{
		Id:            id,
		ChallengeId:   params.ChallengeId,
		Login:         params.Login,
		ViolationType: params.ViolationType,
		RuleSource:    params.RuleSource,
		Threshold:     params.Threshold,
		Observed:      params.Observed,
		Delta:         params.Delta,
		Equity:        params.Equity,
		Balance:       params.Balance,
	}, nil
}

func (s *Service) GetViolations(ctx context.Context, login int64) ([]models.Violation, error) {
	return s.queryViolations(ctx, queryGetViolations, login)
}

// GetAllViolations lists the most recent violations across all accounts.
func (s *Service) GetAllViolations(ctx context.Context, limit int) ([]models.Violation, error) {
	return s.queryViolations(ctx, queryGetAllViolations, limit)
}

func (s *Service) queryViolations(ctx context.Context, query string, arg any) ([]models.Violation, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("unable to query violations: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var violations []models.Violation
	for rows.Next() {
		var violation models.Violation
		var threshold, observed, delta, equity, balance string

		err := rows.Scan(
			&violation.Id, &violation.ChallengeId, &violation.Login,
			&violation.ViolationType, &violation.RuleSource,
			&threshold, &observed, &delta, &equity, &balance,
			&violation.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan violation row: %w", err)
		}

		if violation.Threshold, err = decimal.NewFromString(threshold); err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", threshold, err)
		}
		if violation.Observed, err = decimal.NewFromString(observed); err != nil {
			return nil, fmt.Errorf("invalid observed %q: %w", observed, err)
		}
		if violation.Delta, err = decimal.NewFromString(delta); err != nil {
			return nil, fmt.Errorf("invalid delta %q: %w", delta, err)
		}
		if violation.Equity, err = decimal.NewFromString(equity); err != nil {
			return nil, fmt.Errorf("invalid equity %q: %w", equity, err)
		}
		if violation.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
		}

		violations = append(violations, violation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating violation rows: %w", err)
	}

	return violations, nil
}
