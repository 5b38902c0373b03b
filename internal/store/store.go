package store

import (
	"context"
	"errors"

	"mt5-risk-sync-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrAccountNotFound = errors.New("no account found for login")
	ErrDuplicateTicket = errors.New("duplicate ticket in batch")
	ErrTerminalStatus  = errors.New("account is in a terminal status")
)

// AccountStateParams contains the parameters for revising an account's
// live balance and equity.
type AccountStateParams struct {
	Login   int64
	Balance decimal.Decimal
	Equity  decimal.Decimal
}

// ViolationParams contains the parameters for recording a breach. Violation
// records are immutable and accumulate per account.
type ViolationParams struct {
	ChallengeId   string
	Login         int64
	ViolationType string
	RuleSource    string
	Threshold     decimal.Decimal
	Observed      decimal.Decimal
	Delta         decimal.Decimal
	Equity        decimal.Decimal
	Balance       decimal.Decimal
}

// CreateAccountParams contains the parameters for provisioning a challenge
// account.
type CreateAccountParams struct {
	UserId         string
	Login          int64
	Group          string
	ChallengeType  string
	InitialBalance decimal.Decimal
}

// RiskStore defines the contract that every persistence backend must satisfy.
// The durable store alone is the source of truth; the checkpoint cache is
// never required for correctness.
type RiskStore interface {
	// --- Accounts ---
	ListActiveAccounts(ctx context.Context) ([]models.Account, error)
	GetAccountByLogin(ctx context.Context, login int64) (*models.Account, error)
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)
	UpdateAccountState(ctx context.Context, params AccountStateParams) error
	MarkBreached(ctx context.Context, login int64) error
	ResetStartOfDay(ctx context.Context, login int64, equity decimal.Decimal) error

	// --- Trades ---
	UpsertTrades(ctx context.Context, trades []models.Trade) error
	GetTradeHistory(ctx context.Context, login int64, limit, offset int) ([]models.Trade, error)
	CountTrades(ctx context.Context, login int64) (int, error)

	// --- Violations ---
	InsertViolation(ctx context.Context, params ViolationParams) (*models.Violation, error)
	GetViolations(ctx context.Context, login int64) ([]models.Violation, error)

	// --- Lifecycle ---
	Close()
}
