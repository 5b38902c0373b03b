package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus enumerates the lifecycle states of a challenge account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusPassed   AccountStatus = "passed"
	StatusFailed   AccountStatus = "failed"
	StatusBreached AccountStatus = "breached"
	StatusDisabled AccountStatus = "disabled"
	StatusUpgraded AccountStatus = "upgraded"
)

// IsTerminal reports whether the status ends the account's trading life.
// Terminal statuses must never silently revert to active.
func (s AccountStatus) IsTerminal() bool {
	switch s {
	case StatusBreached, StatusFailed, StatusDisabled, StatusUpgraded:
		return true
	}
	return false
}

// Account represents a challenge account provisioned on the trading platform
type Account struct {
	Id               string          `db:"id"`
	UserId           string          `db:"user_id"`
	Login            int64           `db:"login"`
	Group            string          `db:"mt5_group"`
	ChallengeType    string          `db:"challenge_type"`
	Status           AccountStatus   `db:"status"`
	InitialBalance   decimal.Decimal `db:"initial_balance"`
	CurrentBalance   decimal.Decimal `db:"current_balance"`
	CurrentEquity    decimal.Decimal `db:"current_equity"`
	StartOfDayEquity decimal.Decimal `db:"start_of_day_equity"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// TradeDirection is the canonical buy/sell direction of a trade.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

// Trade represents a canonical trade record keyed by the platform ticket.
// CloseTime is nil while the position is open.
type Trade struct {
	Ticket      int64           `db:"ticket"`
	ChallengeId string          `db:"challenge_id"`
	UserId      string          `db:"user_id"`
	Login       int64           `db:"login"`
	Symbol      string          `db:"symbol"`
	Direction   TradeDirection  `db:"direction"`
	Lots        decimal.Decimal `db:"lots"`
	OpenPrice   decimal.Decimal `db:"open_price"`
	ClosePrice  decimal.Decimal `db:"close_price"`
	OpenTime    time.Time       `db:"open_time"`
	CloseTime   *time.Time      `db:"close_time"`
	Profit      decimal.Decimal `db:"profit"`
	Commission  decimal.Decimal `db:"commission"`
	Swap        decimal.Decimal `db:"swap"`
	SyncedAt    time.Time       `db:"synced_at"`
}

// IsClosed reports whether the trade has been closed on the platform.
func (t *Trade) IsClosed() bool {
	return t.CloseTime != nil
}

// Violation represents an immutable breach audit record. Multiple violations
// per account accumulate; none are ever updated or deleted.
type Violation struct {
	Id            string          `db:"id"`
	ChallengeId   string          `db:"challenge_id"`
	Login         int64           `db:"login"`
	ViolationType string          `db:"violation_type"`
	RuleSource    string          `db:"rule_source"`
	Threshold     decimal.Decimal `db:"threshold"`
	Observed      decimal.Decimal `db:"observed"`
	Delta         decimal.Decimal `db:"delta"`
	Equity        decimal.Decimal `db:"equity"`
	Balance       decimal.Decimal `db:"balance"`
	CreatedAt     time.Time       `db:"created_at"`
}
