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

// Package normalize converts raw bridge trade records into canonical trades.
// All functions are pure: account resolution happens through a prebuilt
// login map, and skipped records are reported rather than aborting the batch.
package normalize

import (
	"time"

	"mt5-risk-sync-go/internal/models"

	"github.com/shopspring/decimal"
)

// LotScale divides the platform's integer volume into lots.
const LotScale = 10000

// GhostSkew is the tolerance before account creation; trades closed earlier
// than this belong to a previous owner of the recycled login.
const GhostSkew = 60 * time.Second

const (
	cmdBuy  = 0
	cmdSell = 1
)

// AccountRef is the minimal account identity needed to resolve a raw trade.
type AccountRef struct {
	ChallengeId string
	UserId      string
	Login       int64
	CreatedAt   time.Time
}

// SkipReason explains why a raw record was excluded from the output.
type SkipReason string

const (
	SkipZeroTicket   SkipReason = "zero_ticket"
	SkipUnknownLogin SkipReason = "unknown_login"
	SkipGhostTrade   SkipReason = "ghost_trade"
	SkipBadCommand   SkipReason = "bad_command"
)

// Skipped reports one excluded raw record.
type Skipped struct {
	Ticket int64
	Login  int64
	Reason SkipReason
}

var lotScale = decimal.NewFromInt(LotScale)

// Trades converts raw bridge records into canonical trades. Records sharing
// a ticket are merged last-write-wins over input order; output preserves
// first-seen ticket order.
func Trades(raw []models.BridgeTrade, accounts map[int64]AccountRef) ([]models.Trade, []Skipped) {
	var skipped []Skipped
	order := make([]int64, 0, len(raw))
	byTicket := make(map[int64]models.Trade, len(raw))

	for _, record := range raw {
		trade, reason := normalizeOne(record, accounts)
		if reason != "" {
			skipped = append(skipped, Skipped{Ticket: record.Ticket, Login: record.Login, Reason: reason})
			continue
		}

		if _, seen := byTicket[trade.Ticket]; !seen {
			order = append(order, trade.Ticket)
		}
		byTicket[trade.Ticket] = trade
	}

	out := make([]models.Trade, 0, len(order))
	for _, ticket := range order {
		out = append(out, byTicket[ticket])
	}

	return out, skipped
}

func normalizeOne(record models.BridgeTrade, accounts map[int64]AccountRef) (models.Trade, SkipReason) {
	if record.Ticket == 0 {
		return models.Trade{}, SkipZeroTicket
	}

	account, ok := accounts[record.Login]
	if !ok {
		return models.Trade{}, SkipUnknownLogin
	}

	direction, ok := directionFromCmd(record.Cmd)
	if !ok {
		return models.Trade{}, SkipBadCommand
	}

	openTime := time.Unix(record.OpenTime, 0).UTC()

	var closeTime *time.Time
	if record.CloseTime != 0 {
		ct := time.Unix(record.CloseTime, 0).UTC()
		closeTime = &ct

		// Closed trades predating the account belong to the login's
		// previous owner.
		if ct.Before(account.CreatedAt.Add(-GhostSkew)) {
			return models.Trade{}, SkipGhostTrade
		}
	}

	return models.Trade{
		Ticket:      record.Ticket,
		ChallengeId: account.ChallengeId,
		UserId:      account.UserId,
		Login:       record.Login,
		Symbol:      record.Symbol,
		Direction:   direction,
		Lots:        decimal.NewFromInt(record.Volume).Div(lotScale),
		OpenPrice:   decimal.NewFromFloat(record.OpenPrice),
		ClosePrice:  decimal.NewFromFloat(record.ClosePrice),
		OpenTime:    openTime,
		CloseTime:   closeTime,
		Profit:      decimal.NewFromFloat(record.Profit),
		Commission:  decimal.NewFromFloat(record.Commission),
		Swap:        decimal.NewFromFloat(record.Swap),
	}, ""
}

func directionFromCmd(cmd int) (models.TradeDirection, bool) {
	switch cmd {
	case cmdBuy:
		return models.DirectionBuy, true
	case cmdSell:
		return models.DirectionSell, true
	}
	return "", false
}
