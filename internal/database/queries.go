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

package database

const (
	// Account queries
	queryListActiveAccounts = `
		SELECT id, user_id, login, mt5_group, challenge_type, status,
		       initial_balance, current_balance, current_equity, start_of_day_equity,
		       created_at, updated_at
		FROM challenges
		WHERE status = 'active'
		ORDER BY login`

	queryGetAccountByLogin = `
		SELECT id, user_id, login, mt5_group, challenge_type, status,
		       initial_balance, current_balance, current_equity, start_of_day_equity,
		       created_at, updated_at
		FROM challenges
		WHERE login = ?`

	queryInsertAccount = `
		INSERT INTO challenges (id, user_id, login, mt5_group, challenge_type, status,
		                        initial_balance, current_balance, current_equity, start_of_day_equity)
		VALUES (?, ?, ?, ?, ?, 'active', ?, ?, ?, ?)`

	queryUpdateAccountState = `
		UPDATE challenges
		SET current_balance = ?, current_equity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE login = ?`

	// The status guard keeps terminal accounts terminal: a breach only lands
	// on an account that is still active.
	queryMarkBreached = `
		UPDATE challenges
		SET status = 'breached', updated_at = CURRENT_TIMESTAMP
		WHERE login = ? AND status = 'active'`

	queryResetStartOfDay = `
		UPDATE challenges
		SET start_of_day_equity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE login = ?`

	// Trade queries
	queryUpsertTrade = `
		INSERT INTO trades (ticket, challenge_id, user_id, login, symbol, direction,
		                    lots, open_price, close_price, open_time, close_time,
		                    profit, commission, swap, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(ticket) DO UPDATE SET
			symbol = excluded.symbol,
			direction = excluded.direction,
			lots = excluded.lots,
			open_price = excluded.open_price,
			close_price = excluded.close_price,
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			profit = excluded.profit,
			commission = excluded.commission,
			swap = excluded.swap,
			synced_at = CURRENT_TIMESTAMP`

	queryGetTradeHistory = `
		SELECT ticket, challenge_id, user_id, login, symbol, direction,
		       lots, open_price, close_price, open_time, close_time,
		       profit, commission, swap, synced_at
		FROM trades
		WHERE login = ?
		ORDER BY open_time DESC
		LIMIT ? OFFSET ?`

	queryCountTrades = `
		SELECT COUNT(*) FROM trades WHERE login = ?`

	// Violation queries
	queryInsertViolation = `
		INSERT INTO risk_violations (id, challenge_id, login, violation_type, rule_source,
		                             threshold, observed, delta, equity, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetViolations = `
		SELECT id, challenge_id, login, violation_type, rule_source,
		       threshold, observed, delta, equity, balance, created_at
		FROM risk_violations
		WHERE login = ?
		ORDER BY created_at DESC`

	queryGetAllViolations = `
		SELECT id, challenge_id, login, violation_type, rule_source,
		       threshold, observed, delta, equity, balance, created_at
		FROM risk_violations
		ORDER BY created_at DESC
		LIMIT ?`
)
