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

// Package risk evaluates drawdown rules against a single consistent
// equity/balance snapshot. Evaluation is pure: no I/O, no clock, no state.
package risk

import (
	"github.com/shopspring/decimal"
)

const (
	ViolationDailyDrawdown = "daily_drawdown"
	ViolationMaxDrawdown   = "max_drawdown"
)

// Input is one account's snapshot taken at a single point in time. Equity
// and balance must come from the same read; mixing reads from different
// moments makes phantom breaches possible.
type Input struct {
	ChallengeId      string
	Login            int64
	InitialBalance   decimal.Decimal
	Balance          decimal.Decimal
	Equity           decimal.Decimal
	StartOfDayEquity decimal.Decimal
}

// Violation is one limit crossed during evaluation.
type Violation struct {
	Type      string
	Threshold decimal.Decimal
	Observed  decimal.Decimal
	Delta     decimal.Decimal
}

// Result is the outcome of evaluating one account.
type Result struct {
	IsBreached bool
	Violations []Violation
}

var hundred = decimal.NewFromInt(100)

// Evaluate applies the daily then the total drawdown rule. Both limits are
// percent-of-initial-balance dollar amounts; the fixed denominator means a
// grown account does not earn a larger daily allowance. Sitting exactly on
// a limit is not a breach; only strictly below trips it.
func Evaluate(input Input, rules Rules) Result {
	var violations []Violation

	// Daily: anchor at today's opening equity. A zero anchor means the
	// account has never been through a day rollover, so the initial
	// balance stands in.
	anchor := input.StartOfDayEquity
	if anchor.IsZero() {
		anchor = input.InitialBalance
	}
	dailyAllowance := input.InitialBalance.Mul(rules.DailyDrawdownPercent).Div(hundred)
	dailyFloor := anchor.Sub(dailyAllowance)
	if input.Equity.LessThan(dailyFloor) {
		violations = append(violations, Violation{
			Type:      ViolationDailyDrawdown,
			Threshold: dailyFloor,
			Observed:  input.Equity,
			Delta:     input.Equity.Sub(dailyFloor),
		})
	}

	// Total: floor is a fixed fraction of the initial balance.
	totalFloor := input.InitialBalance.Mul(decimal.NewFromInt(1).Sub(rules.MaxDrawdownPercent.Div(hundred)))
	if input.Equity.LessThan(totalFloor) {
		violations = append(violations, Violation{
			Type:      ViolationMaxDrawdown,
			Threshold: totalFloor,
			Observed:  input.Equity,
			Delta:     input.Equity.Sub(totalFloor),
		})
	}

	return Result{
		IsBreached: len(violations) > 0,
		Violations: violations,
	}
}
