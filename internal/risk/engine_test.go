package risk

import (
	"testing"

	"github.com/shopspring/decimal"
)

func standardRules() Rules {
	return Rules{
		DailyDrawdownPercent: decimal.NewFromInt(5),
		MaxDrawdownPercent:   decimal.NewFromInt(10),
		Source:               RuleSourceConfigured,
	}
}

func standardInput(equity int64) Input {
	return Input{
		ChallengeId:      "ch-1",
		Login:            5001,
		InitialBalance:   decimal.NewFromInt(100000),
		Balance:          decimal.NewFromInt(equity),
		Equity:           decimal.NewFromInt(equity),
		StartOfDayEquity: decimal.NewFromInt(103000),
	}
}

func TestEvaluate_NoBreach(t *testing.T) {
	result := Evaluate(standardInput(99000), standardRules())
	if result.IsBreached {
		t.Errorf("Expected no breach at 99000, got %+v", result.Violations)
	}
}

func TestEvaluate_TotalDrawdownBoundary(t *testing.T) {
	// Initial 100k, max 10% -> floor 90000. Exactly at the floor is safe,
	// one dollar below breaches.
	result := Evaluate(standardInput(90000), standardRules())
	if result.IsBreached {
		t.Errorf("Expected 90000 exactly at floor to be safe, got %+v", result.Violations)
	}

	result = Evaluate(standardInput(89999), standardRules())
	if !result.IsBreached {
		t.Fatal("Expected 89999 to breach total drawdown")
	}

	found := false
	for _, violation := range result.Violations {
		if violation.Type == ViolationMaxDrawdown {
			found = true
			if !violation.Threshold.Equal(decimal.NewFromInt(90000)) {
				t.Errorf("Expected threshold 90000, got %s", violation.Threshold)
			}
			if !violation.Delta.Equal(decimal.NewFromInt(-1)) {
				t.Errorf("Expected delta -1, got %s", violation.Delta)
			}
		}
	}
	if !found {
		t.Errorf("Expected max_drawdown violation, got %+v", result.Violations)
	}
}

func TestEvaluate_DailyDrawdownBoundary(t *testing.T) {
	// Start-of-day 103000, daily 5% of initial 100000 -> floor 98000.
	result := Evaluate(standardInput(98000), standardRules())
	if result.IsBreached {
		t.Errorf("Expected 98000 exactly at daily floor to be safe, got %+v", result.Violations)
	}

	result = Evaluate(standardInput(97999), standardRules())
	if !result.IsBreached {
		t.Fatal("Expected 97999 to breach daily drawdown")
	}
	if len(result.Violations) != 1 || result.Violations[0].Type != ViolationDailyDrawdown {
		t.Fatalf("Expected only a daily violation, got %+v", result.Violations)
	}
	if !result.Violations[0].Threshold.Equal(decimal.NewFromInt(98000)) {
		t.Errorf("Expected threshold 98000, got %s", result.Violations[0].Threshold)
	}
}

func TestEvaluate_DailyAllowanceUsesInitialBalance(t *testing.T) {
	// The daily allowance denominator is the fixed initial balance, not the
	// grown equity: 5% of 100000 = 5000 even with start-of-day at 120000.
	input := standardInput(114999)
	input.StartOfDayEquity = decimal.NewFromInt(120000)

	result := Evaluate(input, standardRules())
	if !result.IsBreached {
		t.Fatal("Expected breach below 115000 daily floor")
	}
	if !result.Violations[0].Threshold.Equal(decimal.NewFromInt(115000)) {
		t.Errorf("Expected daily floor 115000, got %s", result.Violations[0].Threshold)
	}
}

func TestEvaluate_DailyCheckedBeforeTotal(t *testing.T) {
	// Equity low enough to trip both rules: daily must come first.
	result := Evaluate(standardInput(85000), standardRules())
	if !result.IsBreached {
		t.Fatal("Expected breach")
	}
	if len(result.Violations) != 2 {
		t.Fatalf("Expected both violations, got %+v", result.Violations)
	}
	if result.Violations[0].Type != ViolationDailyDrawdown {
		t.Errorf("Expected daily violation first, got %s", result.Violations[0].Type)
	}
	if result.Violations[1].Type != ViolationMaxDrawdown {
		t.Errorf("Expected max violation second, got %s", result.Violations[1].Type)
	}
}

func TestEvaluate_ZeroStartOfDayAnchorsAtInitialBalance(t *testing.T) {
	input := standardInput(94999)
	input.StartOfDayEquity = decimal.Zero

	// Anchor falls back to initial 100000: daily floor 95000.
	result := Evaluate(input, standardRules())
	if !result.IsBreached {
		t.Fatal("Expected daily breach with fallback anchor")
	}
	if result.Violations[0].Type != ViolationDailyDrawdown {
		t.Errorf("Expected daily violation, got %s", result.Violations[0].Type)
	}
	if !result.Violations[0].Threshold.Equal(decimal.NewFromInt(95000)) {
		t.Errorf("Expected daily floor 95000, got %s", result.Violations[0].Threshold)
	}
}

func TestEvaluate_ProfitableDayTightensNothing(t *testing.T) {
	// Equity above start of day can never trip the daily rule.
	input := standardInput(104000)
	result := Evaluate(input, standardRules())
	if result.IsBreached {
		t.Errorf("Expected no breach on a profitable day, got %+v", result.Violations)
	}
}
