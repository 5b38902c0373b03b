package risk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Rule sources let audits distinguish a configured tier from the
// conservative fallback applied when no tier matched.
const (
	RuleSourceConfigured = "configured"
	RuleSourceFallback   = "fallback"
)

// Fallback thresholds used when a challenge type has no configured tier.
var (
	fallbackDailyPercent = decimal.NewFromInt(4)
	fallbackMaxPercent   = decimal.NewFromInt(10)
)

// Rules are the drawdown limits applied to one account.
type Rules struct {
	DailyDrawdownPercent decimal.Decimal
	MaxDrawdownPercent   decimal.Decimal
	Source               string
}

type tierConfig struct {
	ChallengeType        string  `yaml:"challenge_type"`
	DailyDrawdownPercent float64 `yaml:"daily_drawdown_percent"`
	MaxDrawdownPercent   float64 `yaml:"max_drawdown_percent"`
}

type rulesConfig struct {
	Tiers []tierConfig `yaml:"tiers"`
}

// RuleSet resolves drawdown rules per challenge type.
type RuleSet struct {
	tiers map[string]Rules
}

// LoadRuleSet reads per-tier drawdown rules from a YAML file.
func LoadRuleSet(rulesFile string) (*RuleSet, error) {
	var rulesPath string
	if filepath.IsAbs(rulesFile) {
		rulesPath = rulesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		rulesPath = filepath.Join(wd, rulesFile)
	}

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", rulesFile, err)
	}

	var config rulesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", rulesFile, err)
	}

	tiers := make(map[string]Rules, len(config.Tiers))
	for i, tier := range config.Tiers {
		if tier.ChallengeType == "" {
			return nil, fmt.Errorf("tier at index %d missing challenge_type", i)
		}
		if tier.DailyDrawdownPercent <= 0 || tier.MaxDrawdownPercent <= 0 {
			return nil, fmt.Errorf("tier %s has non-positive drawdown percent", tier.ChallengeType)
		}
		tiers[strings.ToLower(tier.ChallengeType)] = Rules{
			DailyDrawdownPercent: decimal.NewFromFloat(tier.DailyDrawdownPercent),
			MaxDrawdownPercent:   decimal.NewFromFloat(tier.MaxDrawdownPercent),
			Source:               RuleSourceConfigured,
		}
	}

	zap.L().Info("Drawdown rules loaded", zap.Int("tiers", len(tiers)))
	return &RuleSet{tiers: tiers}, nil
}

// NewRuleSet builds a rule set from prebuilt tiers, for tests.
func NewRuleSet(tiers map[string]Rules) *RuleSet {
	normalized := make(map[string]Rules, len(tiers))
	for name, rules := range tiers {
		rules.Source = RuleSourceConfigured
		normalized[strings.ToLower(name)] = rules
	}
	return &RuleSet{tiers: normalized}
}

// Resolve returns the rules for a challenge type. Matching is exact first,
// then falls back to family prefixes (a "prime-100k-phase2" account can ride
// on a "prime-100k" or "prime" tier). When nothing matches, conservative
// fallback limits apply, flagged via Source for the audit trail.
func (r *RuleSet) Resolve(challengeType string) Rules {
	key := strings.ToLower(challengeType)

	if rules, ok := r.tiers[key]; ok {
		return rules
	}

	for candidate := key; ; {
		idx := strings.LastIndexAny(candidate, "-_")
		if idx < 0 {
			break
		}
		candidate = candidate[:idx]
		if rules, ok := r.tiers[candidate]; ok {
			return rules
		}
	}

	zap.L().Warn("No drawdown tier configured, applying fallback limits",
		zap.String("challenge_type", challengeType))

	return Rules{
		DailyDrawdownPercent: fallbackDailyPercent,
		MaxDrawdownPercent:   fallbackMaxPercent,
		Source:               RuleSourceFallback,
	}
}
