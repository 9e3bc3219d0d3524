// Package matcher implements the autonomous matching engine that reconciles
// vendor statement-of-account lines against candidate invoices.
//
// The engine is a deterministic-first, heuristic-last pipeline of five ordered
// passes, each a pure predicate-plus-scorer over one statement line and one
// invoice:
//
//	Pass 1 - exact document, amount, currency and calendar-day match
//	Pass 2 - exact match with a date tolerance of up to 7 days
//	Pass 3 - normalized (punctuation-insensitive) document number match
//	Pass 4 - normalized document with amount tolerance (absolute or percent)
//	Pass 5 - partial/split payment match (opt-in only)
//
// Passes run in strict priority order and the first qualifying invoice wins;
// later passes are never consulted once an earlier pass succeeds. Confidence
// is a fixed function of the pass number (1.00, 0.95, 0.90, 0.85, 0.75) and
// is part of the engine's contract with downstream review and auto-posting
// logic.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultMatchingConfig())
//	outcome := engine.MatchLine(line, invoices)
//	if outcome.Match != nil {
//		fmt.Printf("pass %d: %s\n", outcome.Pass, outcome.Reason)
//	}
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchingConfig holds the tolerance parameters for the pass pipeline.
// The defaults mirror the engine's contract: 7-day date tolerance for
// Pass 2, and 1.00 absolute or 0.5% relative amount tolerance for Pass 4.
type MatchingConfig struct {
	// DateToleranceDays is the maximum whole-day difference Pass 2 accepts.
	DateToleranceDays int `json:"date_tolerance_days"`

	// AbsoluteAmountTolerance is the absolute amount delta Pass 4 accepts.
	AbsoluteAmountTolerance decimal.Decimal `json:"absolute_amount_tolerance"`

	// PercentAmountTolerance is the relative delta Pass 4 accepts,
	// expressed as a fraction (0.005 means 0.5%).
	PercentAmountTolerance decimal.Decimal `json:"percent_amount_tolerance"`

	// EnablePartialMatching opts every line into Pass 5. Individual lines
	// can also opt in via allow_partial or match_mode "partial".
	EnablePartialMatching bool `json:"enable_partial_matching"`
}

// DefaultMatchingConfig returns the contract tolerances
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		DateToleranceDays:       7,
		AbsoluteAmountTolerance: decimal.NewFromFloat(1.00),
		PercentAmountTolerance:  decimal.NewFromFloat(0.005),
		EnablePartialMatching:   false,
	}
}

// StrictMatchingConfig returns a configuration that disables every tolerance
// pass except the 7-day date window, for callers that only trust exact and
// near-exact correspondence
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		DateToleranceDays:       7,
		AbsoluteAmountTolerance: decimal.Zero,
		PercentAmountTolerance:  decimal.Zero,
		EnablePartialMatching:   false,
	}
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	if mc.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", mc.DateToleranceDays)
	}

	if mc.AbsoluteAmountTolerance.IsNegative() {
		return fmt.Errorf("absolute amount tolerance cannot be negative: %s", mc.AbsoluteAmountTolerance)
	}

	if mc.PercentAmountTolerance.IsNegative() {
		return fmt.Errorf("percent amount tolerance cannot be negative: %s", mc.PercentAmountTolerance)
	}

	if mc.PercentAmountTolerance.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("percent amount tolerance must be a fraction between 0 and 1: %s", mc.PercentAmountTolerance)
	}

	return nil
}

// Clone creates a copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	return &clone
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{DateTolerance: %d days, AbsTolerance: %s, PctTolerance: %s, Partial: %t}",
		mc.DateToleranceDays, mc.AbsoluteAmountTolerance, mc.PercentAmountTolerance, mc.EnablePartialMatching)
}
