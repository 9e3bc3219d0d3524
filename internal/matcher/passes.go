package matcher

import (
	"github.com/shopspring/decimal"

	"soa-matching-service/internal/models"
)

// MatchType classifies how a match was established.
type MatchType string

const (
	// MatchDeterministic marks a Pass 1 match, trusted without tolerance.
	MatchDeterministic MatchType = "deterministic"
	// MatchProbabilistic marks a tolerance or fuzzy match (Passes 2-5).
	MatchProbabilistic MatchType = "probabilistic"
)

// Pass numbers reported in match outcomes. PassNone means no pass matched.
const (
	PassNone            = 0
	PassExact           = 1
	PassDateTolerance   = 2
	PassFuzzyDoc        = 3
	PassAmountTolerance = 4
	PassPartial         = 5
)

// Confidence by pass number. These constants are part of the contract with
// downstream review and auto-posting logic, not tunables.
var passConfidence = map[int]float64{
	PassExact:           1.00,
	PassDateTolerance:   0.95,
	PassFuzzyDoc:        0.90,
	PassAmountTolerance: 0.85,
	PassPartial:         0.75,
}

// Criteria records which fields matched and how. The boolean fields cover
// every pass; the remaining fields are pass-specific extras.
type Criteria struct {
	InvoiceNumber     bool             `json:"invoice_number"`
	Amount            bool             `json:"amount"`
	Currency          bool             `json:"currency"`
	Date              bool             `json:"date"`
	DateToleranceDays int              `json:"date_tolerance_days,omitempty"`
	FuzzyDoc          bool             `json:"fuzzy_doc,omitempty"`
	AmountTolerance   *decimal.Decimal `json:"amount_tolerance,omitempty"`
	PartialMatch      bool             `json:"partial_match,omitempty"`
}

// MatchResult is the engine's verdict for one statement line: the invoice it
// corresponds to, how confidently, and under which criteria.
type MatchResult struct {
	Invoice         *models.Invoice  `json:"invoice"`
	MatchType       MatchType        `json:"match_type"`
	Confidence      float64          `json:"confidence"`
	MatchScore      int              `json:"match_score"`
	Criteria        Criteria         `json:"match_criteria"`
	Pass            int              `json:"pass"`
	PartialAmount   *decimal.Decimal `json:"partial_amount,omitempty"`
	RemainingAmount *decimal.Decimal `json:"remaining_amount,omitempty"`
}

// newMatchResult fills the fields derived from the pass number.
func newMatchResult(inv *models.Invoice, pass int, criteria Criteria) *MatchResult {
	confidence := passConfidence[pass]

	matchType := MatchProbabilistic
	if pass == PassExact {
		matchType = MatchDeterministic
	}

	return &MatchResult{
		Invoice:    inv,
		MatchType:  matchType,
		Confidence: confidence,
		MatchScore: int(confidence * 100),
		Criteria:   criteria,
		Pass:       pass,
	}
}

// matchExact implements Pass 1: trimmed, uppercased document equality, exact
// amount and currency, and same calendar day when both dates are present.
// A missing date on either side satisfies the date criterion; document,
// amount and currency alone then carry the match.
func (e *Engine) matchExact(line *models.StatementLine, pool []*models.Invoice) *MatchResult {
	for _, inv := range pool {
		if !exactDocEqual(line.InvoiceNumber, inv.InvoiceNumber) {
			continue
		}
		if !line.Amount.Equal(inv.TotalAmount) {
			continue
		}
		if line.Currency != inv.Currency {
			continue
		}
		if line.InvoiceDate != nil && inv.InvoiceDate != nil &&
			!SameCalendarDay(*line.InvoiceDate, *inv.InvoiceDate) {
			continue
		}

		return newMatchResult(inv, PassExact, Criteria{
			InvoiceNumber: true,
			Amount:        true,
			Currency:      true,
			Date:          true,
		})
	}

	return nil
}

// matchDateTolerance implements Pass 2: same exact document, amount and
// currency checks as Pass 1, but the dates must both be present and within
// the configured day tolerance. A missing date on either side fails this pass.
func (e *Engine) matchDateTolerance(line *models.StatementLine, pool []*models.Invoice) *MatchResult {
	for _, inv := range pool {
		if !exactDocEqual(line.InvoiceNumber, inv.InvoiceNumber) {
			continue
		}
		if !line.Amount.Equal(inv.TotalAmount) {
			continue
		}
		if line.Currency != inv.Currency {
			continue
		}

		days, ok := DateDifferenceDays(line.InvoiceDate, inv.InvoiceDate)
		if !ok || days > e.config.DateToleranceDays {
			continue
		}

		return newMatchResult(inv, PassDateTolerance, Criteria{
			InvoiceNumber:     true,
			Amount:            true,
			Currency:          true,
			Date:              true,
			DateToleranceDays: days,
		})
	}

	return nil
}

// matchFuzzyDoc implements Pass 3: normalized document equality with exact
// amount and currency. Dates are not consulted.
func (e *Engine) matchFuzzyDoc(line *models.StatementLine, pool []*models.Invoice) *MatchResult {
	for _, inv := range pool {
		if !fuzzyDocEqual(line.InvoiceNumber, inv.InvoiceNumber) {
			continue
		}
		if !line.Amount.Equal(inv.TotalAmount) {
			continue
		}
		if line.Currency != inv.Currency {
			continue
		}

		return newMatchResult(inv, PassFuzzyDoc, Criteria{
			InvoiceNumber: true,
			Amount:        true,
			Currency:      true,
			FuzzyDoc:      true,
		})
	}

	return nil
}

// matchAmountTolerance implements Pass 4: normalized document equality with
// the amount within the absolute-or-percentage tolerance.
func (e *Engine) matchAmountTolerance(line *models.StatementLine, pool []*models.Invoice) *MatchResult {
	for _, inv := range pool {
		if !fuzzyDocEqual(line.InvoiceNumber, inv.InvoiceNumber) {
			continue
		}
		if line.Currency != inv.Currency {
			continue
		}
		if !AmountWithinTolerance(line.Amount, inv.TotalAmount,
			e.config.AbsoluteAmountTolerance, e.config.PercentAmountTolerance) {
			continue
		}

		delta := line.Amount.Sub(inv.TotalAmount).Abs()
		return newMatchResult(inv, PassAmountTolerance, Criteria{
			InvoiceNumber:   true,
			Amount:          true,
			Currency:        true,
			AmountTolerance: &delta,
		})
	}

	return nil
}

// matchPartial implements Pass 5: normalized document equality, same
// currency, and a statement amount strictly below the invoice total. There is
// no tolerance check; any positive amount short of the total qualifies as a
// partial settlement. The pass only runs when partial matching is enabled.
func (e *Engine) matchPartial(line *models.StatementLine, pool []*models.Invoice) *MatchResult {
	for _, inv := range pool {
		if !fuzzyDocEqual(line.InvoiceNumber, inv.InvoiceNumber) {
			continue
		}
		if line.Currency != inv.Currency {
			continue
		}
		if !line.Amount.IsPositive() || !line.Amount.LessThan(inv.TotalAmount) {
			continue
		}

		partial := line.Amount
		remaining := inv.TotalAmount.Sub(line.Amount)

		result := newMatchResult(inv, PassPartial, Criteria{
			InvoiceNumber: true,
			Amount:        true,
			Currency:      true,
			PartialMatch:  true,
		})
		result.PartialAmount = &partial
		result.RemainingAmount = &remaining
		return result
	}

	return nil
}
