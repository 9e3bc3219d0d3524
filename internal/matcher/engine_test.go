package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"soa-matching-service/internal/models"
)

func testLine(number string, amount float64, currency string, date *time.Time) *models.StatementLine {
	return &models.StatementLine{
		InvoiceNumber: number,
		Amount:        decimal.NewFromFloat(amount),
		Currency:      currency,
		InvoiceDate:   date,
	}
}

func testInvoice(number string, amount float64, currency string, date *time.Time) *models.Invoice {
	return &models.Invoice{
		InvoiceNumber: number,
		TotalAmount:   decimal.NewFromFloat(amount),
		Currency:      currency,
		InvoiceDate:   date,
	}
}

func TestNewEngine(t *testing.T) {
	engine := NewEngine(nil)
	if engine == nil {
		t.Fatal("Expected engine to be created")
	}
	if engine.Config() == nil {
		t.Fatal("Expected default config to be applied")
	}
	if engine.Config().DateToleranceDays != 7 {
		t.Errorf("Expected default date tolerance 7, got %d", engine.Config().DateToleranceDays)
	}
}

func TestEngine_MatchLine_EmptyPool(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-001", 100.00, "USD", nil)

	outcome := engine.MatchLine(line, nil)
	if outcome.Matched() {
		t.Fatal("Expected no match against an empty pool")
	}
	if outcome.Pass != PassNone {
		t.Errorf("Expected pass %d, got %d", PassNone, outcome.Pass)
	}
	if outcome.Reason != ReasonNoInvoices {
		t.Errorf("Expected reason %q, got %q", ReasonNoInvoices, outcome.Reason)
	}
}

func TestEngine_MatchLine_ExactMatch(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-001", 100.00, "USD", datePtr(2024, 3, 15))
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.00, "USD", datePtr(2024, 3, 15)),
	}

	outcome := engine.MatchLine(line, pool)
	if !outcome.Matched() {
		t.Fatalf("Expected a match, got reason %q", outcome.Reason)
	}
	if outcome.Pass != PassExact {
		t.Errorf("Expected pass %d, got %d", PassExact, outcome.Pass)
	}
	if outcome.Reason != ReasonExactMatch {
		t.Errorf("Expected reason %q, got %q", ReasonExactMatch, outcome.Reason)
	}

	match := outcome.Match
	if match.Confidence != 1.00 {
		t.Errorf("Expected confidence 1.00, got %v", match.Confidence)
	}
	if match.MatchScore != 100 {
		t.Errorf("Expected score 100, got %d", match.MatchScore)
	}
	if match.MatchType != MatchDeterministic {
		t.Errorf("Expected deterministic match, got %s", match.MatchType)
	}
	if !match.Criteria.InvoiceNumber || !match.Criteria.Amount || !match.Criteria.Currency || !match.Criteria.Date {
		t.Errorf("Expected all exact criteria to be set, got %+v", match.Criteria)
	}
}

// A missing date on either side still satisfies the exact pass; document,
// amount and currency carry the match.
func TestEngine_MatchLine_ExactMatchMissingDate(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name        string
		lineDate    *time.Time
		invoiceDate *time.Time
	}{
		{"Line date missing", nil, datePtr(2024, 3, 15)},
		{"Invoice date missing", datePtr(2024, 3, 15), nil},
		{"Both dates missing", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := testLine("INV-001", 100.00, "USD", tt.lineDate)
			pool := []*models.Invoice{testInvoice("INV-001", 100.00, "USD", tt.invoiceDate)}

			outcome := engine.MatchLine(line, pool)
			if !outcome.Matched() || outcome.Pass != PassExact {
				t.Errorf("Expected an exact match, got pass %d reason %q", outcome.Pass, outcome.Reason)
			}
		})
	}
}

func TestEngine_MatchLine_DateTolerance(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-001", 100.00, "USD", datePtr(2024, 3, 15))
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.00, "USD", datePtr(2024, 3, 18)),
	}

	outcome := engine.MatchLine(line, pool)
	if !outcome.Matched() {
		t.Fatalf("Expected a match, got reason %q", outcome.Reason)
	}
	if outcome.Pass != PassDateTolerance {
		t.Errorf("Expected pass %d, got %d", PassDateTolerance, outcome.Pass)
	}
	if outcome.Match.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %v", outcome.Match.Confidence)
	}
	if outcome.Match.MatchScore != 95 {
		t.Errorf("Expected score 95, got %d", outcome.Match.MatchScore)
	}
	if outcome.Match.MatchType != MatchProbabilistic {
		t.Errorf("Expected probabilistic match, got %s", outcome.Match.MatchType)
	}
	if outcome.Match.Criteria.DateToleranceDays != 3 {
		t.Errorf("Expected recorded day difference 3, got %d", outcome.Match.Criteria.DateToleranceDays)
	}
}

func TestEngine_MatchLine_DateToleranceBoundary(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-001", 100.00, "USD", datePtr(2024, 3, 15))
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.00, "USD", datePtr(2024, 3, 22)),
	}

	// Exactly 7 days is still inside the window
	outcome := engine.MatchLine(line, pool)
	if outcome.Pass != PassDateTolerance {
		t.Errorf("Expected pass %d at the tolerance boundary, got %d", PassDateTolerance, outcome.Pass)
	}
}

// Dates beyond the tolerance window fall through Pass 2; the fuzzy pass still
// matches because it never consults dates.
func TestEngine_MatchLine_DateBeyondToleranceFallsThrough(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-001", 100.00, "USD", datePtr(2024, 3, 15))
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.00, "USD", datePtr(2024, 3, 25)),
	}

	outcome := engine.MatchLine(line, pool)
	if outcome.Pass != PassFuzzyDoc {
		t.Errorf("Expected fall-through to pass %d, got %d", PassFuzzyDoc, outcome.Pass)
	}
}

func TestEngine_MatchLine_FuzzyDoc(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("inv 001", 100.00, "USD", nil)
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.00, "USD", nil),
	}

	outcome := engine.MatchLine(line, pool)
	if !outcome.Matched() {
		t.Fatalf("Expected a match, got reason %q", outcome.Reason)
	}
	if outcome.Pass != PassFuzzyDoc {
		t.Errorf("Expected pass %d, got %d", PassFuzzyDoc, outcome.Pass)
	}
	if outcome.Match.Confidence != 0.90 {
		t.Errorf("Expected confidence 0.90, got %v", outcome.Match.Confidence)
	}
	if outcome.Match.MatchScore != 90 {
		t.Errorf("Expected score 90, got %d", outcome.Match.MatchScore)
	}
	if !outcome.Match.Criteria.FuzzyDoc {
		t.Error("Expected fuzzy doc criterion to be set")
	}
}

func TestEngine_MatchLine_AmountTolerance(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name          string
		lineAmount    float64
		invoiceAmount float64
		wantMatch     bool
	}{
		{"Within absolute tolerance", 100.00, 100.80, true},
		{"Within percent tolerance", 10000.00, 10040.00, true},
		{"Beyond both tolerances", 100.00, 150.00, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := testLine("INV-001", tt.lineAmount, "USD", nil)
			pool := []*models.Invoice{testInvoice("INV001", tt.invoiceAmount, "USD", nil)}

			outcome := engine.MatchLine(line, pool)
			if tt.wantMatch {
				if outcome.Pass != PassAmountTolerance {
					t.Fatalf("Expected pass %d, got %d (reason %q)", PassAmountTolerance, outcome.Pass, outcome.Reason)
				}
				if outcome.Match.Confidence != 0.85 {
					t.Errorf("Expected confidence 0.85, got %v", outcome.Match.Confidence)
				}
				if outcome.Match.Criteria.AmountTolerance == nil {
					t.Error("Expected the amount delta to be recorded in the criteria")
				}
			} else if outcome.Matched() {
				t.Errorf("Expected no match, got pass %d", outcome.Pass)
			}
		})
	}
}

func TestEngine_MatchLine_PartialGate(t *testing.T) {
	pool := []*models.Invoice{
		testInvoice("INV-001", 1000.00, "USD", nil),
	}

	// Gate closed: a short payment finds nothing
	engine := NewEngine(nil)
	line := testLine("INV-001", 600.00, "USD", nil)

	outcome := engine.MatchLine(line, pool)
	if outcome.Matched() {
		t.Fatalf("Expected no match with partial matching disabled, got pass %d", outcome.Pass)
	}
	if outcome.Reason != ReasonNoMatch {
		t.Errorf("Expected reason %q, got %q", ReasonNoMatch, outcome.Reason)
	}

	// Gate opened three equivalent ways
	tests := []struct {
		name   string
		engine *Engine
		line   *models.StatementLine
	}{
		{
			"Config flag",
			NewEngine(&MatchingConfig{
				DateToleranceDays:       7,
				AbsoluteAmountTolerance: decimal.NewFromFloat(1.00),
				PercentAmountTolerance:  decimal.NewFromFloat(0.005),
				EnablePartialMatching:   true,
			}),
			testLine("INV-001", 600.00, "USD", nil),
		},
		{
			"Line allow_partial flag",
			NewEngine(nil),
			&models.StatementLine{
				InvoiceNumber: "INV-001",
				Amount:        decimal.NewFromFloat(600.00),
				Currency:      "USD",
				AllowPartial:  true,
			},
		},
		{
			"Line partial match mode",
			NewEngine(nil),
			&models.StatementLine{
				InvoiceNumber: "INV-001",
				Amount:        decimal.NewFromFloat(600.00),
				Currency:      "USD",
				MatchMode:     models.MatchModePartial,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := tt.engine.MatchLine(tt.line, pool)
			if !outcome.Matched() {
				t.Fatalf("Expected a partial match, got reason %q", outcome.Reason)
			}
			if outcome.Pass != PassPartial {
				t.Fatalf("Expected pass %d, got %d", PassPartial, outcome.Pass)
			}

			match := outcome.Match
			if match.Confidence != 0.75 {
				t.Errorf("Expected confidence 0.75, got %v", match.Confidence)
			}
			if match.MatchScore != 75 {
				t.Errorf("Expected score 75, got %d", match.MatchScore)
			}
			if match.PartialAmount == nil || !match.PartialAmount.Equal(decimal.NewFromFloat(600.00)) {
				t.Errorf("Expected partial amount 600, got %v", match.PartialAmount)
			}
			if match.RemainingAmount == nil || !match.RemainingAmount.Equal(decimal.NewFromFloat(400.00)) {
				t.Errorf("Expected remaining amount 400, got %v", match.RemainingAmount)
			}
		})
	}
}

func TestEngine_MatchLine_PartialRequiresShortPayment(t *testing.T) {
	engine := NewEngine(&MatchingConfig{
		DateToleranceDays:       7,
		AbsoluteAmountTolerance: decimal.Zero,
		PercentAmountTolerance:  decimal.Zero,
		EnablePartialMatching:   true,
	})
	pool := []*models.Invoice{
		testInvoice("INV-001", 1000.00, "USD", nil),
	}

	// An overpayment never qualifies as a partial settlement
	line := testLine("INV-001", 1200.00, "USD", nil)
	outcome := engine.MatchLine(line, pool)
	if outcome.Matched() {
		t.Errorf("Expected no match for an overpayment, got pass %d", outcome.Pass)
	}
}

// Pass priority is strict: an exact candidate later in the pool beats a
// tolerance candidate earlier in the pool.
func TestEngine_MatchLine_PassPriorityOverPoolOrder(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-001", 100.00, "USD", datePtr(2024, 3, 15))
	// Pass 4 candidate first in pool order, Pass 1 candidate second
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.50, "USD", nil),
		testInvoice("INV-001", 100.00, "USD", datePtr(2024, 3, 15)),
	}

	outcome := engine.MatchLine(line, pool)
	if outcome.Pass != PassExact {
		t.Fatalf("Expected the exact pass to win regardless of pool order, got pass %d", outcome.Pass)
	}
	if !outcome.Match.Invoice.TotalAmount.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("Expected the exact candidate to be selected, got %s", outcome.Match.Invoice.String())
	}
}

// Within a single pass, the first qualifying invoice in pool order wins.
func TestEngine_MatchLine_FirstHitWithinPass(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-001", 100.00, "USD", nil)

	first := testInvoice("INV-001", 100.00, "USD", nil)
	first.Status = models.StatusPending
	second := testInvoice("INV-001", 100.00, "USD", nil)
	second.Status = models.StatusApproved

	outcome := engine.MatchLine(line, []*models.Invoice{first, second})
	if !outcome.Matched() {
		t.Fatalf("Expected a match, got reason %q", outcome.Reason)
	}
	if outcome.Match.Invoice != first {
		t.Error("Expected the first qualifying invoice in pool order to win")
	}
}

func TestEngine_MatchLine_CurrencyMismatch(t *testing.T) {
	engine := NewEngine(&MatchingConfig{
		DateToleranceDays:       7,
		AbsoluteAmountTolerance: decimal.NewFromFloat(1.00),
		PercentAmountTolerance:  decimal.NewFromFloat(0.005),
		EnablePartialMatching:   true,
	})
	line := testLine("INV-001", 100.00, "USD", nil)
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.00, "EUR", nil),
	}

	outcome := engine.MatchLine(line, pool)
	if outcome.Matched() {
		t.Errorf("Expected currency mismatch to fail every pass, got pass %d", outcome.Pass)
	}
}

func TestEngine_MatchLine_NoMatch(t *testing.T) {
	engine := NewEngine(nil)
	line := testLine("INV-999", 100.00, "USD", nil)
	pool := []*models.Invoice{
		testInvoice("INV-001", 100.00, "USD", nil),
	}

	outcome := engine.MatchLine(line, pool)
	if outcome.Matched() {
		t.Fatal("Expected no match for an unknown document number")
	}
	if outcome.Pass != PassNone {
		t.Errorf("Expected pass %d, got %d", PassNone, outcome.Pass)
	}
	if outcome.Reason != ReasonNoMatch {
		t.Errorf("Expected reason %q, got %q", ReasonNoMatch, outcome.Reason)
	}
}

func TestMatchingConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    MatchingConfig
		wantError bool
	}{
		{
			"Defaults are valid",
			*DefaultMatchingConfig(),
			false,
		},
		{
			"Negative date tolerance",
			MatchingConfig{DateToleranceDays: -1},
			true,
		},
		{
			"Negative absolute tolerance",
			MatchingConfig{AbsoluteAmountTolerance: decimal.NewFromFloat(-0.01)},
			true,
		},
		{
			"Percent tolerance above one",
			MatchingConfig{PercentAmountTolerance: decimal.NewFromFloat(1.5)},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMatchingConfig_Clone(t *testing.T) {
	original := DefaultMatchingConfig()
	clone := original.Clone()

	clone.DateToleranceDays = 30
	if original.DateToleranceDays == 30 {
		t.Error("Expected clone mutation to leave the original untouched")
	}

	var nilConfig *MatchingConfig
	if nilConfig.Clone() != nil {
		t.Error("Expected nil config to clone to nil")
	}
}
