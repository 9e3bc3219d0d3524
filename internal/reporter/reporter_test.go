package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"soa-matching-service/internal/matcher"
	"soa-matching-service/internal/models"
	"soa-matching-service/internal/reconciler"
)

func testOutcomes() []*reconciler.LineOutcome {
	matchedLine := &models.StatementLine{
		InvoiceNumber: "INV-001",
		Amount:        decimal.NewFromFloat(100.00),
		Currency:      "USD",
	}
	matchedInvoice := &models.Invoice{
		InvoiceNumber: "INV-001",
		TotalAmount:   decimal.NewFromFloat(100.00),
		Currency:      "USD",
	}

	unmatchedLine := &models.StatementLine{
		InvoiceNumber: "INV-999",
		Amount:        decimal.NewFromFloat(55.00),
		Currency:      "USD",
	}

	erroredLine := &models.StatementLine{
		InvoiceNumber: "INV-BAD",
		Amount:        decimal.NewFromFloat(10.00),
		Currency:      "USD",
	}

	return []*reconciler.LineOutcome{
		{
			Line: matchedLine,
			Outcome: &matcher.MatchOutcome{
				Match: &matcher.MatchResult{
					Invoice:    matchedInvoice,
					MatchType:  matcher.MatchDeterministic,
					Confidence: 1.00,
					MatchScore: 100,
					Pass:       matcher.PassExact,
				},
				Pass:   matcher.PassExact,
				Reason: matcher.ReasonExactMatch,
			},
		},
		{
			Line: unmatchedLine,
			Outcome: &matcher.MatchOutcome{
				Pass:   matcher.PassNone,
				Reason: matcher.ReasonNoMatch,
			},
		},
		{
			Line: erroredLine,
			Outcome: &matcher.MatchOutcome{
				Pass:   matcher.PassNone,
				Reason: matcher.ReasonErrorDuringMatch,
			},
			Error: "store unavailable",
		},
	}
}

func TestNewReportGenerator(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("Expected nil config to use defaults: %v", err)
	}
	if rg == nil {
		t.Fatal("Expected a generator")
	}

	bad := &ReportConfig{Format: "xml"}
	if _, err := NewReportGenerator(bad); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

func TestReportGenerator_ConsoleReport(t *testing.T) {
	rg, err := NewReportGenerator(DefaultReportConfig())
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(testOutcomes(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"SUMMARY",
		"Total lines:     3",
		"Matched lines:   1",
		"Error lines:     1",
		"Pass 1: 1",
		"INV-001",
		"INV-999",
		"store unavailable",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected console output to contain %q\noutput:\n%s", want, output)
		}
	}
}

func TestReportGenerator_JSONReport(t *testing.T) {
	rg, err := NewReportGenerator(&ReportConfig{
		Format:           FormatJSON,
		IncludeMatched:   true,
		IncludeUnmatched: true,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(testOutcomes(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	var report Report
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("Expected valid JSON output: %v", err)
	}

	if report.Summary == nil || report.Summary.TotalLines != 3 {
		t.Errorf("Expected summary with 3 lines, got %+v", report.Summary)
	}
	if len(report.Lines) != 3 {
		t.Errorf("Expected 3 line entries, got %d", len(report.Lines))
	}
	if report.Lines[2].Error != "store unavailable" {
		t.Errorf("Expected the error entry to survive encoding, got %q", report.Lines[2].Error)
	}
}

func TestReportGenerator_CSVReport(t *testing.T) {
	rg, err := NewReportGenerator(&ReportConfig{
		Format:       FormatCSV,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(testOutcomes(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Expected valid CSV output: %v", err)
	}

	// Header plus one row per outcome
	if len(records) != 4 {
		t.Fatalf("Expected 4 CSV records, got %d", len(records))
	}
	if records[0][0] != "statement_invoice_number" {
		t.Errorf("Unexpected header row: %v", records[0])
	}

	matched := records[1]
	if matched[3] != "true" || matched[4] != "INV-001" || matched[5] != "1" {
		t.Errorf("Unexpected matched row: %v", matched)
	}

	unmatched := records[2]
	if unmatched[3] != "false" || unmatched[4] != "" {
		t.Errorf("Unexpected unmatched row: %v", unmatched)
	}

	errored := records[3]
	if errored[10] != "store unavailable" {
		t.Errorf("Expected the error column to be populated, got %v", errored)
	}
}

func TestReportGenerator_NilOutcomes(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(nil, &buf); err == nil {
		t.Error("Expected an error for nil outcomes")
	}
}
