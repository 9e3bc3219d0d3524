// Package reporter renders batch matching results for human and programmatic
// consumption.
//
// Supported output formats:
//   - Console: human-readable summary and per-line table
//   - JSON: structured outcome data for downstream systems
//   - CSV: per-line rows for spreadsheet review
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"soa-matching-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeMatched controls whether matched lines appear in the per-line
	// sections; the summary always covers the whole batch.
	IncludeMatched   bool `json:"include_matched"`
	IncludeUnmatched bool `json:"include_unmatched"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeMatched:   true,
		IncludeUnmatched: true,
		CSVDelimiter:     ',',
		CSVHeaders:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders batch matching outcomes
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// Report bundles a batch result with its summary for structured output.
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Summary     *reconciler.BatchSummary  `json:"summary"`
	Lines       []*reconciler.LineOutcome `json:"lines"`
}

// GenerateReport renders the batch outcomes to the provided writer
func (rg *ReportGenerator) GenerateReport(outcomes []*reconciler.LineOutcome, writer io.Writer) error {
	if outcomes == nil {
		return fmt.Errorf("batch outcomes cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(outcomes, writer)
	case FormatJSON:
		return rg.generateJSONReport(outcomes, writer)
	case FormatCSV:
		return rg.generateCSVReport(outcomes, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(outcomes []*reconciler.LineOutcome, writer io.Writer) error {
	summary := reconciler.Summarize(outcomes)

	fmt.Fprintf(writer, "STATEMENT MATCHING REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Total lines:     %d\n", summary.TotalLines)
	fmt.Fprintf(writer, "Matched lines:   %d\n", summary.MatchedLines)
	fmt.Fprintf(writer, "Unmatched lines: %d\n", summary.TotalLines-summary.MatchedLines-summary.ErrorLines)
	fmt.Fprintf(writer, "Error lines:     %d\n", summary.ErrorLines)
	fmt.Fprintf(writer, "Matched amount:  %s\n\n", matchedAmount(outcomes).StringFixed(2))

	fmt.Fprintf(writer, "=== MATCHES BY PASS ===\n")
	for pass := 1; pass <= 5; pass++ {
		if count := summary.ByPass[pass]; count > 0 {
			fmt.Fprintf(writer, "Pass %d: %d\n", pass, count)
		}
	}
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeMatched {
		fmt.Fprintf(writer, "=== MATCHED LINES ===\n")
		for _, lo := range outcomes {
			if !lo.Matched() {
				continue
			}
			match := lo.Outcome.Match
			fmt.Fprintf(writer, "%-20s -> %-20s pass=%d score=%d type=%s\n",
				lo.Line.InvoiceNumber, match.Invoice.InvoiceNumber,
				match.Pass, match.MatchScore, match.MatchType)
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatched {
		fmt.Fprintf(writer, "=== UNMATCHED LINES ===\n")
		for _, lo := range outcomes {
			if lo.Matched() {
				continue
			}
			reason := lo.Outcome.Reason
			if lo.Error != "" {
				reason = fmt.Sprintf("%s: %s", reason, lo.Error)
			}
			fmt.Fprintf(writer, "%-20s %s %s  %s\n",
				lo.Line.InvoiceNumber, lo.Line.Amount.StringFixed(2), lo.Line.Currency, reason)
		}
		fmt.Fprintf(writer, "\n")
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(outcomes []*reconciler.LineOutcome, writer io.Writer) error {
	report := &Report{
		GeneratedAt: time.Now(),
		Summary:     reconciler.Summarize(outcomes),
		Lines:       outcomes,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateCSVReport(outcomes []*reconciler.LineOutcome, writer io.Writer) error {
	w := csv.NewWriter(writer)
	w.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		header := []string{
			"statement_invoice_number", "statement_amount", "currency",
			"matched", "matched_invoice_number", "pass", "confidence",
			"match_score", "match_type", "reason", "error",
		}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, lo := range outcomes {
		row := []string{
			lo.Line.InvoiceNumber,
			lo.Line.Amount.StringFixed(2),
			lo.Line.Currency,
			strconv.FormatBool(lo.Matched()),
			"", "", "", "", "",
			lo.Outcome.Reason,
			lo.Error,
		}

		if lo.Matched() {
			match := lo.Outcome.Match
			row[4] = match.Invoice.InvoiceNumber
			row[5] = strconv.Itoa(match.Pass)
			row[6] = strconv.FormatFloat(match.Confidence, 'f', 2, 64)
			row[7] = strconv.Itoa(match.MatchScore)
			row[8] = string(match.MatchType)
		}

		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// matchedAmount totals the statement amounts of matched lines. Partial
// matches contribute the statement amount, not the invoice total.
func matchedAmount(outcomes []*reconciler.LineOutcome) decimal.Decimal {
	total := decimal.Zero
	for _, lo := range outcomes {
		if lo.Matched() {
			total = total.Add(lo.Line.Amount)
		}
	}
	return total
}
