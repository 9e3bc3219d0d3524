// Package parsers reads statement-of-account lines and invoice records from
// CSV exports, tolerating the header aliasing and date-format variation seen
// in real vendor and accounting exports.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"soa-matching-service/internal/models"
	"soa-matching-service/internal/provider"
	"soa-matching-service/pkg/errors"
	"soa-matching-service/pkg/logger"
)

// StatementParserConfig configures parsing of statement line CSV files.
type StatementParserConfig struct {
	InvoiceNumberColumn string
	AmountColumn        string
	CurrencyColumn      string
	InvoiceDateColumn   string
	AllowPartialColumn  string
	MatchModeColumn     string
	Delimiter           rune

	// ColumnAliases maps alternative header names onto the canonical ones.
	ColumnAliases map[string]string
}

// DefaultStatementParserConfig returns a configuration covering the headers
// commonly seen in statement exports
func DefaultStatementParserConfig() *StatementParserConfig {
	return &StatementParserConfig{
		InvoiceNumberColumn: "invoice_number",
		AmountColumn:        "amount",
		CurrencyColumn:      "currency",
		InvoiceDateColumn:   "invoice_date",
		AllowPartialColumn:  "allow_partial",
		MatchModeColumn:     "match_mode",
		Delimiter:           ',',
		ColumnAliases: map[string]string{
			"invoice_num":     "invoice_number",
			"invoice_no":      "invoice_number",
			"doc_number":      "invoice_number",
			"document_number": "invoice_number",
			"amt":             "amount",
			"value":           "amount",
			"total":           "amount",
			"currency_code":   "currency",
			"date":            "invoice_date",
			"statement_date":  "invoice_date",
			"partial":         "allow_partial",
			"mode":            "match_mode",
		},
	}
}

// Validate checks the parser configuration
func (c *StatementParserConfig) Validate() error {
	if strings.TrimSpace(c.InvoiceNumberColumn) == "" {
		return fmt.Errorf("invoice number column is required")
	}
	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column is required")
	}
	return nil
}

// StatementParser parses statement line CSV files.
type StatementParser struct {
	config *StatementParserConfig
	logger logger.Logger
}

// NewStatementParser creates a statement parser
func NewStatementParser(config *StatementParserConfig) (*StatementParser, error) {
	if config == nil {
		config = DefaultStatementParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("statement_parser", config, err)
	}

	return &StatementParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("statement_parser"),
	}, nil
}

// ParseFile reads statement lines from a CSV file
func (p *StatementParser) ParseFile(path string) ([]*models.StatementLine, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFileRead, path, err)
	}
	defer file.Close()

	lines, err := p.Parse(file, path)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logger.Fields{
		"file":  path,
		"lines": len(lines),
	}).Info("Parsed statement file")

	return lines, nil
}

// Parse reads statement lines from a reader. The first row must be a header;
// aliased header names are resolved through the configured alias map.
func (p *StatementParser) Parse(r io.Reader, name string) ([]*models.StatementLine, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 1, "", "", err)
	}

	columns := resolveHeader(header, p.config.ColumnAliases)
	if _, ok := columns[p.config.InvoiceNumberColumn]; !ok {
		return nil, errors.ParseError(errors.CodeMissingColumn, name, 1, p.config.InvoiceNumberColumn, "", nil)
	}
	if _, ok := columns[p.config.AmountColumn]; !ok {
		return nil, errors.ParseError(errors.CodeMissingColumn, name, 1, p.config.AmountColumn, "", nil)
	}

	var lines []*models.StatementLine
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, name, lineNum, "", "", err)
		}

		if isEmptyRecord(record) {
			continue
		}

		amountStr := fieldAt(record, columns, p.config.AmountColumn)
		amount, err := models.ParseDecimalFromString(amountStr)
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, name, lineNum, p.config.AmountColumn, amountStr, err)
		}

		line := models.NewStatementLine(
			fieldAt(record, columns, p.config.InvoiceNumberColumn),
			amount,
			fieldAt(record, columns, p.config.CurrencyColumn),
		)

		if dateStr := fieldAt(record, columns, p.config.InvoiceDateColumn); dateStr != "" {
			date, err := models.ParseDateWithFormats(dateStr)
			if err != nil {
				return nil, errors.ParseError(errors.CodeInvalidData, name, lineNum, p.config.InvoiceDateColumn, dateStr, err)
			}
			line.InvoiceDate = &date
		}

		line.AllowPartial = models.ParseBoolFlag(fieldAt(record, columns, p.config.AllowPartialColumn))
		line.MatchMode = models.MatchMode(strings.ToLower(fieldAt(record, columns, p.config.MatchModeColumn)))

		lines = append(lines, line)
	}

	return lines, nil
}

// InvoiceParser parses invoice CSV exports into raw records. Canonicalization
// stays in the provider package; the parser only maps cells onto their header
// names so aliased exports flow through untouched.
type InvoiceParser struct {
	delimiter rune
	logger    logger.Logger
}

// NewInvoiceParser creates an invoice parser
func NewInvoiceParser() *InvoiceParser {
	return &InvoiceParser{
		delimiter: ',',
		logger:    logger.GetGlobalLogger().WithComponent("invoice_parser"),
	}
}

// ParseFile reads raw invoice records from a CSV file
func (p *InvoiceParser) ParseFile(path string) ([]provider.RawInvoice, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFileRead, path, err)
	}
	defer file.Close()

	invoices, err := p.Parse(file, path)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logger.Fields{
		"file":     path,
		"invoices": len(invoices),
	}).Info("Parsed invoice file")

	return invoices, nil
}

// Parse reads raw invoice records from a reader
func (p *InvoiceParser) Parse(r io.Reader, name string) ([]provider.RawInvoice, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 1, "", "", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var invoices []provider.RawInvoice
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, name, lineNum, "", "", err)
		}

		if isEmptyRecord(record) {
			continue
		}

		raw := make(provider.RawInvoice, len(headers))
		for i, h := range headers {
			if i >= len(record) {
				break
			}
			value := strings.TrimSpace(record[i])
			if value != "" {
				raw[h] = value
			}
		}

		invoices = append(invoices, raw)
	}

	return invoices, nil
}

// resolveHeader maps canonical column names onto record indexes, applying
// the alias map to non-canonical headers.
func resolveHeader(header []string, aliases map[string]string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	return columns
}

// fieldAt returns the trimmed cell for a canonical column, or "" if the
// column is absent from the file.
func fieldAt(record []string, columns map[string]int, column string) string {
	idx, ok := columns[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
