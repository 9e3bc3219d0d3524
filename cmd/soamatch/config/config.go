// Package config translates CLI flag values into the typed configurations
// used by the parsers, the matching engine and the reporter.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"soa-matching-service/internal/matcher"
	"soa-matching-service/internal/models"
	"soa-matching-service/internal/parsers"
	"soa-matching-service/internal/reporter"
)

// CreateStatementParserConfig returns the statement parser configuration used
// by the CLI. The default alias map already covers the common statement
// export headers.
func CreateStatementParserConfig() *parsers.StatementParserConfig {
	return parsers.DefaultStatementParserConfig()
}

// CreateMatchingConfig creates a matching configuration with the specified
// tolerances applied over the defaults
func CreateMatchingConfig(dateTolerance int, absTolerance, pctTolerance float64, allowPartial bool) *matcher.MatchingConfig {
	config := matcher.DefaultMatchingConfig()

	// Apply CLI overrides
	config.DateToleranceDays = dateTolerance
	config.AbsoluteAmountTolerance = decimal.NewFromFloat(absTolerance)
	config.PercentAmountTolerance = decimal.NewFromFloat(pctTolerance)
	config.EnablePartialMatching = allowPartial

	return config
}

// ParseStatuses converts status flag values into typed invoice statuses. An
// empty slice means the provider's default set.
func ParseStatuses(values []string) ([]models.InvoiceStatus, error) {
	if len(values) == 0 {
		return nil, nil
	}

	statuses := make([]models.InvoiceStatus, 0, len(values))
	for _, v := range values {
		status, err := models.ParseInvoiceStatus(v)
		if err != nil {
			return nil, fmt.Errorf("invalid status filter: %w", err)
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// CreateReportConfig creates a report configuration for the specified output
// format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	return config
}
