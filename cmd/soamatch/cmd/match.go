package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"soa-matching-service/cmd/soamatch/config"
	"soa-matching-service/internal/parsers"
	"soa-matching-service/internal/provider"
	"soa-matching-service/internal/reconciler"
	"soa-matching-service/internal/reporter"
)

// Flags for the match command
var (
	statementFile string
	invoicesFile  string
	invoicesDB    string
	vendorID      string
	companyID     string
	outputFormat  string
	outputFile    string
	dateTolerance int
	absTolerance  float64
	pctTolerance  float64
	allowPartial  bool
	statusFilter  []string
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match statement-of-account lines against candidate invoices",
	Long: `Match runs the five-pass matching pipeline over a vendor statement of
account. Each statement line is matched against at most one invoice from
the vendor/company pool, in strict pass priority order.

This command requires:
- A statement line file (CSV format)
- An invoice source: either a CSV export or a SQLite database

Examples:
  # Match against a CSV invoice export
  soamatch match --statement-file soa.csv --invoices-file invoices.csv \
    --vendor-id V100 --company-id C200

  # Match against a SQLite invoice store, JSON output
  soamatch match --statement-file soa.csv --invoices-db invoices.db \
    --vendor-id V100 --company-id C200 --output-format json

  # Widen the date window and opt every line into partial matching
  soamatch match --statement-file soa.csv --invoices-file invoices.csv \
    --vendor-id V100 --company-id C200 --date-tolerance 14 --allow-partial

  # Only consider approved invoices
  soamatch match --statement-file soa.csv --invoices-file invoices.csv \
    --vendor-id V100 --company-id C200 --statuses approved`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	// Required flags
	matchCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to statement line CSV file (required)")
	matchCmd.Flags().StringVarP(&invoicesFile, "invoices-file", "i", "", "path to invoice CSV export")
	matchCmd.Flags().StringVar(&invoicesDB, "invoices-db", "", "path to SQLite invoice database")
	matchCmd.Flags().StringVar(&vendorID, "vendor-id", "", "vendor identifier for the invoice pool (required)")
	matchCmd.Flags().StringVar(&companyID, "company-id", "", "company identifier for the invoice pool (required)")

	// Output flags
	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	matchCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 7, "date matching tolerance in days")
	matchCmd.Flags().Float64Var(&absTolerance, "amount-tolerance", 1.00, "absolute amount tolerance")
	matchCmd.Flags().Float64Var(&pctTolerance, "percent-tolerance", 0.005, "relative amount tolerance as a fraction (0.005 = 0.5%)")
	matchCmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "enable partial/split payment matching for all lines")
	matchCmd.Flags().StringSliceVar(&statusFilter, "statuses", nil, "invoice statuses to consider (default: pending, approved, paid)")

	// Mark required flags
	matchCmd.MarkFlagRequired("statement-file")
	matchCmd.MarkFlagRequired("vendor-id")
	matchCmd.MarkFlagRequired("company-id")

	// Bind flags to viper
	viper.BindPFlag("statement-file", matchCmd.Flags().Lookup("statement-file"))
	viper.BindPFlag("invoices-file", matchCmd.Flags().Lookup("invoices-file"))
	viper.BindPFlag("invoices-db", matchCmd.Flags().Lookup("invoices-db"))
	viper.BindPFlag("vendor-id", matchCmd.Flags().Lookup("vendor-id"))
	viper.BindPFlag("company-id", matchCmd.Flags().Lookup("company-id"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("date-tolerance", matchCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("amount-tolerance", matchCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("percent-tolerance", matchCmd.Flags().Lookup("percent-tolerance"))
	viper.BindPFlag("allow-partial", matchCmd.Flags().Lookup("allow-partial"))
	viper.BindPFlag("statuses", matchCmd.Flags().Lookup("statuses"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	statementFile = viper.GetString("statement-file")
	invoicesFile = viper.GetString("invoices-file")
	invoicesDB = viper.GetString("invoices-db")
	vendorID = viper.GetString("vendor-id")
	companyID = viper.GetString("company-id")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	dateTolerance = viper.GetInt("date-tolerance")
	absTolerance = viper.GetFloat64("amount-tolerance")
	pctTolerance = viper.GetFloat64("percent-tolerance")
	allowPartial = viper.GetBool("allow-partial")
	statusFilter = viper.GetStringSlice("statuses")

	// Validate required flags
	if statementFile == "" {
		return fmt.Errorf("statement-file is required")
	}
	if vendorID == "" {
		return fmt.Errorf("vendor-id is required")
	}
	if companyID == "" {
		return fmt.Errorf("company-id is required")
	}

	// Exactly one invoice source
	if invoicesFile == "" && invoicesDB == "" {
		return fmt.Errorf("an invoice source is required: provide --invoices-file or --invoices-db")
	}
	if invoicesFile != "" && invoicesDB != "" {
		return fmt.Errorf("--invoices-file and --invoices-db are mutually exclusive")
	}

	// Validate file existence
	if err := validateFileExists(statementFile, "statement file"); err != nil {
		return err
	}
	if invoicesFile != "" {
		if err := validateFileExists(invoicesFile, "invoice file"); err != nil {
			return err
		}
	}
	if invoicesDB != "" {
		if err := validateFileExists(invoicesDB, "invoice database"); err != nil {
			return err
		}
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// Validate tolerances
	if dateTolerance < 0 {
		return fmt.Errorf("date tolerance cannot be negative")
	}
	if absTolerance < 0 {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	if pctTolerance < 0 || pctTolerance > 1 {
		return fmt.Errorf("percent tolerance must be a fraction between 0 and 1")
	}

	// Validate statuses
	if _, err := config.ParseStatuses(statusFilter); err != nil {
		return err
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting statement matching...\n")
		fmt.Fprintf(os.Stderr, "Statement file: %s\n", statementFile)
		if invoicesFile != "" {
			fmt.Fprintf(os.Stderr, "Invoice file: %s\n", invoicesFile)
		} else {
			fmt.Fprintf(os.Stderr, "Invoice database: %s\n", invoicesDB)
		}
		fmt.Fprintf(os.Stderr, "Scope: vendor %s, company %s\n", vendorID, companyID)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
	}

	// Parse statement lines
	statementParser, err := parsers.NewStatementParser(config.CreateStatementParserConfig())
	if err != nil {
		return fmt.Errorf("failed to create statement parser: %w", err)
	}

	lines, err := statementParser.ParseFile(statementFile)
	if err != nil {
		return fmt.Errorf("failed to parse statement file: %w", err)
	}
	if len(lines) == 0 {
		return fmt.Errorf("statement file contains no lines: %s", statementFile)
	}

	// Build the invoice provider
	invoiceProvider, cleanup, err := buildProvider()
	if err != nil {
		return err
	}
	defer cleanup()

	statuses, err := config.ParseStatuses(statusFilter)
	if err != nil {
		return err
	}

	// Create the matching service
	matchingConfig := config.CreateMatchingConfig(dateTolerance, absTolerance, pctTolerance, allowPartial)
	service, err := reconciler.NewMatchingService(invoiceProvider, matchingConfig, statuses)
	if err != nil {
		return fmt.Errorf("failed to create matching service: %w", err)
	}

	// Run the batch
	outcomes := service.MatchLines(ctx, lines, vendorID, companyID)

	// Generate report
	reportConfig := config.CreateReportConfig(outputFormat)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReport(outcomes, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Show completion message
	if viper.GetBool("verbose") {
		summary := reconciler.Summarize(outcomes)
		fmt.Fprintf(os.Stderr, "\nMatching completed.\n")
		fmt.Fprintf(os.Stderr, "Processed %d lines: %d matched, %d errored.\n",
			summary.TotalLines, summary.MatchedLines, summary.ErrorLines)
	}

	return nil
}

// buildProvider constructs the invoice provider for the selected source. The
// returned cleanup releases any resources the provider holds.
func buildProvider() (provider.Provider, func(), error) {
	if invoicesDB != "" {
		p, err := provider.NewSQLiteProvider(invoicesDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open invoice database: %w", err)
		}
		return p, func() { p.Close() }, nil
	}

	invoiceParser := parsers.NewInvoiceParser()
	raws, err := invoiceParser.ParseFile(invoicesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse invoice file: %w", err)
	}

	p := provider.NewStaticProvider()
	p.Load(vendorID, companyID, raws)
	return p, func() {}, nil
}
