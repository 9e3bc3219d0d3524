package provider

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteProvider fetches invoice records from a local SQLite database, the
// stand-in for the accounts-payable data store. Rows come back as raw records
// so canonicalization stays in one place downstream.
//
// Expected schema:
//
//	CREATE TABLE invoices (
//		vendor_id      TEXT NOT NULL,
//		company_id     TEXT NOT NULL,
//		invoice_number TEXT NOT NULL,
//		total_amount   TEXT NOT NULL,
//		currency       TEXT,
//		invoice_date   TEXT,
//		status         TEXT NOT NULL
//	);
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLiteProvider opens the database at path
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoice database %s: %w", path, err)
	}

	return &SQLiteProvider{db: db}, nil
}

// NewSQLiteProviderFromDB wraps an existing database handle
func NewSQLiteProviderFromDB(db *sql.DB) *SQLiteProvider {
	return &SQLiteProvider{db: db}
}

// Close releases the underlying database handle
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// GetInvoices returns the invoice pool for a vendor/company scope filtered to
// the requested statuses, in insertion (rowid) order.
func (p *SQLiteProvider) GetInvoices(ctx context.Context, vendorID, companyID string, opts FetchOptions) ([]RawInvoice, error) {
	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses()
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`SELECT invoice_number, total_amount, currency, invoice_date, status
		FROM invoices
		WHERE vendor_id = ? AND company_id = ? AND status IN (%s)
		ORDER BY rowid`, placeholders)

	args := make([]any, 0, len(statuses)+2)
	args = append(args, vendorID, companyID)
	for _, s := range statuses {
		args = append(args, s.String())
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices for vendor %s, company %s: %w", vendorID, companyID, err)
	}
	defer rows.Close()

	var invoices []RawInvoice
	for rows.Next() {
		var (
			number   string
			amount   string
			currency sql.NullString
			date     sql.NullString
			status   string
		)
		if err := rows.Scan(&number, &amount, &currency, &date, &status); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}

		raw := RawInvoice{
			"invoice_number": number,
			"total_amount":   amount,
			"status":         status,
		}
		if currency.Valid {
			raw["currency"] = currency.String
		}
		if date.Valid {
			raw["invoice_date"] = date.String
		}

		invoices = append(invoices, raw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invoice rows: %w", err)
	}

	return invoices, nil
}
