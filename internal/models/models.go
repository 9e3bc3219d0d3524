// Package models defines the canonical data shapes used by the SOA matching
// engine: statement lines as written on a vendor statement of account, and
// the canonical invoice record every matching pass operates on.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed whenever a statement line or invoice record
// arrives without an explicit currency code.
const DefaultCurrency = "USD"

// InvoiceStatus represents the lifecycle status of an invoice record.
type InvoiceStatus string

const (
	// StatusPending marks an invoice awaiting approval.
	StatusPending InvoiceStatus = "pending"
	// StatusApproved marks an invoice approved for payment.
	StatusApproved InvoiceStatus = "approved"
	// StatusPaid marks an invoice that has been settled.
	StatusPaid InvoiceStatus = "paid"
)

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid checks if the invoice status is one of the matchable statuses
func (s InvoiceStatus) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusPaid
}

// ParseInvoiceStatus parses and validates an invoice status from string
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid invoice status '%s': must be pending, approved or paid", s)
	}
	return status, nil
}

// MatchMode controls how a statement line asks to be matched.
type MatchMode string

const (
	// MatchModeDefault runs the standard pass pipeline without partial matching.
	MatchModeDefault MatchMode = ""
	// MatchModePartial opts the line into partial/split-payment matching (Pass 5).
	MatchModePartial MatchMode = "partial"
)

// StatementLine represents one line item on a vendor statement of account.
// Lines are read-only inputs to the matching engine.
type StatementLine struct {
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	InvoiceDate   *time.Time      `json:"invoice_date,omitempty"`
	AllowPartial  bool            `json:"allow_partial,omitempty"`
	MatchMode     MatchMode       `json:"match_mode,omitempty"`
}

// NewStatementLine creates a StatementLine with the default currency applied
func NewStatementLine(invoiceNumber string, amount decimal.Decimal, currency string) *StatementLine {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return &StatementLine{
		InvoiceNumber: invoiceNumber,
		Amount:        amount,
		Currency:      currency,
	}
}

// Validate performs basic validation on the StatementLine
func (sl *StatementLine) Validate() error {
	if strings.TrimSpace(sl.InvoiceNumber) == "" {
		return fmt.Errorf("statement line invoice number cannot be empty")
	}

	if sl.Amount.IsZero() {
		return fmt.Errorf("statement line amount cannot be zero")
	}

	if sl.Amount.IsNegative() {
		return fmt.Errorf("statement line amount cannot be negative")
	}

	if strings.TrimSpace(sl.Currency) == "" {
		return fmt.Errorf("statement line currency cannot be empty")
	}

	return nil
}

// PartialMatchEnabled reports whether this line opts into partial matching
// via either the allow_partial flag or the partial match mode.
func (sl *StatementLine) PartialMatchEnabled() bool {
	return sl.AllowPartial || sl.MatchMode == MatchModePartial
}

// String returns a string representation of the StatementLine
func (sl *StatementLine) String() string {
	date := "none"
	if sl.InvoiceDate != nil {
		date = sl.InvoiceDate.Format("2006-01-02")
	}
	return fmt.Sprintf("StatementLine{Invoice: %s, Amount: %s %s, Date: %s}",
		sl.InvoiceNumber, sl.Amount.String(), sl.Currency, date)
}

// MarshalJSON implements custom JSON marshaling for StatementLine
func (sl *StatementLine) MarshalJSON() ([]byte, error) {
	type Alias StatementLine
	aux := &struct {
		Amount      string `json:"amount"`
		InvoiceDate string `json:"invoice_date,omitempty"`
		*Alias
	}{
		Amount: sl.Amount.String(),
		Alias:  (*Alias)(sl),
	}
	if sl.InvoiceDate != nil {
		aux.InvoiceDate = sl.InvoiceDate.Format("2006-01-02")
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements custom JSON unmarshaling for StatementLine
func (sl *StatementLine) UnmarshalJSON(data []byte) error {
	type Alias StatementLine
	aux := &struct {
		Amount      string `json:"amount"`
		InvoiceDate string `json:"invoice_date,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(sl),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	sl.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	if aux.InvoiceDate != "" {
		date, err := ParseDateWithFormats(aux.InvoiceDate)
		if err != nil {
			return fmt.Errorf("invalid invoice date format: %w", err)
		}
		sl.InvoiceDate = &date
	}

	if sl.Currency == "" {
		sl.Currency = DefaultCurrency
	}

	return nil
}

// Invoice is the canonical invoice record every matching pass operates on.
// Field-name aliasing from source systems is absorbed before an Invoice is
// constructed; passes never see raw collaborator records.
type Invoice struct {
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	InvoiceDate   *time.Time      `json:"invoice_date,omitempty"`
	Status        InvoiceStatus   `json:"status,omitempty"`
}

// NewInvoice creates an Invoice with the default currency applied
func NewInvoice(invoiceNumber string, totalAmount decimal.Decimal, currency string) *Invoice {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return &Invoice{
		InvoiceNumber: invoiceNumber,
		TotalAmount:   totalAmount,
		Currency:      currency,
	}
}

// String returns a string representation of the Invoice
func (inv *Invoice) String() string {
	date := "none"
	if inv.InvoiceDate != nil {
		date = inv.InvoiceDate.Format("2006-01-02")
	}
	return fmt.Sprintf("Invoice{Number: %s, Total: %s %s, Date: %s, Status: %s}",
		inv.InvoiceNumber, inv.TotalAmount.String(), inv.Currency, date, inv.Status)
}

// MarshalJSON implements custom JSON marshaling for Invoice
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	aux := &struct {
		TotalAmount string `json:"total_amount"`
		InvoiceDate string `json:"invoice_date,omitempty"`
		*Alias
	}{
		TotalAmount: inv.TotalAmount.String(),
		Alias:       (*Alias)(inv),
	}
	if inv.InvoiceDate != nil {
		aux.InvoiceDate = inv.InvoiceDate.Format("2006-01-02")
	}
	return json.Marshal(aux)
}

// Equals compares two Invoice instances for equality
func (inv *Invoice) Equals(other *Invoice) bool {
	if other == nil {
		return false
	}

	if (inv.InvoiceDate == nil) != (other.InvoiceDate == nil) {
		return false
	}
	if inv.InvoiceDate != nil &&
		inv.InvoiceDate.Format("2006-01-02") != other.InvoiceDate.Format("2006-01-02") {
		return false
	}

	return inv.InvoiceNumber == other.InvoiceNumber &&
		inv.TotalAmount.Equal(other.TotalAmount) &&
		inv.Currency == other.Currency &&
		inv.Status == other.Status
}

// Utility functions for type conversion

// ParseDecimalFromString parses a decimal value from string, tolerating
// currency symbols and thousand separators
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a calendar date from string using
// the formats commonly seen in statement and invoice exports
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// ParseBoolFlag parses truthy flag values used in statement exports
func ParseBoolFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}
