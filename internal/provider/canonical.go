package provider

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"soa-matching-service/internal/models"
)

// RawInvoice is an invoice record as returned by a data collaborator, before
// field-name aliasing has been absorbed. Values are whatever the source
// produced: strings, numbers, or parsed types.
type RawInvoice map[string]any

// Field-name aliases accepted from source systems, in lookup order. The
// canonical name is always tried first.
var (
	numberAliases   = []string{"invoice_number", "invoice_num", "number", "doc_number", "document_number"}
	amountAliases   = []string{"total_amount", "amount", "invoice_amount", "total"}
	currencyAliases = []string{"currency", "currency_code"}
	dateAliases     = []string{"invoice_date", "date", "issued_date"}
	statusAliases   = []string{"status", "invoice_status"}
)

// CanonicalizeInvoice converts a raw collaborator record into the canonical
// Invoice shape. Aliasing is absorbed here, once, so the matching passes
// never branch on field names.
//
// Canonicalization is deliberately lenient: a missing or unparseable optional
// field becomes its zero value (nil date, empty status) rather than an error,
// and a missing currency defaults to USD so currency comparison never fails
// on absence alone.
func CanonicalizeInvoice(raw RawInvoice) *models.Invoice {
	inv := &models.Invoice{
		InvoiceNumber: lookupString(raw, numberAliases),
		TotalAmount:   lookupAmount(raw, amountAliases),
		Currency:      lookupString(raw, currencyAliases),
	}

	if inv.Currency == "" {
		inv.Currency = models.DefaultCurrency
	}

	if date, ok := lookupDate(raw, dateAliases); ok {
		inv.InvoiceDate = &date
	}

	if status, ok := rawStatus(raw); ok {
		inv.Status = status
	}

	return inv
}

// CanonicalizeInvoices converts a slice of raw records, preserving order.
func CanonicalizeInvoices(raws []RawInvoice) []*models.Invoice {
	invoices := make([]*models.Invoice, 0, len(raws))
	for _, raw := range raws {
		invoices = append(invoices, CanonicalizeInvoice(raw))
	}
	return invoices
}

// rawStatus extracts a valid invoice status from a raw record, if present.
func rawStatus(raw RawInvoice) (models.InvoiceStatus, bool) {
	s := lookupString(raw, statusAliases)
	if s == "" {
		return "", false
	}

	status, err := models.ParseInvoiceStatus(s)
	if err != nil {
		return "", false
	}
	return status, true
}

func lookupString(raw RawInvoice, aliases []string) string {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func lookupAmount(raw RawInvoice, aliases []string) decimal.Decimal {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}

		switch val := v.(type) {
		case decimal.Decimal:
			return val
		case string:
			if d, err := models.ParseDecimalFromString(val); err == nil {
				return d
			}
		case float64:
			return decimal.NewFromFloat(val)
		case int:
			return decimal.NewFromInt(int64(val))
		case int64:
			return decimal.NewFromInt(val)
		}
	}
	return decimal.Zero
}

func lookupDate(raw RawInvoice, aliases []string) (time.Time, bool) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}

		switch val := v.(type) {
		case time.Time:
			return val, true
		case *time.Time:
			if val != nil {
				return *val, true
			}
		case string:
			if t, err := models.ParseDateWithFormats(val); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
