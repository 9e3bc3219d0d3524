// Package provider defines the boundary to the invoice data collaborator.
//
// Providers return raw invoice records that may use aliased field names
// (invoice_num vs invoice_number, amount vs total_amount, and so on); the
// canonicalization adapter in this package absorbs that aliasing so the
// matching passes only ever see the canonical models.Invoice shape.
package provider

import (
	"context"
	"fmt"
	"sync"

	"soa-matching-service/internal/models"
)

// FetchOptions narrows an invoice fetch. Statuses filters the pool to the
// given invoice statuses; an empty slice means the provider's default set
// (pending, approved, paid).
type FetchOptions struct {
	Statuses []models.InvoiceStatus
}

// DefaultStatuses returns the status set used when none is supplied.
func DefaultStatuses() []models.InvoiceStatus {
	return []models.InvoiceStatus{models.StatusPending, models.StatusApproved, models.StatusPaid}
}

// statusSet resolves the effective status filter as a lookup set.
func (o FetchOptions) statusSet() map[models.InvoiceStatus]bool {
	statuses := o.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses()
	}

	set := make(map[models.InvoiceStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// Provider fetches candidate invoice records for a vendor/company scope.
// Records are returned in store order; the matching engine preserves that
// order when scanning candidates.
type Provider interface {
	GetInvoices(ctx context.Context, vendorID, companyID string, opts FetchOptions) ([]RawInvoice, error)
}

// scopeKey identifies one vendor/company pool in the static provider.
type scopeKey struct {
	vendorID  string
	companyID string
}

// StaticProvider is an in-memory Provider backed by preloaded pools. It is
// used by the CLI (pools parsed from files) and by tests.
type StaticProvider struct {
	mu    sync.RWMutex
	pools map[scopeKey][]RawInvoice
}

// NewStaticProvider creates an empty StaticProvider
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{pools: make(map[scopeKey][]RawInvoice)}
}

// Load replaces the invoice pool for a vendor/company scope
func (p *StaticProvider) Load(vendorID, companyID string, invoices []RawInvoice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pools[scopeKey{vendorID, companyID}] = invoices
}

// GetInvoices returns the loaded pool filtered to the requested statuses.
// Records without a recognizable status field pass the filter; status
// filtering is a courtesy here, not a validation step.
func (p *StaticProvider) GetInvoices(ctx context.Context, vendorID, companyID string, opts FetchOptions) ([]RawInvoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	pool, ok := p.pools[scopeKey{vendorID, companyID}]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no invoice pool loaded for vendor %s, company %s", vendorID, companyID)
	}

	allowed := opts.statusSet()
	filtered := make([]RawInvoice, 0, len(pool))
	for _, raw := range pool {
		status, ok := rawStatus(raw)
		if ok && !allowed[status] {
			continue
		}
		filtered = append(filtered, raw)
	}

	return filtered, nil
}
