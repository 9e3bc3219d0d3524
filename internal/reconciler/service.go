// Package reconciler provides the service layer around the matching engine:
// fetching candidate invoices from the data collaborator, canonicalizing
// them, and running single-line and batch matching with per-line error
// isolation.
package reconciler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"soa-matching-service/internal/matcher"
	"soa-matching-service/internal/models"
	"soa-matching-service/internal/provider"
	"soa-matching-service/pkg/errors"
	"soa-matching-service/pkg/logger"
)

// LineOutcome pairs a statement line with its matching outcome. Every batch
// entry carries the original line, matched or not; Error is populated when
// matching failed for that line.
type LineOutcome struct {
	Line    *models.StatementLine `json:"line"`
	Outcome *matcher.MatchOutcome `json:"outcome"`
	Error   string                `json:"error,omitempty"`
}

// Matched reports whether the line ended with a match.
func (lo *LineOutcome) Matched() bool {
	return lo.Outcome != nil && lo.Outcome.Matched()
}

// MatchingService coordinates candidate fetching and pass-pipeline execution.
type MatchingService struct {
	engine   *matcher.Engine
	provider provider.Provider
	statuses []models.InvoiceStatus
	logger   logger.Logger
}

// NewMatchingService creates a matching service. A nil config uses the
// default tolerances; an empty status set fetches pending, approved and paid
// invoices.
func NewMatchingService(p provider.Provider, config *matcher.MatchingConfig, statuses []models.InvoiceStatus) (*MatchingService, error) {
	if p == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "provider", nil, nil).
			WithSuggestion("provide an invoice provider implementation")
	}

	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, errors.ConfigurationError("matching_config", config, err)
		}
	}

	return &MatchingService{
		engine:   matcher.NewEngine(config),
		provider: p,
		statuses: statuses,
		logger:   logger.GetGlobalLogger().WithComponent("matching_service"),
	}, nil
}

// Engine exposes the underlying matching engine, for callers that already
// hold a canonical invoice pool.
func (s *MatchingService) Engine() *matcher.Engine {
	return s.engine
}

// fetchPool fetches and canonicalizes the candidate pool for a scope.
func (s *MatchingService) fetchPool(ctx context.Context, vendorID, companyID string) ([]*models.Invoice, error) {
	raws, err := s.provider.GetInvoices(ctx, vendorID, companyID, provider.FetchOptions{Statuses: s.statuses})
	if err != nil {
		return nil, errors.ProviderError(errors.CodeFetchFailed, vendorID, companyID, err)
	}

	return provider.CanonicalizeInvoices(raws), nil
}

// MatchLine fetches the candidate pool for the vendor/company scope and runs
// the pass pipeline for a single statement line. Fetch failures propagate to
// the caller; the batch runner is the first layer that recovers from them.
func (s *MatchingService) MatchLine(ctx context.Context, line *models.StatementLine, vendorID, companyID string) (*matcher.MatchOutcome, error) {
	if err := line.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidLine, "statement_line", line.String(), err)
	}

	pool, err := s.fetchPool(ctx, vendorID, companyID)
	if err != nil {
		return nil, err
	}

	return s.engine.MatchLine(line, pool), nil
}

// MatchLines runs the pass pipeline for a batch of statement lines sharing
// one vendor/company scope. The candidate pool is fetched once and reused
// after the first successful fetch; a failed fetch is retried on the next
// line so one line's fetch failure never poisons the rest of the batch.
//
// Processing is strictly sequential and order-preserving: the result slice
// always has one entry per input line, in input order, and a single line's
// failure is downgraded to an error entry rather than aborting the batch.
func (s *MatchingService) MatchLines(ctx context.Context, lines []*models.StatementLine, vendorID, companyID string) []*LineOutcome {
	runID := uuid.New().String()
	log := s.logger.WithFields(logger.Fields{
		"run_id":     runID,
		"vendor_id":  vendorID,
		"company_id": companyID,
		"lines":      len(lines),
	})
	log.Info("Starting batch matching run")

	var pool []*models.Invoice
	poolReady := false

	outcomes := make([]*LineOutcome, 0, len(lines))
	matched := 0

	for i, line := range lines {
		lineLog := log.WithFields(logger.Fields{
			"line_index":     i,
			"invoice_number": line.InvoiceNumber,
		})

		if err := line.Validate(); err != nil {
			lineLog.WithError(err).Error("Statement line failed validation")
			outcomes = append(outcomes, errorOutcome(line, err))
			continue
		}

		if !poolReady {
			fetched, err := s.fetchPool(ctx, vendorID, companyID)
			if err != nil {
				lineLog.WithError(err).Error("Failed to fetch candidate invoices")
				outcomes = append(outcomes, errorOutcome(line, err))
				continue
			}
			pool = fetched
			poolReady = true
		}

		outcome := s.engine.MatchLine(line, pool)
		if outcome.Matched() {
			matched++
			lineLog.WithFields(logger.Fields{
				"pass":       outcome.Pass,
				"confidence": outcome.Match.Confidence,
			}).Debug("Line matched")
		} else {
			lineLog.WithField("reason", outcome.Reason).Debug("Line did not match")
		}

		outcomes = append(outcomes, &LineOutcome{Line: line, Outcome: outcome})
	}

	log.WithFields(logger.Fields{
		"matched":   matched,
		"unmatched": len(lines) - matched,
	}).Info("Batch matching run completed")

	return outcomes
}

// errorOutcome builds the batch entry for a failed line.
func errorOutcome(line *models.StatementLine, err error) *LineOutcome {
	return &LineOutcome{
		Line: line,
		Outcome: &matcher.MatchOutcome{
			Pass:   matcher.PassNone,
			Reason: matcher.ReasonErrorDuringMatch,
		},
		Error: err.Error(),
	}
}

// BatchSummary aggregates a batch run for reporting.
type BatchSummary struct {
	TotalLines   int         `json:"total_lines"`
	MatchedLines int         `json:"matched_lines"`
	ErrorLines   int         `json:"error_lines"`
	ByPass       map[int]int `json:"by_pass"`
}

// Summarize computes aggregate statistics over a batch result.
func Summarize(outcomes []*LineOutcome) *BatchSummary {
	summary := &BatchSummary{
		TotalLines: len(outcomes),
		ByPass:     make(map[int]int),
	}

	for _, lo := range outcomes {
		if lo.Error != "" {
			summary.ErrorLines++
			continue
		}
		if lo.Matched() {
			summary.MatchedLines++
			summary.ByPass[lo.Outcome.Pass]++
		}
	}

	return summary
}

// String returns a one-line description of the summary
func (bs *BatchSummary) String() string {
	return fmt.Sprintf("BatchSummary{Total: %d, Matched: %d, Errors: %d}",
		bs.TotalLines, bs.MatchedLines, bs.ErrorLines)
}
