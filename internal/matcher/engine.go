package matcher

import (
	"soa-matching-service/internal/models"
)

// Outcome reasons reported by MatchLine. The strings are stable; downstream
// case management keys off them.
const (
	ReasonNoInvoices       = "no invoices available for matching"
	ReasonExactMatch       = "exact match found"
	ReasonDateTolerance    = "match found within date tolerance"
	ReasonFuzzyDoc         = "fuzzy document number match found"
	ReasonAmountTolerance  = "match found within amount tolerance"
	ReasonPartialMatch     = "partial payment match found"
	ReasonNoMatch          = "no match found after all passes"
	ReasonErrorDuringMatch = "error during matching"
)

// MatchOutcome is the result of running the pass pipeline for one statement
// line: the match (if any), the pass that produced it, and a reason string.
type MatchOutcome struct {
	Match  *MatchResult `json:"match,omitempty"`
	Pass   int          `json:"pass"`
	Reason string       `json:"reason"`
}

// Matched reports whether the outcome carries a match.
func (o *MatchOutcome) Matched() bool {
	return o.Match != nil
}

// Engine runs the five-pass matching pipeline. It holds no per-call state;
// every MatchLine invocation is independent and safe to run concurrently.
type Engine struct {
	config *MatchingConfig
}

// NewEngine creates a matching engine with the specified configuration
func NewEngine(config *MatchingConfig) *Engine {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &Engine{config: config}
}

// Config returns a copy of the engine's configuration
func (e *Engine) Config() *MatchingConfig {
	return e.config.Clone()
}

// MatchLine runs the pass pipeline for one statement line against a pool of
// canonical candidate invoices and returns the first match found.
//
// Candidates are scanned in the order supplied; within each pass the first
// qualifying invoice wins, and once a pass succeeds later passes are never
// consulted. Pass 5 (partial) only runs when partial matching is enabled by
// configuration or by the line itself; the gate is resolved once here, not
// re-checked per candidate.
func (e *Engine) MatchLine(line *models.StatementLine, pool []*models.Invoice) *MatchOutcome {
	if len(pool) == 0 {
		return &MatchOutcome{Pass: PassNone, Reason: ReasonNoInvoices}
	}

	allowPartial := e.config.EnablePartialMatching || line.PartialMatchEnabled()

	type pass struct {
		run    func(*models.StatementLine, []*models.Invoice) *MatchResult
		reason string
	}

	passes := []pass{
		{e.matchExact, ReasonExactMatch},
		{e.matchDateTolerance, ReasonDateTolerance},
		{e.matchFuzzyDoc, ReasonFuzzyDoc},
		{e.matchAmountTolerance, ReasonAmountTolerance},
	}
	if allowPartial {
		passes = append(passes, pass{e.matchPartial, ReasonPartialMatch})
	}

	for _, p := range passes {
		if result := p.run(line, pool); result != nil {
			return &MatchOutcome{
				Match:  result,
				Pass:   result.Pass,
				Reason: p.reason,
			}
		}
	}

	return &MatchOutcome{Pass: PassNone, Reason: ReasonNoMatch}
}
