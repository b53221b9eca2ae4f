package usecase

import (
	"errors"
	"fmt"
	"time"

	"LeadScanner/internal/domain"
)

// ErrInvalidRequest is the only error Pipeline.Run returns.
var ErrInvalidRequest = errors.New("invalid pipeline request")

const (
	DefaultBatchSize        = 5
	DefaultMaxItems         = 20
	DefaultPerQueryItems    = 5
	DefaultSafetyMargin     = 3 * time.Second
	DefaultMinExtractBudget = 5 * time.Second
)

// Request carries every run parameter explicitly; the pipeline reads no globals.
type Request struct {
	Queries          []string      `json:"queries"`
	MaxItems         int           `json:"maxItems"`
	PerQueryItems    int           `json:"perQueryItems"`
	BatchSize        int           `json:"batchSize"`
	BatchDelay       time.Duration `json:"batchDelay"`
	SoftDeadline     time.Duration `json:"softDeadline"`
	SafetyMargin     time.Duration `json:"safetyMargin"`
	MinExtractBudget time.Duration `json:"minExtractBudget"`
	ResolveURLs      bool          `json:"resolveUrls"`
}

// Validate rejects requests no run could honour.
func (r Request) Validate() error {
	switch {
	case r.SoftDeadline <= 0:
		return fmt.Errorf("%w: soft deadline must be positive", ErrInvalidRequest)
	case r.MaxItems < 0, r.PerQueryItems < 0, r.BatchSize < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidRequest)
	case r.BatchDelay < 0, r.SafetyMargin < 0, r.MinExtractBudget < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidRequest)
	case r.SafetyMargin >= r.SoftDeadline:
		return fmt.Errorf("%w: safety margin %s leaves no budget in %s", ErrInvalidRequest, r.SafetyMargin, r.SoftDeadline)
	}
	return nil
}

func (r Request) withDefaults() Request {
	if r.MaxItems == 0 {
		r.MaxItems = DefaultMaxItems
	}
	if r.PerQueryItems == 0 {
		r.PerQueryItems = DefaultPerQueryItems
	}
	if r.BatchSize == 0 {
		r.BatchSize = DefaultBatchSize
	}
	if r.SafetyMargin == 0 {
		r.SafetyMargin = min(DefaultSafetyMargin, r.SoftDeadline/10)
	}
	if r.MinExtractBudget == 0 {
		r.MinExtractBudget = min(DefaultMinExtractBudget, r.SoftDeadline/4)
	}
	return r
}

// State is a step of the run state machine.
type State string

const (
	StateProfile       State = "PROFILE"
	StateFetch         State = "FETCH"
	StateEnrich        State = "ENRICH"
	StateExtract       State = "EXTRACT"
	StateQuickFallback State = "QUICK_FALLBACK"
	StateDone          State = "DONE"
)

// Outcome is the terminal classification of a run.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeFallback         Outcome = "fallback"
	OutcomeNoArticles       Outcome = "no_articles"
	OutcomeDeadlineExceeded Outcome = "deadline_exceeded"
)

// Fallback reasons.
const (
	ReasonDeadline          = "deadline"
	ReasonInsufficientTime  = "insufficient_budget"
	ReasonNoGenerator       = "generator_unavailable"
	ReasonExtractionTimeout = "extraction_timeout"
	ReasonExtractionError   = "extraction_error"
	ReasonParseError        = "parse_error"
	ReasonEmptyExtraction   = "empty_extraction"
)

// Result is what a run hands to collaborators.
type Result struct {
	RunID          string                 `json:"runId"`
	Outcome        Outcome                `json:"outcome"`
	Message        string                 `json:"message,omitempty"`
	Leads          []domain.LeadCandidate `json:"leads"`
	States         []State                `json:"states"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
	ArticlesFound  int                    `json:"articlesFound"`
	ArticlesKept   int                    `json:"articlesKept"`
	FailedSources  []string               `json:"failedSources,omitempty"`
	Enrichment     domain.EnrichReport    `json:"enrichment"`
	Elapsed        time.Duration          `json:"-"`
	ElapsedMs      int64                  `json:"elapsedMs"`
}

// Err maps terminal outcomes to their sentinel; ok and fallback map to nil.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeNoArticles:
		return domain.ErrNoArticlesFound
	case OutcomeDeadlineExceeded:
		return domain.ErrDeadlineExceeded
	default:
		return nil
	}
}
