package domain

import "errors"

var (
	// ErrSourceFailure marks a single adapter failure; it never aborts a run.
	ErrSourceFailure = errors.New("source failure")
	// ErrResolutionFailure marks an aggregator link that could not be resolved.
	ErrResolutionFailure = errors.New("url resolution failed")
	// ErrEnrichmentFailure marks a body fetch that produced nothing.
	ErrEnrichmentFailure = errors.New("enrichment failed")
	// ErrExtractionTimeout is returned when the extractor outlives the remaining budget.
	ErrExtractionTimeout = errors.New("extraction timed out")
	// ErrExtractionParse is wrapped by parse errors on extractor output.
	ErrExtractionParse = errors.New("extraction output malformed")
	// ErrNoArticlesFound is terminal: nothing to structure.
	ErrNoArticlesFound = errors.New("no articles found")
	// ErrDeadlineExceeded is terminal but retryable by the caller.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)
