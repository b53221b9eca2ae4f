package ports

import (
	"context"
	"time"

	"LeadScanner/internal/domain"
)

// FetchRequest parameterizes one multi-source fetch.
type FetchRequest struct {
	Queries       []string
	MaxItems      int
	PerQueryItems int
}

// FetchReport is the settled fan-out: articles from healthy sources in source order.
type FetchReport struct {
	Articles      []domain.Article
	FailedSources []string
}

// ArticleSource pulls fresh articles from every configured upstream.
type ArticleSource interface {
	Fetch(ctx context.Context, req FetchRequest) FetchReport
}

// SearchResult is one organic hit of a web search.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchEngine runs a single keyword lookup.
type SearchEngine interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// ResolutionCache remembers aggregator title -> canonical URL across runs.
type ResolutionCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// URLResolver maps an aggregator headline to a canonical article URL.
type URLResolver interface {
	Resolve(ctx context.Context, title string, timeout time.Duration) (string, bool)
	FallbackLink(title string) string
}

// EnrichOptions controls batch pacing of content enrichment.
type EnrichOptions struct {
	BatchSize   int
	Delay       time.Duration
	ResolveURLs bool
}

// Enricher fills article bodies in place and returns once every article was attempted.
type Enricher interface {
	Enrich(ctx context.Context, articles []*domain.Article, opts EnrichOptions) domain.EnrichReport
}

// Generator is the external structured-extraction service: prompt in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProfileProvider supplies the seller's product catalog for a run.
type ProfileProvider interface {
	Profile(ctx context.Context) (domain.Knowledge, error)
}

// LeadRepository persists finished leads.
type LeadRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveLeads(ctx context.Context, runID string, leads []domain.LeadCandidate) error
}

// Notifier streams lead digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// RunObserver receives pipeline measurements.
type RunObserver interface {
	ObserveStage(stage string, d time.Duration)
	ObserveRun(outcome string, d time.Duration, leads []domain.LeadCandidate)
	ObserveFallback(reason string)
	ObserveSourceFailure(source string)
	ObserveEnrichment(report domain.EnrichReport)
}

// LeadReader loads persisted leads.
type LeadReader interface {
	LeadsByRun(ctx context.Context, runID string) ([]domain.LeadCandidate, error)
}
