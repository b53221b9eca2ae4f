// Package resolver maps aggregator redirect links to canonical article URLs
// by looking the headline up on a web search engine.
package resolver

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"LeadScanner/internal/ports"
	"LeadScanner/internal/retry"
)

const (
	// AggregatorHost serves redirect links that never carry article content.
	AggregatorHost = "news.google.com"

	// DefaultFallbackBase builds substitute links when resolution fails.
	DefaultFallbackBase = "https://duckduckgo.com/"

	phaseTwoWords  = 8
	phaseTwoSuffix = "news"
)

// Hosts that host no articles; rejected in the broader second phase.
var nonArticleHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"dailymotion.com",
	"wikipedia.org",
	"wikimedia.org",
}

// Resolver implements ports.URLResolver.
type Resolver struct {
	engine       ports.SearchEngine
	cache        ports.ResolutionCache
	logger       *slog.Logger
	fallbackBase string
}

var _ ports.URLResolver = (*Resolver)(nil)

// New wires a search engine; cache may be nil.
func New(engine ports.SearchEngine, cache ports.ResolutionCache, logger *slog.Logger) *Resolver {
	return &Resolver{engine: engine, cache: cache, logger: logger, fallbackBase: DefaultFallbackBase}
}

// Resolve returns the canonical URL for an aggregator headline, or false.
// It never fails loudly: timeouts and parse errors count as "no result".
// Each phase is bounded by timeout independently.
func (r *Resolver) Resolve(ctx context.Context, title string, timeout time.Duration) (string, bool) {
	cleaned := CleanTitle(title)
	if cleaned == "" || r == nil || r.engine == nil {
		return "", false
	}

	if r.cache != nil {
		if link, ok := r.cache.Get(ctx, cacheKey(cleaned)); ok && acceptable(link, false) {
			return link, true
		}
	}

	link, ok := r.lookup(ctx, cleaned, timeout, false)
	if !ok {
		query := strings.Join(firstWords(cleaned, phaseTwoWords), " ") + " " + phaseTwoSuffix
		link, ok = r.lookup(ctx, query, timeout, true)
	}
	if !ok {
		return "", false
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey(cleaned), link)
	}
	return link, true
}

// FallbackLink builds a deterministic search-results URL for the headline.
func (r *Resolver) FallbackLink(title string) string {
	base := DefaultFallbackBase
	if r != nil && r.fallbackBase != "" {
		base = r.fallbackBase
	}
	query := CleanTitle(title)
	if query == "" {
		query = strings.TrimSpace(title)
	}
	return base + "?q=" + url.QueryEscape(query)
}

func (r *Resolver) lookup(ctx context.Context, query string, timeout time.Duration, strict bool) (string, bool) {
	policy := retry.Policy{Retries: 0, Timeout: timeout, Label: "resolve"}
	hits, err := retry.Do(ctx, nil, policy, func(ctx context.Context) ([]ports.SearchResult, error) {
		return r.engine.Search(ctx, query)
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("resolve phase failed", "query", query, "strict", strict, "error", err)
		}
		return "", false
	}

	for _, hit := range hits {
		if acceptable(hit.URL, strict) {
			return hit.URL, true
		}
	}
	return "", false
}

// CleanTitle drops the trailing " - Publisher" suffix aggregators append.
func CleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		title = title[:idx]
	}
	return strings.TrimSpace(title)
}

// IsAggregatorLink reports whether link points at the aggregator.
func IsAggregatorLink(link string) bool {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return hostMatches(parsed.Hostname(), AggregatorHost)
}

func acceptable(link string, strict bool) bool {
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return false
	}
	host := parsed.Hostname()
	if hostMatches(host, AggregatorHost) {
		return false
	}
	if strict {
		for _, blocked := range nonArticleHosts {
			if hostMatches(host, blocked) {
				return false
			}
		}
	}
	return true
}

func hostMatches(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func firstWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return words
}

func cacheKey(cleaned string) string {
	return strings.ToLower(cleaned)
}
