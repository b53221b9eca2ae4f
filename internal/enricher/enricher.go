// Package enricher resolves aggregator links and fills article bodies in
// fixed-size concurrent batches.
package enricher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/ports"
	"LeadScanner/internal/resolver"
	"LeadScanner/internal/retry"
)

const (
	DefaultBatchSize      = 5
	DefaultResolveTimeout = 4 * time.Second
	// MinContentRunes is the amount of feed content that makes a body fetch unnecessary.
	MinContentRunes = 200

	userAgent    = "Mozilla/5.0 (compatible; LeadScanner/1.0; +https://github.com/leadscanner)"
	maxPageBytes = 2 << 20
)

// DefaultPolicy keeps article fetches short; enrichment is latency-sensitive.
var DefaultPolicy = retry.Policy{
	Retries:   1,
	BaseDelay: 300 * time.Millisecond,
	Timeout:   6 * time.Second,
	Label:     "content fetch",
}

// Config tunes an Enricher. Zero values pick defaults.
type Config struct {
	Policy         retry.Policy
	ResolveTimeout time.Duration
}

// Enricher implements ports.Enricher.
type Enricher struct {
	resolver       ports.URLResolver
	client         *http.Client
	policy         retry.Policy
	resolveTimeout time.Duration
	logger         *slog.Logger
}

var _ ports.Enricher = (*Enricher)(nil)

// New builds an Enricher. A nil resolver disables link resolution.
func New(res ports.URLResolver, client *http.Client, cfg Config, logger *slog.Logger) *Enricher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Policy.Timeout <= 0 {
		cfg.Policy = DefaultPolicy
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	return &Enricher{
		resolver:       res,
		client:         client,
		policy:         cfg.Policy,
		resolveTimeout: cfg.ResolveTimeout,
		logger:         logger,
	}
}

type articleResult struct {
	attempted bool
	resolved  bool
	fallback  bool
	status    domain.EnrichmentStatus
}

// Enrich processes articles batch by batch and returns once every scheduled
// article settled. Individual failures leave the article body-less. When ctx
// ends no further batch is started; unscheduled articles count as skipped.
func (e *Enricher) Enrich(ctx context.Context, articles []*domain.Article, opts ports.EnrichOptions) domain.EnrichReport {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	results := make([]articleResult, len(articles))

	for start := 0; start < len(articles); start += size {
		if start > 0 && !sleep(ctx, opts.Delay) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		end := min(start+size, len(articles))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = e.enrichOne(ctx, articles[i], opts)
				return nil // non-fatal
			})
		}
		_ = g.Wait()
	}

	return tally(results)
}

func (e *Enricher) enrichOne(ctx context.Context, article *domain.Article, opts ports.EnrichOptions) (res articleResult) {
	res.attempted = true
	if article == nil {
		res.status = domain.EnrichSkipped
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			e.warn("enrichment panicked", article.Link, fmt.Errorf("%w: %v", domain.ErrEnrichmentFailure, r))
			res.status = domain.EnrichFailed
		}
	}()

	if opts.ResolveURLs && e.resolver != nil && resolver.IsAggregatorLink(article.Link) {
		if link, ok := e.resolver.Resolve(ctx, article.Title, e.resolveTimeout); ok {
			article.Link = link
			article.ResolvedURL = true
			res.resolved = true
		} else {
			article.Link = e.resolver.FallbackLink(article.Title)
			res.fallback = true
			if e.logger != nil {
				e.logger.Debug("link substituted", "title", article.Title, "link", article.Link, "error", domain.ErrResolutionFailure)
			}
			// A search-results page carries no article body.
			res.status = domain.EnrichSkipped
			return res
		}
	}

	if len([]rune(article.Content)) >= MinContentRunes {
		res.status = domain.EnrichSkipped
		return res
	}
	if resolver.IsAggregatorLink(article.Link) {
		res.status = domain.EnrichAggregator
		return res
	}

	// The operation only sees a copy of the link so an abandoned attempt never touches the article.
	link := article.Link
	body, err := retry.Do(ctx, e.logger, e.policy, func(ctx context.Context) (string, error) {
		raw, err := e.fetchPage(ctx, link)
		if err != nil {
			return "", err
		}
		return ExtractBody(raw, link), nil
	})
	if err != nil {
		e.warn("enrichment failed", link, fmt.Errorf("%w: %w", domain.ErrEnrichmentFailure, err))
		res.status = domain.EnrichFailed
		return res
	}
	if body == "" {
		res.status = domain.EnrichEmpty
		return res
	}

	article.Content = body
	article.HasBody = true
	res.status = domain.EnrichFetched
	return res
}

func (e *Enricher) fetchPage(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch page: %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("fetch page: unsupported content type %q", ct)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return raw, nil
}

func (e *Enricher) warn(msg, link string, err error) {
	if e.logger != nil {
		e.logger.Warn(msg, "link", link, "error", err)
	}
}

func tally(results []articleResult) domain.EnrichReport {
	var report domain.EnrichReport
	for _, r := range results {
		if !r.attempted {
			report.Skipped++
			continue
		}
		report.Attempted++
		if r.resolved {
			report.Resolved++
		}
		if r.fallback {
			report.Fallbacks++
		}
		switch r.status {
		case domain.EnrichFetched:
			report.Bodies++
		case domain.EnrichFailed, domain.EnrichEmpty:
			report.Failed++
		default:
			report.Skipped++
		}
	}
	return report
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
