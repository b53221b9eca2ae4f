package sources

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/ports"
	"LeadScanner/internal/retry"
	"LeadScanner/internal/scanner"
)

// WebSearchScanner turns web search hits into articles, one lookup per term.
type WebSearchScanner struct {
	engine ports.SearchEngine
	policy retry.Policy
	logger *slog.Logger
}

var _ scanner.Scanner = (*WebSearchScanner)(nil)

// NewWebSearchScanner wires a search engine.
func NewWebSearchScanner(engine ports.SearchEngine, logger *slog.Logger) *WebSearchScanner {
	return &WebSearchScanner{engine: engine, policy: DefaultFeedPolicy, logger: logger}
}

// Name identifies the strategy inside the registry.
func (w *WebSearchScanner) Name() string {
	return "web_search"
}

// Scan appends the "suffix" option (for example "news") to every term.
func (w *WebSearchScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	suffix := strings.TrimSpace(req.Options["suffix"])

	return scanner.EachQuery(ctx, req.Queries, req.PerQueryItems, func(ctx context.Context, query string) ([]domain.Article, error) {
		term := query
		if suffix != "" {
			term = query + " " + suffix
		}

		policy := w.policy
		policy.Label = "web search " + query
		hits, err := retry.Do(ctx, w.logger, policy, func(ctx context.Context) ([]ports.SearchResult, error) {
			return w.engine.Search(ctx, term)
		})
		if err != nil {
			return nil, err
		}

		articles := make([]domain.Article, 0, len(hits))
		for _, hit := range hits {
			article := domain.Article{
				Title:   strings.TrimSpace(hit.Title),
				Link:    hit.URL,
				Source:  hostOf(hit.URL),
				Query:   query,
				Content: hit.Snippet,
			}
			if article.Valid() {
				articles = append(articles, article)
			}
		}
		return articles, nil
	})
}

func hostOf(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
