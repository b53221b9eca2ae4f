package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/retry"
	"LeadScanner/internal/scanner"
)

// DefaultNewsSearchURL is the aggregator's RSS search endpoint.
const DefaultNewsSearchURL = "https://news.google.com/rss/search"

// NewsSearchScanner queries the news aggregator once per search term. Its
// links are aggregator redirects that the enricher resolves later.
type NewsSearchScanner struct {
	client *http.Client
	policy retry.Policy
	logger *slog.Logger
}

var _ scanner.Scanner = (*NewsSearchScanner)(nil)

// NewNewsSearchScanner wires an HTTP client; nil gets a 20s default client.
func NewNewsSearchScanner(client *http.Client, logger *slog.Logger) *NewsSearchScanner {
	return &NewsSearchScanner{client: defaultClient(client), policy: DefaultFeedPolicy, logger: logger}
}

// Name identifies the strategy inside the registry.
func (n *NewsSearchScanner) Name() string {
	return "news_search"
}

// Scan runs a sub-fetch per query term. Options "hl", "gl" and "ceid" pass
// locale parameters through; req.URL overrides the endpoint.
func (n *NewsSearchScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	endpoint := req.URL
	if endpoint == "" {
		endpoint = DefaultNewsSearchURL
	}

	return scanner.EachQuery(ctx, req.Queries, req.PerQueryItems, func(ctx context.Context, query string) ([]domain.Article, error) {
		target, err := buildNewsSearchURL(endpoint, query, req.Options)
		if err != nil {
			return nil, err
		}

		policy := n.policy
		policy.Label = "news search " + query
		body, err := fetchWithRetry(ctx, n.logger, n.client, policy, target)
		if err != nil {
			return nil, err
		}

		items, err := ParseFeed(body, req.SiteName)
		if err != nil {
			return nil, err
		}

		articles := make([]domain.Article, 0, len(items))
		for _, item := range items {
			_, publisher := SplitSourceSuffix(item.Title)
			if publisher != "" {
				item.Source = publisher
			}
			// Aggregator descriptions only repeat the headline.
			if len(item.Content) <= len(item.Title)+32 {
				item.Content = ""
			}
			item.Query = query
			articles = append(articles, item)
		}
		return articles, nil
	})
}

func buildNewsSearchURL(endpoint, query string, options map[string]string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid news search url %s: %w", endpoint, err)
	}

	q := parsed.Query()
	q.Set("q", query)
	for _, key := range []string{"hl", "gl", "ceid"} {
		if v := options[key]; v != "" {
			q.Set(key, v)
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
