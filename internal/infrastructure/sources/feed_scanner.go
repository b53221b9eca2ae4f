package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/retry"
	"LeadScanner/internal/scanner"
)

// FeedScanner reads any RSS or Atom feed configured as a site.
type FeedScanner struct {
	client *http.Client
	policy retry.Policy
	logger *slog.Logger
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires an HTTP client; nil gets a 20s default client.
func NewFeedScanner(client *http.Client, logger *slog.Logger) *FeedScanner {
	return &FeedScanner{client: defaultClient(client), policy: DefaultFeedPolicy, logger: logger}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan fetches req.URL and converts feed entries to articles.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no feed url for site %s", req.SiteName)
	}

	policy := f.policy
	policy.Label = "feed " + req.SiteName
	body, err := fetchWithRetry(ctx, f.logger, f.client, policy, req.URL)
	if err != nil {
		return nil, err
	}

	articles, err := ParseFeed(body, req.SiteName)
	if err != nil {
		return nil, err
	}
	if req.MaxItems > 0 && len(articles) > req.MaxItems {
		articles = articles[:req.MaxItems]
	}
	return articles, nil
}

// ParseFeed parses an RSS or Atom body. Entries without a title or a usable
// link are skipped.
func ParseFeed(body []byte, source string) ([]domain.Article, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		article := domain.Article{
			Title:       strings.TrimSpace(item.Title),
			Link:        itemLink(item),
			Source:      source,
			PublishedAt: publishedAt(item),
			Content:     StripTags(firstNonEmpty(item.Content, item.Description)),
		}
		if !article.Valid() {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

func publishedAt(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	return strings.TrimSpace(item.Published)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
