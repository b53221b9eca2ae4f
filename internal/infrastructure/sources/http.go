// Package sources holds the article source adapters: generic feeds,
// site-specific listing pages, the news-search aggregator and web search.
package sources

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"LeadScanner/internal/retry"
)

// UserAgent is sent with every outbound source request.
const UserAgent = "LeadScanner/1.0 (+https://github.com/leadscanner)"

const maxBodyBytes = 4 << 20

// DefaultFeedPolicy is the retry policy for feed and listing fetches.
var DefaultFeedPolicy = retry.Policy{
	Retries:   2,
	BaseDelay: 500 * time.Millisecond,
	Timeout:   10 * time.Second,
	Label:     "feed fetch",
}

var stripPolicy = bluemonday.StrictPolicy()

func defaultClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 20 * time.Second}
	}
	return client
}

// fetchBody performs a GET with the source User-Agent and returns the body of a 2xx response.
func fetchBody(ctx context.Context, client *http.Client, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s returned %s", target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func fetchWithRetry(ctx context.Context, logger *slog.Logger, client *http.Client, policy retry.Policy, target string) ([]byte, error) {
	return retry.Do(ctx, logger, policy, func(ctx context.Context) ([]byte, error) {
		return fetchBody(ctx, client, target)
	})
}

// StripTags turns an HTML fragment into collapsed plain text.
func StripTags(fragment string) string {
	if fragment == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(stripPolicy.Sanitize(fragment))), " ")
}

// SplitSourceSuffix separates "Headline - Publisher" into its parts.
func SplitSourceSuffix(title string) (headline, source string) {
	title = strings.TrimSpace(title)
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}
