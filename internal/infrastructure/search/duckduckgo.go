// Package search scrapes a keyless HTML search endpoint. It backs both the
// web-search source and the aggregator link resolver.
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"LeadScanner/internal/ports"
)

// DefaultEndpoint is the HTML-only results page of DuckDuckGo.
const DefaultEndpoint = "https://html.duckduckgo.com/html/"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) LeadScanner/1.0"

// Client performs paced search lookups.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
}

var _ ports.SearchEngine = (*Client)(nil)

// NewClient builds a client. interval <= 0 disables pacing.
func NewClient(endpoint string, httpClient *http.Client, interval time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 2)
	}
	return &Client{endpoint: endpoint, http: httpClient, limiter: limiter}
}

// Search returns organic results in page order.
func (c *Client) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for search slot: %w", err)
		}
	}

	target, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint %s: %w", c.endpoint, err)
	}
	q := target.Query()
	q.Set("q", query)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	return ParseResults(doc), nil
}

// ParseResults extracts organic results, skipping ads and undecodable links.
func ParseResults(doc *goquery.Document) []ports.SearchResult {
	var results []ports.SearchResult
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		anchor := s.Find("a.result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		link := DecodeLink(href)
		if link == "" {
			return
		}
		results = append(results, ports.SearchResult{
			Title:   strings.TrimSpace(anchor.Text()),
			URL:     link,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
	})
	return results
}

// DecodeLink unwraps the engine's click-tracking redirect ("/l/?uddg=...").
func DecodeLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return parsed.String()
	}
	return ""
}
