package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/retry"
	"LeadScanner/internal/scanner"
)

// Default selectors match common news listing markup.
const (
	defaultItemSelector    = "article"
	defaultTitleSelector   = "h1, h2, h3"
	defaultLinkSelector    = "a[href]"
	defaultDateSelector    = "time"
	defaultSummarySelector = "p"
)

// ListingScanner scrapes a site's news listing page. Selectors come from the
// site options: item, title, link, date, summary. Option "pages" walks
// "?page=N" pagination.
type ListingScanner struct {
	client *http.Client
	policy retry.Policy
	logger *slog.Logger
}

var _ scanner.Scanner = (*ListingScanner)(nil)

// NewListingScanner wires an HTTP client; nil gets a 20s default client.
func NewListingScanner(client *http.Client, logger *slog.Logger) *ListingScanner {
	return &ListingScanner{client: defaultClient(client), policy: DefaultFeedPolicy, logger: logger}
}

// Name identifies the strategy inside the registry.
func (l *ListingScanner) Name() string {
	return "listing"
}

// Scan walks the listing pages and returns entries with both a title and link.
func (l *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no listing url for site %s", req.SiteName)
	}

	pages := 1
	if v, err := strconv.Atoi(req.Options["pages"]); err == nil && v > 1 {
		pages = v
	}

	sel := selectorsFrom(req.Options)
	results := make([]domain.Article, 0)
	seen := map[string]struct{}{}

	for page := 1; page <= pages; page++ {
		pageURL, err := buildPageURL(req.URL, page)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
		}

		doc, err := l.fetchDocument(ctx, req.SiteName, pageURL)
		if err != nil {
			if page > 1 && len(results) > 0 {
				break
			}
			return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
		}

		pageArticles := extractArticles(doc, pageURL, req.SiteName, sel)
		if len(pageArticles) == 0 {
			break
		}
		for _, article := range pageArticles {
			if _, ok := seen[article.Link]; ok {
				continue
			}
			seen[article.Link] = struct{}{}
			results = append(results, article)
		}
		if req.MaxItems > 0 && len(results) >= req.MaxItems {
			return results[:req.MaxItems], nil
		}
	}

	return results, nil
}

func (l *ListingScanner) fetchDocument(ctx context.Context, site, pageURL string) (*goquery.Document, error) {
	policy := l.policy
	policy.Label = "listing " + site
	body, err := fetchWithRetry(ctx, l.logger, l.client, policy, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

type selectors struct {
	item, title, link, date, summary string
}

func selectorsFrom(options map[string]string) selectors {
	pick := func(key, fallback string) string {
		if v := strings.TrimSpace(options[key]); v != "" {
			return v
		}
		return fallback
	}
	return selectors{
		item:    pick("item", defaultItemSelector),
		title:   pick("title", defaultTitleSelector),
		link:    pick("link", defaultLinkSelector),
		date:    pick("date", defaultDateSelector),
		summary: pick("summary", defaultSummarySelector),
	}
}

func extractArticles(doc *goquery.Document, pageURL, siteName string, sel selectors) []domain.Article {
	base, _ := url.Parse(pageURL)

	var collected []domain.Article
	doc.Find(sel.item).Each(func(_ int, item *goquery.Selection) {
		article, ok := parseEntry(item, base, siteName, sel)
		if ok {
			collected = append(collected, article)
		}
	})
	return collected
}

func parseEntry(item *goquery.Selection, base *url.URL, siteName string, sel selectors) (domain.Article, bool) {
	title := strings.Join(strings.Fields(item.Find(sel.title).First().Text()), " ")

	anchor := item.Find(sel.link).First()
	href, _ := anchor.Attr("href")
	if title == "" {
		title = strings.Join(strings.Fields(anchor.Text()), " ")
	}

	link := absoluteLink(base, href)
	if title == "" || link == "" {
		return domain.Article{}, false
	}

	dateNode := item.Find(sel.date).First()
	published, ok := dateNode.Attr("datetime")
	if !ok {
		published = strings.TrimSpace(dateNode.Text())
	}

	summary := strings.Join(strings.Fields(item.Find(sel.summary).First().Text()), " ")

	return domain.Article{
		Title:       title,
		Link:        link,
		Source:      siteName,
		PublishedAt: published,
		Content:     summary,
	}, true
}

func absoluteLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func buildPageURL(base string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}
	if page <= 1 {
		return parsed.String(), nil
	}

	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
