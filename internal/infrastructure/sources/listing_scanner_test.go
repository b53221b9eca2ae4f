package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScanner/internal/retry"
	"LeadScanner/internal/scanner"
)

var testPolicy = retry.Policy{Retries: 0, Timeout: 2 * time.Second, Label: "test", Jitter: retry.NoJitter}

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://example.org/news?lang=en"
	u, err := buildPageURL(base, 3)
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "example.org", parsed.Host)
	assert.Equal(t, "3", parsed.Query().Get("page"))
	assert.Equal(t, "en", parsed.Query().Get("lang"))

	first, err := buildPageURL(base, 1)
	require.NoError(t, err)
	assert.Equal(t, base, first)
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<section>
	  <article>
	    <h2>  Sample   Title </h2>
	    <a href="/news/42">read</a>
	    <time datetime="2025-11-08T09:00:00Z">8 Nov 2025</time>
	    <p>Sample summary text.</p>
	  </article>
	</section>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	base, _ := url.Parse("https://example.org/list")
	article, ok := parseEntry(doc.Find("article").First(), base, "example", selectorsFrom(nil))
	require.True(t, ok)

	assert.Equal(t, "Sample Title", article.Title)
	assert.Equal(t, "https://example.org/news/42", article.Link)
	assert.Equal(t, "2025-11-08T09:00:00Z", article.PublishedAt)
	assert.Equal(t, "Sample summary text.", article.Content)
	assert.Equal(t, "example", article.Source)
}

func TestParseEntryRejectsMissingLink(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<article><h2>Only title</h2><a href="#top">top</a></article>`))
	require.NoError(t, err)

	_, ok := parseEntry(doc.Find("article").First(), nil, "example", selectorsFrom(nil))
	assert.False(t, ok)
}

func TestListingScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		if r.URL.Query().Get("page") == "2" {
			_, _ = w.Write([]byte(`<ul><li class="row"><span class="t">Second page</span><a href="/p2">x</a></li></ul>`))
			return
		}
		_, _ = w.Write([]byte(`
		<ul>
		  <li class="row"><span class="t">Fresh Article</span><a href="/a1">x</a></li>
		  <li class="row"><span class="t">Fresh Article dup</span><a href="/a1">x</a></li>
		  <li class="row"><span class="t">Other Article</span><a href="https://elsewhere.example/a2">x</a></li>
		</ul>`))
	}))
	defer server.Close()

	sc := NewListingScanner(server.Client(), nil)
	sc.policy = testPolicy

	articles, err := sc.Scan(context.Background(), scanner.Request{
		SiteName: "press",
		URL:      server.URL + "/news",
		Options:  map[string]string{"item": "li.row", "title": ".t", "pages": "2"},
	})
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, server.URL+"/a1", articles[0].Link)
	assert.Equal(t, "https://elsewhere.example/a2", articles[1].Link)
	assert.Equal(t, "Second page", articles[2].Title)
}

func TestListingScannerRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewListingScanner(nil, nil).Scan(context.Background(), scanner.Request{SiteName: "x"})
	assert.Error(t, err)
}
