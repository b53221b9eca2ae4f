package enricher

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// MaxBodyRunes bounds the extracted body.
	MaxBodyRunes = 3000
	// MinParagraphRunes drops captions, bylines and button labels.
	MinParagraphRunes = 40
)

const boilerplate = "script, style, nav, header, footer, aside, noscript, form, iframe"

// ExtractBody pulls readable text from an article page: the meta description
// followed by paragraph text from the <article> region (or the whole body).
// When no paragraph survives, readability extraction is tried instead.
// The result is truncated to MaxBodyRunes. Unparseable input yields "".
func ExtractBody(raw []byte, pageURL string) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	description := metaDescription(doc)
	doc.Find(boilerplate).Remove()

	scope := doc.Find("article").First()
	if scope.Length() == 0 {
		scope = doc.Find("body")
	}

	var paragraphs []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := collapse(p.Text())
		if len([]rune(text)) >= MinParagraphRunes {
			paragraphs = append(paragraphs, text)
		}
	})

	body := strings.Join(paragraphs, "\n")
	if body == "" {
		body = readabilityText(raw, pageURL)
	}

	if description != "" && !strings.HasPrefix(body, description) {
		if body == "" {
			body = description
		} else {
			body = description + "\n\n" + body
		}
	}

	return truncateRunes(body, MaxBodyRunes)
}

func metaDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if text := collapse(content); text != "" {
				return text
			}
		}
	}
	return ""
}

func readabilityText(raw []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		parsed = &url.URL{Scheme: "https", Host: "localhost"}
	}

	article, err := readability.FromReader(bytes.NewReader(raw), parsed)
	if err != nil {
		return ""
	}
	return collapse(article.TextContent)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
