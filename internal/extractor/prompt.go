// Package extractor turns enriched articles into validated lead candidates,
// either from generator output or from the local keyword heuristic.
package extractor

import (
	"fmt"
	"strings"

	"LeadScanner/internal/domain"
)

// MaxExcerptRunes caps each article body quoted in the prompt.
const MaxExcerptRunes = 800

const outputSchema = `{
  "leads": [
    {
      "company": "string",
      "summary": "one or two sentences on why this is an opportunity",
      "product": "product name from the catalog",
      "category": "product category",
      "pitch": "one sentence opener",
      "roi": "expected return, may be empty",
      "score": 0,
      "confidence": "HIGH | MEDIUM | LOW",
      "sources": [{"title": "article title", "url": "article url"}],
      "assumptions": ["anything not directly stated in the sources"]
    }
  ]
}`

// BuildPrompt renders the extraction request for articles and the seller's catalog.
func BuildPrompt(articles []domain.Article, knowledge domain.Knowledge) string {
	var b strings.Builder

	seller := knowledge.Seller
	if seller == "" {
		seller = "our company"
	}
	fmt.Fprintf(&b, "You are a B2B sales analyst for %s. Identify companies in the news below that are likely buyers of our products.\n\n", seller)

	b.WriteString("Products:\n")
	for _, p := range knowledge.Products {
		fmt.Fprintf(&b, "- %s (%s): signals %s", p.Name, p.Category, strings.Join(p.Keywords, ", "))
		if p.ROI != "" {
			fmt.Fprintf(&b, "; typical ROI %s", p.ROI)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nArticles:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\n", i+1, a.Title, a.Link)
		if a.Source != "" {
			fmt.Fprintf(&b, "Source: %s\n", a.Source)
		}
		if a.PublishedAt != "" {
			fmt.Fprintf(&b, "Published: %s\n", a.PublishedAt)
		}
		if excerpt := excerpt(a.Content); excerpt != "" {
			fmt.Fprintf(&b, "Excerpt: %s\n", excerpt)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Rules:
- Only cite URLs listed above, exactly as written.
- score is an integer 0-100; use LOW confidence when the article only hints at a need.
- When roi contains a number, list the assumptions behind it.
- Skip companies with no plausible fit.

Respond with JSON only, matching:
`)
	b.WriteString(outputSchema)
	b.WriteString("\n")

	return b.String()
}

func excerpt(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= MaxExcerptRunes {
		return content
	}
	return string(runes[:MaxExcerptRunes]) + "…"
}
