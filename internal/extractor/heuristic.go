package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"LeadScanner/internal/domain"
)

const (
	heuristicBaseScore = 50
	heuristicHitScore  = 5
	maxHeuristicSource = 3
	maxCompanyWords    = 4
)

// GenericProduct is offered when no catalog keyword matches a group.
var GenericProduct = domain.Product{
	Category: "General",
	Name:     "Discovery call",
	Pitch:    "Saw the news about {company} (\"{headline}\"); a short call could show where we can help.",
}

// Heuristic builds leads without the generator: articles are grouped by the
// company named at the start of the headline, each group is matched against
// catalog keywords, and a canned pitch is filled in. Every group yields one
// B-grade LOW-confidence lead, so any non-empty input produces output.
func Heuristic(articles []domain.Article, knowledge domain.Knowledge) []domain.LeadCandidate {
	type group struct {
		company  string
		articles []domain.Article
	}

	var (
		groups []*group
		index  = map[string]*group{}
	)
	for _, a := range articles {
		if !a.Valid() {
			continue
		}
		company := CompanyFromHeadline(a.Title)
		if company == "" {
			company = a.Source
		}
		if company == "" {
			company = "Unknown company"
		}
		key := strings.ToLower(company)
		g, ok := index[key]
		if !ok {
			g = &group{company: company}
			index[key] = g
			groups = append(groups, g)
		}
		g.articles = append(g.articles, a)
	}

	raw := make([]RawLead, 0, len(groups))
	for _, g := range groups {
		product, hits := bestProduct(g.articles, knowledge.Products)
		headline := headlineOf(g.articles[0].Title)

		sources := make([]domain.SourceRef, 0, maxHeuristicSource)
		for _, a := range g.articles {
			if len(sources) == maxHeuristicSource {
				break
			}
			sources = append(sources, domain.SourceRef{Title: a.Title, URL: a.Link})
		}

		assumptions := []string{"Lead derived from keyword matching on headlines; fit not verified."}
		if hasDigit(product.ROI) {
			assumptions = append(assumptions, StandardAssumption)
		}

		raw = append(raw, RawLead{
			Company:     g.company,
			Summary:     headline,
			Product:     product.Name,
			Category:    product.Category,
			Pitch:       fillPitch(product.Pitch, g.company, headline),
			ROI:         product.ROI,
			Score:       Score(heuristicBaseScore + heuristicHitScore*hits),
			Confidence:  string(domain.ConfidenceLow),
			Sources:     sources,
			Assumptions: assumptions,
		})
	}

	return Normalize(raw, articles, domain.OriginHeuristic)
}

// CompanyFromHeadline returns the leading run of capitalised words.
func CompanyFromHeadline(title string) string {
	var name []string
	for _, w := range strings.Fields(headlineOf(title)) {
		if len(name) == maxCompanyWords {
			break
		}
		first, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(first) && !unicode.IsDigit(first) {
			break
		}
		base := strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "’s")
		possessive := base != w
		trimmed := strings.TrimRight(base, ",:;.")
		if trimmed == "" {
			break
		}
		name = append(name, trimmed)
		if possessive || trimmed != base {
			break
		}
	}
	return strings.Join(name, " ")
}

func bestProduct(articles []domain.Article, products []domain.Product) (domain.Product, int) {
	var text strings.Builder
	for _, a := range articles {
		text.WriteString(a.Title)
		text.WriteString(" ")
		text.WriteString(a.Content)
		text.WriteString(" ")
	}
	haystack := wordText(text.String())

	best, bestHits := GenericProduct, 0
	for _, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		hits := 0
		for _, kw := range p.Keywords {
			if kw = wordText(kw); kw != "  " && strings.Contains(haystack, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = p, hits
		}
	}
	if best.Pitch == "" {
		best.Pitch = GenericProduct.Pitch
	}
	return best, bestHits
}

// wordText lower-cases s, turns punctuation into spaces and pads the result
// so keywords match on word boundaries.
func wordText(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

func fillPitch(template, company, headline string) string {
	return strings.NewReplacer("{company}", company, "{headline}", headline).Replace(template)
}

func headlineOf(title string) string {
	title = clean(title)
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		return title[:idx]
	}
	return title
}
