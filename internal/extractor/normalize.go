package extractor

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"LeadScanner/internal/domain"
)

// StandardAssumption qualifies an ROI figure the extractor did not justify.
const StandardAssumption = "ROI figure is an estimate based on typical deployments and is not stated in the cited sources."

// Normalize validates raw leads against the articles they were extracted
// from. Scores are clamped to 0..100 and capped by confidence, grades are
// derived from the final score, grade C is dropped, and sources must cite an
// input article URL. The result is sorted by score, highest first.
func Normalize(raw []RawLead, articles []domain.Article, origin domain.Origin) []domain.LeadCandidate {
	titles := make(map[string]string, len(articles))
	for _, a := range articles {
		if link := strings.TrimSpace(a.Link); link != "" {
			if _, seen := titles[link]; !seen {
				titles[link] = a.Title
			}
		}
	}

	leads := make([]domain.LeadCandidate, 0, len(raw))
	for _, r := range raw {
		lead, ok := normalizeOne(r, titles, origin)
		if ok {
			leads = append(leads, lead)
		}
	}

	sort.SliceStable(leads, func(i, j int) bool { return leads[i].Score > leads[j].Score })
	return leads
}

func normalizeOne(r RawLead, titles map[string]string, origin domain.Origin) (domain.LeadCandidate, bool) {
	company := clean(r.Company)
	product := clean(r.Product)
	if company == "" || product == "" {
		return domain.LeadCandidate{}, false
	}

	sources := validSources(r.Sources, titles)
	if len(sources) == 0 {
		return domain.LeadCandidate{}, false
	}

	confidence := domain.ParseConfidence(strings.TrimSpace(r.Confidence))
	score := min(max(int(r.Score), 0), 100, domain.ScoreCap(confidence))
	grade := domain.GradeFor(score)
	if grade == domain.GradeC {
		return domain.LeadCandidate{}, false
	}

	summary := clean(r.Summary)
	if summary == "" {
		summary = sources[0].Title
	}

	roi := clean(r.ROI)
	assumptions := make([]string, 0, len(r.Assumptions)+1)
	for _, a := range r.Assumptions {
		if a = clean(a); a != "" {
			assumptions = append(assumptions, a)
		}
	}
	if len(assumptions) == 0 && hasDigit(roi) {
		assumptions = append(assumptions, StandardAssumption)
	}

	return domain.LeadCandidate{
		ID:          uuid.NewString(),
		Company:     company,
		Summary:     summary,
		Product:     product,
		Category:    clean(r.Category),
		Pitch:       clean(r.Pitch),
		ROI:         roi,
		Score:       score,
		Grade:       grade,
		Confidence:  confidence,
		Sources:     sources,
		Assumptions: assumptions,
		Origin:      origin,
	}, true
}

func validSources(refs []domain.SourceRef, titles map[string]string) []domain.SourceRef {
	seen := make(map[string]bool, len(refs))
	out := make([]domain.SourceRef, 0, len(refs))
	for _, ref := range refs {
		link := strings.TrimSpace(ref.URL)
		title, known := titles[link]
		if !known || seen[link] {
			continue
		}
		seen[link] = true
		if t := clean(ref.Title); t != "" {
			title = t
		}
		out = append(out, domain.SourceRef{Title: title, URL: link})
	}
	return out
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
