// Package dedupe suppresses near-duplicate articles by title similarity.
package dedupe

import (
	"strings"
	"unicode"

	"LeadScanner/internal/domain"
)

const (
	keyLength = 40
	// Threshold is exclusive: a pair is a duplicate only above it.
	Threshold = 0.8
)

// Key normalizes a title: lower-cased, whitespace removed, first 40 characters.
func Key(title string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToLower(title) {
		if unicode.IsSpace(r) {
			continue
		}
		if n == keyLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// Similarity is the Jaccard index over the character sets of a and b.
func Similarity(a, b string) float64 {
	setA := charSet(a)
	setB := charSet(b)

	union := len(setA)
	inter := 0
	for r := range setB {
		if _, ok := setA[r]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// Dedupe keeps the first article of every near-duplicate group, in input order.
// Each candidate is compared only with keys already kept, so the result depends
// on input order and the relation is not transitive.
func Dedupe(articles []domain.Article) []domain.Article {
	kept := make([]domain.Article, 0, len(articles))
	keys := make([]string, 0, len(articles))

	for _, article := range articles {
		key := Key(article.Title)
		if isDuplicate(key, keys) {
			continue
		}
		keys = append(keys, key)
		kept = append(kept, article)
	}

	return kept
}

func isDuplicate(key string, kept []string) bool {
	for _, other := range kept {
		if Similarity(key, other) > Threshold {
			return true
		}
	}
	return false
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
