package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScanner/internal/domain"
)

func article(title, link string) domain.Article {
	return domain.Article{Title: title, Link: link, Source: "test"}
}

func titles(articles []domain.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acmeopensplant", Key("  Acme Opens\tPlant \n"))
	long := "The quick brown fox jumps over the lazy dog and keeps running"
	assert.Equal(t, 40, len([]rune(Key(long))))
	assert.Equal(t, "東京銀行", Key("東京 銀行"))
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Similarity("abc", "cba"))
	assert.InDelta(t, 1.0/3.0, Similarity("ab", "bc"), 1e-9)
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}

func TestDedupeCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	in := []domain.Article{
		article("Acme Opens New Plant", "https://a.example/1"),
		article("acme  opens new   PLANT", "https://b.example/2"),
	}

	out := Dedupe(in)
	require.Len(t, out, 1)
	assert.Equal(t, "https://a.example/1", out[0].Link, "first seen wins")
}

func TestDedupeScenarioTrailingWhitespace(t *testing.T) {
	t.Parallel()

	distinct := "Quarterly yield: 9% up"
	first := "Northwind buys robotics firm"
	require.LessOrEqual(t, Similarity(Key(first), Key(distinct)), Threshold)

	in := []domain.Article{
		article(first, "https://news.example/1"),
		article(first+"   ", "https://other.example/2"),
		article(distinct, "https://news.example/3"),
	}

	out := Dedupe(in)
	assert.Equal(t, []string{first, distinct}, titles(out))
}

func TestDedupeKeepsDissimilar(t *testing.T) {
	t.Parallel()

	a := "Zebra logistics 2024"
	b := "Quick fix: HVAC vendor"
	require.Less(t, Similarity(Key(a), Key(b)), Threshold)

	out := Dedupe([]domain.Article{article(a, "https://x/1"), article(b, "https://x/2")})
	assert.Len(t, out, 2)
}

func TestDedupePreservesOrder(t *testing.T) {
	t.Parallel()

	in := []domain.Article{
		article("abc", "https://x/1"),
		article("xyz", "https://x/2"),
		article("123", "https://x/3"),
		article("mno", "https://x/4"),
	}

	assert.Equal(t, in, Dedupe(in))
}

func TestDedupeIdempotent(t *testing.T) {
	t.Parallel()

	in := []domain.Article{
		article("Acme opens new plant", "https://x/1"),
		article("ACME opens new plant!", "https://x/2"),
		article("Globex expands to Osaka", "https://x/3"),
		article("globex expands to osaka", "https://x/4"),
		article("12 vendors picked", "https://x/5"),
		article("abcdefghij", "https://x/6"),
		article("abcdefghijk", "https://x/7"),
		article("bcdefghijkl", "https://x/8"),
	}

	once := Dedupe(in)
	assert.Equal(t, once, Dedupe(once))
}

// Candidates are compared only with kept keys. B collapses into A, so C,
// which resembles B but not A, survives. This order sensitivity is intended.
func TestDedupeComparesOnlyKeptKeys(t *testing.T) {
	t.Parallel()

	a, b, c := "abcdefghij", "abcdefghijk", "bcdefghijkl"
	require.Greater(t, Similarity(a, b), Threshold)
	require.Greater(t, Similarity(b, c), Threshold)
	require.Less(t, Similarity(a, c), Threshold)

	out := Dedupe([]domain.Article{article(a, "https://x/a"), article(b, "https://x/b"), article(c, "https://x/c")})
	assert.Equal(t, []string{a, c}, titles(out))

	reordered := Dedupe([]domain.Article{article(b, "https://x/b"), article(a, "https://x/a"), article(c, "https://x/c")})
	assert.Equal(t, []string{b}, titles(reordered))
}

func TestDedupeEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Dedupe(nil))
}
