package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeFor(t *testing.T) {
	t.Parallel()

	for score := -5; score <= 105; score++ {
		want := GradeC
		if score >= 80 {
			want = GradeA
		} else if score >= 50 {
			want = GradeB
		}
		assert.Equal(t, want, GradeFor(score), "score %d", score)
	}
}

func TestScoreCap(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 65, ScoreCap(ConfidenceLow))
	assert.Equal(t, 80, ScoreCap(ConfidenceMedium))
	assert.Equal(t, 100, ScoreCap(ConfidenceHigh))
}

func TestParseConfidence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ConfidenceHigh, ParseConfidence("HIGH"))
	assert.Equal(t, ConfidenceMedium, ParseConfidence("medium"))
	assert.Equal(t, ConfidenceLow, ParseConfidence("certain"))
	assert.Equal(t, ConfidenceLow, ParseConfidence(""))
}

func TestArticleValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Article{Title: "t", Link: "https://a"}.Valid())
	assert.False(t, Article{Title: "t"}.Valid())
	assert.False(t, Article{Link: "https://a"}.Valid())
}
