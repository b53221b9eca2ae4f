package domain

// Grade buckets a lead score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// Confidence expresses how well a lead is evidenced by its sources.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Origin tells collaborators which extraction path produced a lead.
type Origin string

const (
	OriginAI        Origin = "ai"
	OriginHeuristic Origin = "heuristic"
)

// SourceRef points a lead back to an input article.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// LeadCandidate is a scored sales opportunity derived from one or more articles.
type LeadCandidate struct {
	ID          string      `json:"id"`
	Company     string      `json:"company"`
	Summary     string      `json:"summary"`
	Product     string      `json:"product"`
	Category    string      `json:"category,omitempty"`
	Pitch       string      `json:"pitch,omitempty"`
	ROI         string      `json:"roi,omitempty"`
	Score       int         `json:"score"`
	Grade       Grade       `json:"grade"`
	Confidence  Confidence  `json:"confidence"`
	Sources     []SourceRef `json:"sources"`
	Assumptions []string    `json:"assumptions"`
	Origin      Origin      `json:"origin"`
}

// GradeFor derives the grade from a score. Collaborators must not re-derive it.
func GradeFor(score int) Grade {
	switch {
	case score >= 80:
		return GradeA
	case score >= 50:
		return GradeB
	default:
		return GradeC
	}
}

// ScoreCap returns the highest score a confidence level may carry.
func ScoreCap(c Confidence) int {
	switch c {
	case ConfidenceLow:
		return 65
	case ConfidenceMedium:
		return 80
	default:
		return 100
	}
}

// ParseConfidence maps free-form extractor output to a known level, defaulting to LOW.
func ParseConfidence(raw string) Confidence {
	switch Confidence(raw) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(raw)
	}
	switch raw {
	case "high", "High":
		return ConfidenceHigh
	case "medium", "Medium":
		return ConfidenceMedium
	}
	return ConfidenceLow
}
