package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"LeadScanner/internal/domain"
)

const maxSpanStarts = 8

// RawLead is one lead as emitted by the generator, before validation.
type RawLead struct {
	Company     string             `json:"company"`
	Summary     string             `json:"summary"`
	Product     string             `json:"product"`
	Category    string             `json:"category"`
	Pitch       string             `json:"pitch"`
	ROI         string             `json:"roi"`
	Score       Score              `json:"score"`
	Confidence  string             `json:"confidence"`
	Sources     []domain.SourceRef `json:"sources"`
	Assumptions []string           `json:"assumptions"`
}

// Score accepts integers, floats and numeric strings.
type Score int

func (s *Score) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("score %q: %w", text, err)
	}
	if math.IsNaN(f) {
		return fmt.Errorf("score %q: not a number", text)
	}
	*s = Score(math.Round(min(max(f, 0), 100)))
	return nil
}

// ParseError reports generator output that is not the expected JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", domain.ErrExtractionParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{domain.ErrExtractionParse, e.Err}
}

// ParseLeads decodes generator output. Code fences are stripped, then the
// text is decoded directly, then the span from the first opening bracket to
// the last closing one is tried, objects before arrays. Brackets in
// surrounding prose are skipped. Both {"leads": [...]} and a bare array are
// accepted.
func ParseLeads(output string) ([]RawLead, error) {
	text := stripFences(output)
	if text == "" {
		return nil, &ParseError{Raw: output, Err: errors.New("empty output")}
	}

	leads, err := decode(text)
	if err == nil {
		return leads, nil
	}

	for _, span := range bracketSpans(text, "{", "}", len(text)) {
		if leads, spanErr := decode(span); spanErr == nil {
			return leads, nil
		}
	}
	// A bare array must open before the first object.
	arrayLimit := len(text)
	if idx := strings.Index(text, "{"); idx >= 0 {
		arrayLimit = idx
	}
	for _, span := range bracketSpans(text, "[", "]", arrayLimit) {
		if leads, spanErr := decode(span); spanErr == nil {
			return leads, nil
		}
	}

	return nil, &ParseError{Raw: output, Err: err}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// bracketSpans lists the substrings from each opening bracket before limit
// (left to right, at most maxSpanStarts) to the last closing one.
func bracketSpans(s, open, closing string, limit int) []string {
	end := strings.LastIndex(s, closing)
	var spans []string
	for offset := 0; len(spans) < maxSpanStarts; {
		idx := strings.Index(s[offset:], open)
		if idx < 0 || offset+idx >= end || offset+idx >= limit {
			break
		}
		start := offset + idx
		spans = append(spans, s[start:end+1])
		offset = start + len(open)
	}
	return spans
}

func decode(text string) ([]RawLead, error) {
	data := []byte(strings.TrimSpace(text))
	if bytes.HasPrefix(data, []byte("[")) {
		var leads []RawLead
		if err := json.Unmarshal(data, &leads); err != nil {
			return nil, fmt.Errorf("decode lead array: %w", err)
		}
		return leads, nil
	}

	var envelope struct {
		Leads *[]RawLead `json:"leads"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode lead envelope: %w", err)
	}
	if envelope.Leads == nil {
		return nil, errors.New(`missing "leads" field`)
	}
	return *envelope.Leads, nil
}
