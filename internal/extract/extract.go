// Package extract pulls a classification record out of raw model output that
// may be wrapped in prose or fenced code blocks.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/naming"
)

// Failure reasons.
const (
	ReasonNoJSONStart      = "no_json_start"
	ReasonUnbalancedBraces = "unbalanced_braces"
	ReasonInvalidJSON      = "invalid_json"
	ReasonMissingRequired  = "missing_required_fields"
)

const snippetLen = 80

// Failure describes why no classification could be extracted.
type Failure struct {
	Reason  string
	Snippet string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("extract: %s: %v (input %q)", f.Reason, f.Err, f.Snippet)
	}
	return fmt.Sprintf("extract: %s (input %q)", f.Reason, f.Snippet)
}

func (f *Failure) Unwrap() error { return f.Err }

// payload mirrors the JSON object the model is asked to produce.
type payload struct {
	PrimaryCategory   string   `json:"primaryCategory"`
	SecondaryCategory string   `json:"secondaryCategory"`
	NoteType          string   `json:"noteType"`
	FormattedContent  string   `json:"formattedContent"`
	Summary           string   `json:"summary"`
	Keywords          []string `json:"keywords"`
}

// Extract returns the classification embedded in raw. Only the span that
// starts at the first '{' is considered; later objects are never searched.
// Every failure is returned as a *Failure.
func Extract(raw string) (*models.Classification, error) {
	text := stripFence(raw)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fail(ReasonNoJSONStart, raw, nil)
	}
	end := matchBrace(text, start)
	if end < 0 {
		return nil, fail(ReasonUnbalancedBraces, raw, nil)
	}

	var p payload
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return nil, fail(ReasonInvalidJSON, raw, err)
	}

	p.PrimaryCategory = strings.TrimSpace(p.PrimaryCategory)
	p.SecondaryCategory = strings.TrimSpace(p.SecondaryCategory)
	if p.PrimaryCategory == "" || p.SecondaryCategory == "" {
		return nil, fail(ReasonMissingRequired, raw, nil)
	}

	keywords := make([]string, 0, len(p.Keywords))
	for _, k := range p.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	return &models.Classification{
		PrimaryCategory:   p.PrimaryCategory,
		SecondaryCategory: p.SecondaryCategory,
		DisplayName:       strings.TrimSpace(p.NoteType),
		FormattedContent:  p.FormattedContent,
		Summary:           strings.TrimSpace(p.Summary),
		Keywords:          keywords,
		Source:            models.SourceModel,
	}, nil
}

// stripFence removes a leading ```json / ``` marker and a trailing ``` marker.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return s
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON string literals are ignored.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func fail(reason, raw string, err error) *Failure {
	return &Failure{
		Reason:  reason,
		Snippet: naming.Truncate(strings.TrimSpace(raw), snippetLen),
		Err:     err,
	}
}
