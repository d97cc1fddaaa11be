// Package classify selects and normalises the classification used to file a note.
package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/naming"
)

// derivedNameLen is the number of runes taken from a summary or keyword.
const derivedNameLen = 8

// DefaultDisplayName is used when the category has no dedicated default.
const DefaultDisplayName = "日常记录"

var deniedNames = map[string]struct{}{
	"未分类":   {},
	"未分类笔记": {},
}

var categoryDefaults = map[string]string{
	"学习笔记类": "学习笔记",
	"计划想法类": "计划想法",
	"办公事务类": "办公记录",
	"生活记录类": "生活记录",
	"技术开发类": "开发笔记",
	"公文写作类": "文档记录",
	"其他":    DefaultDisplayName,
}

// Fallback produces a classification without a model response.
type Fallback interface {
	Classify(input string) *models.Classification
}

// Resolver picks the classification source and normalises the result.
// A nil fallback means the strict policy: no source, no classification.
type Resolver struct {
	fallback Fallback
}

// NewResolver creates a Resolver. fallback may be nil.
func NewResolver(fallback Fallback) *Resolver {
	return &Resolver{fallback: fallback}
}

// Resolve returns the classification for input. The override wins when it
// names both categories, then the extracted model result, then the fallback
// policy if one is configured. cause is the extraction error, if any, and is
// carried in the returned error.
func (r *Resolver) Resolve(input string, override, extracted *models.Classification, cause error) (*models.Classification, error) {
	var rec models.Classification
	switch {
	case override != nil && strings.TrimSpace(override.PrimaryCategory) != "" && strings.TrimSpace(override.SecondaryCategory) != "":
		rec = *override
		rec.Source = models.SourceOverride
	case extracted != nil:
		rec = *extracted
		rec.Source = models.SourceModel
	case r.fallback != nil:
		fb := r.fallback.Classify(input)
		if fb == nil {
			return nil, unavailable(cause)
		}
		rec = *fb
		rec.Source = models.SourceFallback
	default:
		return nil, unavailable(cause)
	}

	rec.PrimaryCategory = naming.SingleLine(rec.PrimaryCategory)
	rec.SecondaryCategory = naming.SingleLine(rec.SecondaryCategory)
	if rec.FormattedContent == "" {
		rec.FormattedContent = input
	}
	keywords := make([]string, 0, len(rec.Keywords))
	for _, k := range rec.Keywords {
		if k = naming.SingleLine(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	rec.Keywords = keywords

	var preferred string
	if override != nil {
		preferred = override.DisplayName
	}
	rec.DisplayName = DisplayName(preferred, &rec)
	return &rec, nil
}

// DisplayName walks the resolution chain: preferred, the record's own name,
// the summary, the first keyword, then the category default. The result is
// always a legal, non-placeholder name.
func DisplayName(preferred string, rec *models.Classification) string {
	if v, ok := usable(preferred); ok {
		return v
	}
	if v, ok := usable(rec.DisplayName); ok {
		return v
	}
	if v, ok := usable(derive(rec.Summary)); ok {
		return v
	}
	if len(rec.Keywords) > 0 {
		if v, ok := usable(derive(rec.Keywords[0])); ok {
			return v
		}
	}
	if v, ok := categoryDefaults[rec.PrimaryCategory]; ok {
		return v
	}
	return DefaultDisplayName
}

// IsPlaceholder reports whether name may not be used as a display name.
func IsPlaceholder(name string) bool {
	_, ok := usable(name)
	return !ok
}

// usable returns name folded onto one line, or false when it is a
// placeholder or sanitises to almost nothing.
func usable(name string) (string, bool) {
	name = naming.SingleLine(name)
	if _, denied := deniedNames[name]; denied {
		return "", false
	}
	if utf8.RuneCountInString(name) < 2 {
		return "", false
	}
	safe := naming.Sanitize(name)
	if safe == naming.Untitled || utf8.RuneCountInString(safe) < 2 {
		return "", false
	}
	if _, denied := deniedNames[safe]; denied {
		return "", false
	}
	return name, true
}

// derive strips separators and whitespace and keeps the first runes.
func derive(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　' {
			return -1
		}
		return r
	}, s)
	return naming.Truncate(s, derivedNameLen)
}

func unavailable(cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %w", apperr.ErrClassificationUnavailable, cause)
	}
	return apperr.ErrClassificationUnavailable
}
