// Package render turns a classification into the markdown document that is
// persisted for a note, and reads the fixed sections back.
package render

import (
	"strings"
	"time"

	"github.com/starford/notefiler/internal/models"
)

// TimeLayout is the timestamp format used in notes, separators and indexes.
const TimeLayout = "2006/1/2 15:04:05"

// None marks an empty summary or keyword section.
const None = "无"

// Section headings.
const (
	defaultTitle    = "笔记"
	sectionContent  = "整理后的内容"
	sectionCategory = "分类信息"
	sectionSummary  = "核心要点"
	sectionKeywords = "关键词"
	sectionStoredAt = "存储时间"
	labelPrimary    = "**一级分类**: "
	labelSecondary  = "**二级分类**: "
)

// FormatTime formats t with TimeLayout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// Render builds the note document for rec. It is a pure function of its
// inputs.
func Render(rec *models.Classification, at time.Time) string {
	title := strings.TrimSpace(rec.DisplayName)
	if title == "" {
		title = defaultTitle
	}

	var b strings.Builder
	b.WriteString("# " + title + "\n\n")

	b.WriteString("## " + sectionContent + "\n")
	b.WriteString(strings.TrimRight(rec.FormattedContent, "\n") + "\n\n")

	b.WriteString("## " + sectionCategory + "\n")
	b.WriteString("- " + labelPrimary + rec.PrimaryCategory + "\n")
	b.WriteString("- " + labelSecondary + rec.SecondaryCategory + "\n\n")

	b.WriteString("## " + sectionSummary + "\n")
	if s := strings.TrimSpace(strings.ReplaceAll(rec.Summary, "\r\n", "\n")); s != "" {
		b.WriteString(escapeSummary(s) + "\n\n")
	} else {
		b.WriteString(None + "\n\n")
	}

	b.WriteString("## " + sectionKeywords + "\n")
	written := 0
	for _, kw := range rec.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		b.WriteString("- " + escapeKeyword(kw) + "\n")
		written++
	}
	if written == 0 {
		b.WriteString(None + "\n")
	}
	b.WriteString("\n")

	b.WriteString("## " + sectionStoredAt + "\n")
	b.WriteString(FormatTime(at))
	return b.String()
}

// escapeSummary prefixes a backslash to every summary line that markdown
// would read as structure, and to a summary equal to None. Parse drops one
// leading backslash per line.
func escapeSummary(s string) string {
	if s == None {
		return `\` + s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if needsEscape(l) {
			lines[i] = `\` + l
		}
	}
	return strings.Join(lines, "\n")
}

func needsEscape(line string) bool {
	t := strings.TrimLeft(line, " \t")
	if t == "" {
		return false
	}
	if strings.HasPrefix(line, `\`) || t[0] == '#' {
		return true
	}
	return strings.Trim(t, "-=*_ \t") == ""
}

// escapeKeyword backslash-escapes a keyword that starts with markdown block
// syntax so it stays the text of its list item.
func escapeKeyword(kw string) string {
	if strings.ContainsRune(`#>-+*=\`+"`~|<", rune(kw[0])) {
		return `\` + kw
	}
	return kw
}
