package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Document is the classification data read back from a rendered note.
type Document struct {
	Title             string
	PrimaryCategory   string
	SecondaryCategory string
	Summary           string
	Keywords          []string
	StoredAt          string
}

var md = goldmark.New()

// Parse reads the fixed sections of a rendered note. Each "## " section is
// taken as the raw lines up to the next heading, so the summary and the
// keywords come back exactly as they were rendered. When the note was
// appended to, the last rendering wins.
func Parse(src []byte) *Document {
	doc := &Document{Keywords: []string{}}

	var (
		section string
		body    []string
	)
	flush := func() {
		if section != "" {
			doc.apply(section, body)
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n") {
		if h, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			section, body = strings.TrimSpace(h), nil
			continue
		}
		if h, ok := strings.CutPrefix(line, "# "); ok {
			flush()
			if doc.Title == "" {
				doc.Title = strings.TrimSpace(h)
			}
			section, body = "", nil
			continue
		}
		if section != "" {
			body = append(body, line)
		}
	}
	flush()
	return doc
}

func (doc *Document) apply(section string, lines []string) {
	switch section {
	case sectionCategory:
		doc.PrimaryCategory, doc.SecondaryCategory = readCategories(strings.Join(lines, "\n"))
	case sectionSummary:
		doc.Summary = readSummary(lines)
	case sectionKeywords:
		doc.Keywords = readKeywords(lines)
	case sectionStoredAt:
		for _, l := range lines {
			if l = strings.TrimSpace(l); l != "" {
				doc.StoredAt = l
				break
			}
		}
	}
}

func readSummary(lines []string) string {
	s := strings.TrimSpace(strings.Join(lines, "\n"))
	if s == None {
		return ""
	}
	out := strings.Split(s, "\n")
	for i, l := range out {
		out[i] = strings.TrimPrefix(l, `\`)
	}
	return strings.Join(out, "\n")
}

func readKeywords(lines []string) []string {
	kws := []string{}
	for _, l := range lines {
		kw, ok := strings.CutPrefix(l, "- ")
		if !ok {
			continue
		}
		if kw = strings.TrimPrefix(strings.TrimSpace(kw), `\`); kw != "" {
			kws = append(kws, kw)
		}
	}
	return kws
}

// readCategories walks the list of the category section.
func readCategories(block string) (primary, secondary string) {
	src := []byte(block)
	root := md.Parser().Parse(text.NewReader(src))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		list, ok := n.(*ast.List)
		if !ok {
			continue
		}
		for item := list.FirstChild(); item != nil; item = item.NextSibling() {
			line := itemText(item, src)
			if v, ok := strings.CutPrefix(line, labelPrimary); ok {
				primary = strings.TrimSpace(v)
			} else if v, ok := strings.CutPrefix(line, labelSecondary); ok {
				secondary = strings.TrimSpace(v)
			}
		}
	}
	return primary, secondary
}

func itemText(item ast.Node, src []byte) string {
	if item.FirstChild() == nil {
		return ""
	}
	var b strings.Builder
	lines := item.FirstChild().Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimSpace(b.String())
}
