// Package catalog maintains the per-directory index files that list the
// notes and sub-categories filed under each category.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/notefiler/internal/naming"
	"github.com/starford/notefiler/internal/render"
	"github.com/starford/notefiler/internal/storage"
)

// DefaultIndexName is the default index file name.
const DefaultIndexName = "目录.md"

const (
	listMarker    = "## 笔记列表"
	titleSuffix   = "目录"
	folderGlyph   = "📁"
	fileGlyph     = "📄"
	summaryLabel  = "**摘要**: "
	keywordsLabel = "**关键词**: "
	keywordSep    = "、"
)

// Kind tells a note entry from a sub-category entry.
type Kind string

const (
	KindFile     Kind = "file"
	KindCategory Kind = "category"
)

// Entry is one bullet of an index.
type Entry struct {
	Kind  Kind
	Title string
	// Target is the note file name for KindFile and the directory name for
	// KindCategory.
	Target   string
	Summary  string
	Keywords []string
}

// Header is the front matter of an index file.
type Header struct {
	Title   string `yaml:"title"`
	Created string `yaml:"created"`
	Updated string `yaml:"updated"`
	Count   int    `yaml:"count"`
}

// Index is a parsed index file.
type Index struct {
	Header  Header
	Entries []Entry
	// preamble holds the body up to and including the list marker line and
	// list holds the raw lines after it.
	preamble string
	list     []string
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithIndexName overrides the index file name.
func WithIndexName(name string) Option {
	return func(m *Maintainer) {
		if name != "" {
			m.indexName = name
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Maintainer) { m.now = now }
}

// Maintainer reads and rewrites index files through a storage provider.
// Like the note writes, updates are read-modify-write and callers must not
// run two of them against the same directory at once.
type Maintainer struct {
	store     storage.Provider
	indexName string
	now       func() time.Time
}

// New creates a Maintainer.
func New(store storage.Provider, opts ...Option) *Maintainer {
	m := &Maintainer{store: store, indexName: DefaultIndexName, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// IndexName returns the index file name.
func (m *Maintainer) IndexName() string { return m.indexName }

// UpdateIndex adds e to the index of dir, creating the index with title
// label if absent. An entry whose target is already listed is not added
// again; only the updated timestamp changes.
func (m *Maintainer) UpdateIndex(ctx context.Context, dir string, e Entry, label string) error {
	e.Title = naming.SingleLine(e.Title)
	label = naming.SingleLine(label)

	data, err := m.store.ReadFile(ctx, dir, m.indexName)
	if err != nil {
		return fmt.Errorf("catalog: read index %s: %w", dir, err)
	}
	now := render.FormatTime(m.now())

	var idx *Index
	if data == nil {
		idx = newIndex(label, now)
	} else {
		idx = Parse(data)
		if idx.Header.Title == "" {
			idx.Header.Title = label + titleSuffix
		}
		if idx.Header.Created == "" {
			idx.Header.Created = now
		}
	}

	if !idx.Has(e) {
		idx.insert(e, entryLines(e, now, m.indexName))
	}
	idx.Header.Updated = now
	idx.Header.Count = idx.distinct()

	out, err := idx.Bytes()
	if err != nil {
		return fmt.Errorf("catalog: encode index %s: %w", dir, err)
	}
	if err := m.store.WriteFile(ctx, dir, m.indexName, out); err != nil {
		return fmt.Errorf("catalog: write index %s: %w", dir, err)
	}
	return nil
}

// Load reads the index of dir. It returns nil when there is none.
func (m *Maintainer) Load(ctx context.Context, dir string) (*Index, error) {
	data, err := m.store.ReadFile(ctx, dir, m.indexName)
	if err != nil {
		return nil, fmt.Errorf("catalog: read index %s: %w", dir, err)
	}
	if data == nil {
		return nil, nil
	}
	return Parse(data), nil
}

func newIndex(label, now string) *Index {
	return &Index{
		Header: Header{
			Title:   label + titleSuffix,
			Created: now,
			Updated: now,
		},
		preamble: "# " + label + titleSuffix + "\n\n" + listMarker + "\n",
	}
}

// key identifies the file or directory an entry points at. Two titles
// that sanitise to the same name share one key.
func (e Entry) key() string {
	id := e.Target
	if id == "" {
		id = e.Title
	}
	return string(e.Kind) + "/" + id
}

// Has reports whether the file or directory e points at is listed.
func (idx *Index) Has(e Entry) bool {
	k := e.key()
	for _, listed := range idx.Entries {
		if listed.key() == k {
			return true
		}
	}
	return false
}

func (idx *Index) distinct() int {
	seen := make(map[string]struct{}, len(idx.Entries))
	for _, e := range idx.Entries {
		seen[e.key()] = struct{}{}
	}
	return len(seen)
}

func (idx *Index) insert(e Entry, lines []string) {
	idx.Entries = append([]Entry{e}, idx.Entries...)
	idx.list = append(lines, idx.list...)
}

// Bytes renders the index file.
func (idx *Index) Bytes() ([]byte, error) {
	fm, err := yaml.Marshal(&idx.Header)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(idx.preamble)
	for _, l := range idx.list {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

func entryLines(e Entry, now, indexName string) []string {
	glyph, link := fileGlyph, "./"+e.Target
	if e.Kind == KindCategory {
		glyph, link = folderGlyph, "./"+e.Target+"/"+indexName
	}
	if strings.ContainsAny(link, " ()") {
		link = "<" + link + ">"
	}
	lines := []string{fmt.Sprintf("- %s [%s](%s) - %s", glyph, escapeTitle(e.Title), link, now)}
	if e.Kind != KindFile {
		return lines
	}
	if s := naming.SingleLine(e.Summary); s != "" {
		lines = append(lines, "  - "+summaryLabel+s)
	}
	var kws []string
	for _, k := range e.Keywords {
		if k = naming.SingleLine(k); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) > 0 {
		lines = append(lines, "  - "+keywordsLabel+strings.Join(kws, keywordSep))
	}
	return lines
}

// escapeTitle backslash-escapes the characters that would end the link text.
func escapeTitle(s string) string {
	return titleEscaper.Replace(s)
}

var titleEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func unescapeTitle(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

var bulletRe = regexp.MustCompile(`^- (` + folderGlyph + `|` + fileGlyph + `) \[((?:\\.|[^\\\]])+)\]\(<?(.*?)>?\)`)

// Parse reads an index file. Missing or malformed front matter yields a
// zero header; a missing list marker is appended to the body.
func Parse(data []byte) *Index {
	idx := &Index{}
	body := string(data)
	if fm, rest, ok := splitFrontmatter(data); ok {
		if err := yaml.Unmarshal(fm, &idx.Header); err != nil {
			idx.Header = Header{}
		}
		body = rest
	}

	pre, list, found := strings.Cut(body, listMarker+"\n")
	if !found {
		pre = strings.TrimSuffix(strings.TrimRight(body, "\n"), listMarker)
		list = ""
		if pre != "" && !strings.HasSuffix(pre, "\n\n") {
			pre = strings.TrimRight(pre, "\n") + "\n\n"
		}
	}
	idx.preamble = pre + listMarker + "\n"

	list = strings.TrimRight(list, "\n")
	if list != "" {
		idx.list = strings.Split(list, "\n")
	}

	var cur *Entry
	for _, line := range idx.list {
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			kind := KindFile
			if m[1] == folderGlyph {
				kind = KindCategory
			}
			target := strings.TrimPrefix(m[3], "./")
			if i := strings.LastIndexByte(target, '/'); kind == KindCategory && i >= 0 {
				target = target[:i]
			}
			idx.Entries = append(idx.Entries, Entry{Kind: kind, Title: unescapeTitle(m[2]), Target: target})
			cur = &idx.Entries[len(idx.Entries)-1]
			continue
		}
		if cur == nil {
			continue
		}
		sub := strings.TrimPrefix(strings.TrimSpace(line), "- ")
		if v, ok := strings.CutPrefix(sub, summaryLabel); ok {
			cur.Summary = v
		} else if v, ok := strings.CutPrefix(sub, keywordsLabel); ok {
			cur.Keywords = strings.Split(v, keywordSep)
		}
	}
	return idx
}

// splitFrontmatter separates YAML front matter (between leading ---
// delimiters) from the body.
func splitFrontmatter(data []byte) ([]byte, string, bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", false
	}
	rest := trimmed[len(delim):]
	i := bytes.Index(rest, []byte("\n"+delim))
	if i < 0 {
		return nil, "", false
	}
	fm := rest[:i]
	body := strings.TrimLeft(string(rest[i+1+len(delim):]), "\n\r")
	return fm, body, true
}
