package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/render"
)

// IssueKind classifies an audit finding.
type IssueKind string

const (
	// IssueOrphan is a note or sub-category on disk that its index does not list.
	IssueOrphan IssueKind = "orphan"
	// IssueDangling is an index entry whose target no longer exists.
	IssueDangling IssueKind = "dangling"
	// IssueCount is a header count that differs from the listed entries.
	IssueCount IssueKind = "count"
	// IssueMissingIndex is a category directory without an index file.
	IssueMissingIndex IssueKind = "missing_index"
)

// Issue is one audit finding.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Dir    string    `json:"dir"`
	Entry  Kind      `json:"entry,omitempty"`
	Target string    `json:"target,omitempty"`
	Title  string    `json:"title,omitempty"`
}

func (i Issue) String() string {
	if i.Target == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Dir)
	}
	return fmt.Sprintf("%s: %s", i.Kind, path.Join(i.Dir, i.Target))
}

// Report is the result of Audit.
type Report struct {
	Indexes int     `json:"indexes"`
	Notes   int     `json:"notes"`
	Issues  []Issue `json:"issues"`
}

// Consistent reports whether no issue was found.
func (r *Report) Consistent() bool { return len(r.Issues) == 0 }

type dirState struct {
	notes   map[string]struct{}
	subdirs map[string]struct{}
}

// Audit compares every index under root with the files on disk. It finds
// the notes left unlisted when a store failed between writing the note and
// updating its indexes.
func (m *Maintainer) Audit(ctx context.Context, root string) (*Report, error) {
	report := &Report{Issues: []Issue{}}
	metas, err := m.store.List(ctx, root)
	if errors.Is(err, apperr.ErrNotFound) {
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: audit: %w", err)
	}

	dirs := make(map[string]*dirState)
	state := func(dir string) *dirState {
		st, ok := dirs[dir]
		if !ok {
			st = &dirState{notes: map[string]struct{}{}, subdirs: map[string]struct{}{}}
			dirs[dir] = st
		}
		return st
	}

	for _, meta := range metas {
		dir, name := path.Split(meta.Path)
		dir = strings.TrimSuffix(dir, "/")
		if dir == root || !strings.HasPrefix(dir, root+"/") {
			continue
		}
		st := state(dir)
		if name != m.indexName {
			st.notes[name] = struct{}{}
			report.Notes++
		}
		for child := dir; path.Dir(child) != root && path.Dir(child) != "."; child = path.Dir(child) {
			state(path.Dir(child)).subdirs[path.Base(child)] = struct{}{}
		}
	}

	names := make([]string, 0, len(dirs))
	for d := range dirs {
		names = append(names, d)
	}
	sort.Strings(names)

	for _, dir := range names {
		st := dirs[dir]
		idx, err := m.Load(ctx, dir)
		if err != nil {
			return nil, err
		}
		if idx == nil {
			report.Issues = append(report.Issues, Issue{Kind: IssueMissingIndex, Dir: dir})
			idx = &Index{}
		} else {
			report.Indexes++
		}

		files := map[string]struct{}{}
		cats := map[string]struct{}{}
		for _, e := range idx.Entries {
			if e.Kind == KindCategory {
				cats[e.Target] = struct{}{}
				if _, ok := st.subdirs[e.Target]; !ok {
					report.Issues = append(report.Issues, Issue{Kind: IssueDangling, Dir: dir, Entry: KindCategory, Target: e.Target, Title: e.Title})
				}
				continue
			}
			files[e.Target] = struct{}{}
			if _, ok := st.notes[e.Target]; !ok {
				report.Issues = append(report.Issues, Issue{Kind: IssueDangling, Dir: dir, Entry: KindFile, Target: e.Target, Title: e.Title})
			}
		}
		for _, n := range sortedKeys(st.notes) {
			if _, ok := files[n]; !ok {
				report.Issues = append(report.Issues, Issue{Kind: IssueOrphan, Dir: dir, Entry: KindFile, Target: n})
			}
		}
		for _, s := range sortedKeys(st.subdirs) {
			if _, ok := cats[s]; !ok {
				report.Issues = append(report.Issues, Issue{Kind: IssueOrphan, Dir: dir, Entry: KindCategory, Target: s})
			}
		}
		if len(idx.Entries) > 0 && idx.Header.Count != idx.distinct() {
			report.Issues = append(report.Issues, Issue{Kind: IssueCount, Dir: dir})
		}
	}
	return report, nil
}

// Repair lists orphans in their indexes and corrects header counts.
// Dangling entries are reported only; it returns the number of fixes.
func (m *Maintainer) Repair(ctx context.Context, report *Report) (int, error) {
	fixed := 0
	for _, is := range report.Issues {
		label := path.Base(is.Dir)
		var err error
		switch {
		case is.Kind == IssueOrphan && is.Entry == KindCategory:
			err = m.UpdateIndex(ctx, is.Dir, Entry{Kind: KindCategory, Title: is.Target, Target: is.Target}, label)
		case is.Kind == IssueOrphan:
			err = m.UpdateIndex(ctx, is.Dir, m.orphanEntry(ctx, is), label)
		case is.Kind == IssueCount:
			err = m.recount(ctx, is.Dir, label)
		default:
			continue
		}
		if err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

// orphanEntry reads the note back to recover its title, summary and keywords.
func (m *Maintainer) orphanEntry(ctx context.Context, is Issue) Entry {
	e := Entry{Kind: KindFile, Title: strings.TrimSuffix(is.Target, ".md"), Target: is.Target}
	data, err := m.store.ReadFile(ctx, is.Dir, is.Target)
	if err != nil || data == nil {
		return e
	}
	doc := render.Parse(data)
	if doc.Title != "" {
		e.Title = doc.Title
	}
	e.Summary = doc.Summary
	e.Keywords = doc.Keywords
	return e
}

func (m *Maintainer) recount(ctx context.Context, dir, label string) error {
	idx, err := m.Load(ctx, dir)
	if err != nil || idx == nil {
		return err
	}
	if idx.Header.Title == "" {
		idx.Header.Title = label + titleSuffix
	}
	idx.Header.Count = idx.distinct()
	idx.Header.Updated = render.FormatTime(m.now())
	out, err := idx.Bytes()
	if err != nil {
		return fmt.Errorf("catalog: encode index %s: %w", dir, err)
	}
	if err := m.store.WriteFile(ctx, dir, m.indexName, out); err != nil {
		return fmt.Errorf("catalog: write index %s: %w", dir, err)
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
