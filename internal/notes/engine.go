// Package notes writes rendered notes into the category tree and keeps the
// indexes of both category levels up to date.
package notes

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/catalog"
	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/naming"
	"github.com/starford/notefiler/internal/render"
	"github.com/starford/notefiler/internal/storage"
)

// DefaultRoot is the directory under the storage root that holds all notes.
const DefaultRoot = "AI笔记"

// Ext is the note file extension.
const Ext = ".md"

// Suffixes appended to a note or category name that would take the index
// file's place.
const (
	reservedNoteSuffix     = "_笔记"
	reservedCategorySuffix = "_分类"
)

// Index levels reported by IndexError.
const (
	LevelSecondary = "secondary"
	LevelPrimary   = "primary"
)

// IndexError reports a note that was written but could not be listed in
// one of its indexes. The note file exists; the index lags behind it.
type IndexError struct {
	NotePath string
	Level    string
	Err      error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("notes: %s index for %s: %v", e.Level, e.NotePath, e.Err)
}

func (e *IndexError) Unwrap() []error { return []error{apperr.ErrIndexOutOfSync, e.Err} }

// Result describes a completed store.
type Result struct {
	// Path is the slash-separated note path relative to the storage root.
	Path     string
	Appended bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoot sets the notes directory name.
func WithRoot(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.root = name
		}
	}
}

// WithClock overrides the time source used for append separators.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine stores notes. It is not safe for concurrent use against the same
// storage root; callers serialise Store calls.
type Engine struct {
	store   storage.Provider
	catalog *catalog.Maintainer
	root    string
	now     func() time.Time
	logger  *slog.Logger
}

// New creates an Engine.
func New(store storage.Provider, cat *catalog.Maintainer, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		catalog: cat,
		root:    DefaultRoot,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Root returns the notes directory name.
func (e *Engine) Root() string { return e.root }

// Store writes content as the note for rec. A note with the same file name
// in the same category is appended to. Both indexes are updated after the
// write; a failure there returns an *IndexError.
func (e *Engine) Store(ctx context.Context, rec *models.Classification, content string) (*Result, error) {
	rootDir, err := e.store.EnsureDir(ctx, "", e.root)
	if err != nil {
		return nil, fmt.Errorf("notes: ensure root: %w", err)
	}
	primary := naming.Sanitize(rec.PrimaryCategory)
	secondary := e.avoidIndex(naming.Sanitize(rec.SecondaryCategory), reservedCategorySuffix)

	primaryDir, err := e.store.EnsureDir(ctx, rootDir, primary)
	if err != nil {
		return nil, fmt.Errorf("notes: ensure %s: %w", primary, err)
	}
	secondaryDir, err := e.store.EnsureDir(ctx, primaryDir, secondary)
	if err != nil {
		return nil, fmt.Errorf("notes: ensure %s: %w", secondary, err)
	}

	fileName := naming.FileName(rec.DisplayName, Ext)
	if e.isIndexName(fileName) {
		fileName = naming.FileName(rec.DisplayName+reservedNoteSuffix, Ext)
	}
	notePath := path.Join(secondaryDir, fileName)

	exists, err := e.store.FileExists(ctx, secondaryDir, fileName)
	if err != nil {
		return nil, fmt.Errorf("notes: check %s: %w", notePath, err)
	}

	body := []byte(content)
	if exists {
		prev, err := e.store.ReadFile(ctx, secondaryDir, fileName)
		if err != nil {
			return nil, fmt.Errorf("notes: read %s: %w", notePath, err)
		}
		body = append(prev, []byte(Separator(e.now())+content)...)
	}
	if err := e.store.WriteFile(ctx, secondaryDir, fileName, body); err != nil {
		return nil, fmt.Errorf("notes: write %s: %w", notePath, err)
	}
	e.logger.Info("note written",
		slog.String("path", notePath),
		slog.Bool("appended", exists))

	entry := catalog.Entry{
		Kind:     catalog.KindFile,
		Title:    rec.DisplayName,
		Target:   fileName,
		Summary:  rec.Summary,
		Keywords: rec.Keywords,
	}
	if err := e.catalog.UpdateIndex(ctx, secondaryDir, entry, rec.SecondaryCategory); err != nil {
		return nil, e.indexFailed(notePath, LevelSecondary, err)
	}
	category := catalog.Entry{
		Kind:   catalog.KindCategory,
		Title:  rec.SecondaryCategory,
		Target: secondary,
	}
	if err := e.catalog.UpdateIndex(ctx, primaryDir, category, rec.PrimaryCategory); err != nil {
		return nil, e.indexFailed(notePath, LevelPrimary, err)
	}
	return &Result{Path: notePath, Appended: exists}, nil
}

// isIndexName reports whether name is the index file name. The comparison
// ignores case so that case-insensitive file systems are covered.
func (e *Engine) isIndexName(name string) bool {
	return strings.EqualFold(name, e.catalog.IndexName())
}

func (e *Engine) avoidIndex(dir, suffix string) string {
	if e.isIndexName(dir) {
		return naming.Sanitize(dir + suffix)
	}
	return dir
}

func (e *Engine) indexFailed(notePath, level string, err error) error {
	e.logger.Error("index out of sync",
		slog.String("note_path", notePath),
		slog.String("level", level),
		slog.String("error", err.Error()))
	return &IndexError{NotePath: notePath, Level: level, Err: err}
}

// Separator returns the marker placed between appended renderings.
func Separator(at time.Time) string {
	return "\n\n---\n\n## 更新于 " + render.FormatTime(at) + "\n\n"
}
