// Package filer is the single entry point for filing a note: it resolves the
// classification, renders the note, stores it and records the outcome.
package filer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/starford/notefiler/internal/classify"
	"github.com/starford/notefiler/internal/extract"
	"github.com/starford/notefiler/internal/llm"
	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/notes"
	"github.com/starford/notefiler/internal/notify"
	"github.com/starford/notefiler/internal/render"
	"github.com/starford/notefiler/internal/storage"
)

// NoteRecorder persists stored-note summaries.
type NoteRecorder interface {
	RecordNote(ctx context.Context, n models.StoredNote) error
}

// Deps are the collaborators of a Filer. Completer and Notifier are optional.
type Deps struct {
	Storage   storage.Provider
	Notes     *notes.Engine
	Records   NoteRecorder
	Notifier  notify.Notifier
	Completer llm.Completer
	// Prompt overrides classify.DefaultPrompt for Capture.
	Prompt string
}

// Result is returned by a successful store.
type Result struct {
	Record      *models.Classification `json:"record"`
	StoragePath string                 `json:"storage_path"`
	NoteID      string                 `json:"note_id"`
	Appended    bool                   `json:"appended"`
}

// Option configures a Filer.
type Option func(*Filer)

// WithSerializer shares the single-writer semaphore between filers that
// write to the same storage root.
func WithSerializer(sem *semaphore.Weighted) Option {
	return func(f *Filer) {
		if sem != nil {
			f.sem = sem
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Filer) { f.now = now }
}

// WithFallback enables a degraded classification policy.
func WithFallback(fb classify.Fallback) Option {
	return func(f *Filer) { f.resolver = classify.NewResolver(fb) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filer) { f.logger = l }
}

// WithIDGenerator overrides the note id source.
func WithIDGenerator(gen func() string) Option {
	return func(f *Filer) { f.newID = gen }
}

// Filer files notes one at a time.
type Filer struct {
	deps     Deps
	resolver *classify.Resolver
	sem      *semaphore.Weighted
	now      func() time.Time
	logger   *slog.Logger
	newID    func() string
}

// New creates a Filer. Without WithFallback the strict policy applies.
func New(deps Deps, opts ...Option) *Filer {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	f := &Filer{
		deps:     deps,
		resolver: classify.NewResolver(nil),
		sem:      semaphore.NewWeighted(1),
		now:      time.Now,
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

var errNoModelResponse = errors.New("no model response")

// StoreClassifiedNote classifies input using the override or the model
// response, then renders and stores the note. Calls are serialised; once
// writing has begun, cancelling ctx no longer interrupts the store.
func (f *Filer) StoreClassifiedNote(ctx context.Context, input, llmResponse string, override *models.Classification) (*Result, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("filer: wait for writer: %w", err)
	}
	defer f.sem.Release(1)

	res, err := f.store(context.WithoutCancel(ctx), input, llmResponse, override)
	if err != nil {
		ev := notify.Event{Status: notify.StatusFailed, Reason: err.Error(), At: f.now()}
		if override != nil {
			ev.Title = override.DisplayName
		}
		f.deps.Notifier.Notify(ctx, ev)
		return nil, err
	}
	f.deps.Notifier.Notify(ctx, notify.Event{
		Status:   notify.StatusStored,
		NoteID:   res.NoteID,
		Title:    res.Record.DisplayName,
		Category: res.Record.CategoryPath(),
		Path:     res.StoragePath,
		Appended: res.Appended,
		At:       f.now(),
	})
	return res, nil
}

// Exclusive runs fn while holding the writer slot, so index maintenance
// cannot interleave with a store. Like a store, fn is not cancelled once
// it has started.
func (f *Filer) Exclusive(ctx context.Context, fn func(context.Context) error) error {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("filer: wait for writer: %w", err)
	}
	defer f.sem.Release(1)
	return fn(context.WithoutCancel(ctx))
}

func (f *Filer) store(ctx context.Context, input, llmResponse string, override *models.Classification) (*Result, error) {
	if err := f.deps.Storage.Available(ctx); err != nil {
		return nil, fmt.Errorf("filer: %w", err)
	}

	var extracted *models.Classification
	cause := errNoModelResponse
	if strings.TrimSpace(llmResponse) != "" {
		rec, err := extract.Extract(llmResponse)
		if err != nil {
			attrs := []any{slog.String("error", err.Error())}
			var failure *extract.Failure
			if errors.As(err, &failure) {
				attrs = append(attrs, slog.String("reason", failure.Reason))
			}
			f.logger.Warn("filer: extraction failed", attrs...)
			cause = err
		} else {
			extracted, cause = rec, nil
		}
	}

	rec, err := f.resolver.Resolve(input, override, extracted, cause)
	if err != nil {
		return nil, fmt.Errorf("filer: %w", err)
	}

	at := f.now()
	content := render.Render(rec, at)

	stored, err := f.deps.Notes.Store(ctx, rec, content)
	if err != nil {
		return nil, fmt.Errorf("filer: %w", err)
	}

	note := models.StoredNote{
		ID:          f.newID(),
		Title:       rec.DisplayName,
		Content:     content,
		Category:    rec.CategoryPath(),
		StoragePath: stored.Path,
		Timestamp:   at,
	}
	if f.deps.Records != nil {
		if err := f.deps.Records.RecordNote(ctx, note); err != nil {
			// The note is on disk; the summary record is best effort.
			f.logger.Error("filer: record note failed",
				slog.String("path", stored.Path),
				slog.String("error", err.Error()))
		}
	}

	f.logger.Info("filer: note stored",
		slog.String("note_id", note.ID),
		slog.String("path", stored.Path),
		slog.String("source", rec.Source))

	return &Result{
		Record:      rec,
		StoragePath: stored.Path,
		NoteID:      note.ID,
		Appended:    stored.Appended,
	}, nil
}

// Capture asks the configured model to classify input and stores the note.
// A completion failure is logged and the store continues without a model
// response, so the classification policy decides the outcome.
func (f *Filer) Capture(ctx context.Context, input string) (*Result, error) {
	var raw string
	if f.deps.Completer != nil {
		out, err := f.deps.Completer.Complete(ctx, classify.BuildPrompt(f.deps.Prompt, input))
		if err != nil {
			f.logger.Warn("filer: completion failed", slog.String("error", err.Error()))
		} else {
			raw = out
		}
	}
	return f.StoreClassifiedNote(ctx, input, raw, nil)
}

// Prompt returns the classification prompt used by Capture.
func (f *Filer) Prompt() string {
	if strings.TrimSpace(f.deps.Prompt) != "" {
		return f.deps.Prompt
	}
	return classify.DefaultPrompt
}
