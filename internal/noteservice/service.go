// Package noteservice coordinates the filer, the stored-note records and
// read access to the storage root. It is shared by the REST API and the
// MCP server.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/catalog"
	"github.com/starford/notefiler/internal/checksum"
	"github.com/starford/notefiler/internal/filer"
	"github.com/starford/notefiler/internal/metastore"
	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/render"
	"github.com/starford/notefiler/internal/storage"
)

// ErrEmptyInput is returned when a store is requested without note text.
var ErrEmptyInput = errors.New("input is required")

// Service is the note-filing service behind the API and MCP layers.
type Service struct {
	filer    *filer.Filer
	records  metastore.Store
	store    storage.Provider
	catalog  *catalog.Maintainer
	notesDir string
}

// NewService creates a new service. notesDir is the notes root folder
// below the storage root.
func NewService(f *filer.Filer, records metastore.Store, store storage.Provider, cat *catalog.Maintainer, notesDir string) *Service {
	return &Service{filer: f, records: records, store: store, catalog: cat, notesDir: notesDir}
}

// NoteDetail is the response payload for a note file read back from disk.
type NoteDetail struct {
	Path              string   `json:"path"`
	Title             string   `json:"title"`
	PrimaryCategory   string   `json:"primary_category"`
	SecondaryCategory string   `json:"secondary_category"`
	Summary           string   `json:"summary"`
	Keywords          []string `json:"keywords"`
	StoredAt          string   `json:"stored_at"`
	Content           string   `json:"content"`
	Checksum          string   `json:"checksum"`
}

// StoreNote files input with an optional model response and override.
func (s *Service) StoreNote(ctx context.Context, input, llmResponse string, override *models.Classification) (*filer.Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	return s.filer.StoreClassifiedNote(ctx, input, llmResponse, override)
}

// Capture asks the configured model to classify input and files it.
func (s *Service) Capture(ctx context.Context, input string) (*filer.Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	return s.filer.Capture(ctx, input)
}

// Prompt returns the classification prompt.
func (s *Service) Prompt() string {
	return s.filer.Prompt()
}

// ListNotes returns stored-note records, newest first.
func (s *Service) ListNotes(ctx context.Context, limit, offset int) ([]models.StoredNote, int, error) {
	return s.records.ListNotes(ctx, limit, offset)
}

// GetRecord returns one stored-note record by id.
func (s *Service) GetRecord(ctx context.Context, id string) (*models.StoredNote, error) {
	return s.records.GetNote(ctx, id)
}

// Search runs a full-text search over stored-note records.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]metastore.SearchResult, error) {
	return s.records.SearchNotes(ctx, query, limit)
}

// GetFile reads a note file from the storage root and parses its sections.
func (s *Service) GetFile(ctx context.Context, rel string) (*NoteDetail, error) {
	if path.Ext(rel) != ".md" {
		return nil, fmt.Errorf("noteservice: %s: %w", rel, apperr.ErrNotFound)
	}
	data, err := s.store.Read(ctx, rel)
	if err != nil {
		return nil, err
	}
	doc := render.Parse(data)
	return &NoteDetail{
		Path:              rel,
		Title:             doc.Title,
		PrimaryCategory:   doc.PrimaryCategory,
		SecondaryCategory: doc.SecondaryCategory,
		Summary:           doc.Summary,
		Keywords:          doc.Keywords,
		StoredAt:          doc.StoredAt,
		Content:           string(data),
		Checksum:          checksum.Sum(data),
	}, nil
}

// ListFiles returns every note file under the notes root.
func (s *Service) ListFiles(ctx context.Context) ([]models.FileMetadata, error) {
	files, err := s.store.List(ctx, s.notesDir)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && files == nil) {
		return []models.FileMetadata{}, nil
	}
	return files, err
}

// Audit checks every index under the notes root and optionally repairs
// what it can. It returns the report and the number of fixes applied.
func (s *Service) Audit(ctx context.Context, repair bool) (*catalog.Report, int, error) {
	if err := s.store.Available(ctx); err != nil {
		return nil, 0, err
	}
	if !repair {
		report, err := s.catalog.Audit(ctx, s.notesDir)
		return report, 0, err
	}

	// Repair rewrites indexes and must not interleave with a store.
	var (
		report *catalog.Report
		fixed  int
	)
	err := s.filer.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.catalog.Audit(ctx, s.notesDir)
		if err != nil || report.Consistent() {
			return err
		}
		fixed, err = s.catalog.Repair(ctx, report)
		if err != nil {
			return err
		}
		report, err = s.catalog.Audit(ctx, s.notesDir)
		return err
	})
	return report, fixed, err
}
