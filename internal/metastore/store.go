package metastore

import (
	"context"
	"time"

	"github.com/starford/notefiler/internal/models"
)

// Well-known settings keys.
const (
	KeyStorageRoot = "storage.root"
	KeyLLMProvider = "llm.provider"
	KeyLLMModel    = "llm.model"
)

// SearchResult represents one search hit.
type SearchResult struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	StoragePath string    `json:"storage_path"`
	Snippet     string    `json:"snippet"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store is the settings and note-record store. Consumers depend on this
// interface rather than *DB so tests can substitute it.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	RecordNote(ctx context.Context, n models.StoredNote) error
	GetNote(ctx context.Context, id string) (*models.StoredNote, error)
	ListNotes(ctx context.Context, limit, offset int) ([]models.StoredNote, int, error)
	SearchNotes(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
