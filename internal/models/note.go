// Package models defines the domain types for the note filer.
package models

import "time"

// Classification sources.
const (
	SourceOverride = "override"
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Classification is the structured result that decides where a note is filed
// and what it contains.
type Classification struct {
	PrimaryCategory   string   `json:"primaryCategory"`
	SecondaryCategory string   `json:"secondaryCategory"`
	DisplayName       string   `json:"noteType"`
	FormattedContent  string   `json:"formattedContent"`
	Summary           string   `json:"summary"`
	Keywords          []string `json:"keywords"`
	Source            string   `json:"-"`
}

// CategoryPath returns "primary/secondary".
func (c *Classification) CategoryPath() string {
	return c.PrimaryCategory + "/" + c.SecondaryCategory
}

// StoredNote is the summary record kept in the metadata store after a
// successful store. It is never mutated by the filer.
type StoredNote struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	StoragePath string    `json:"storage_path"`
	Timestamp   time.Time `json:"timestamp"`
}

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
