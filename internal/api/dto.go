package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notefiler/internal/catalog"
	"github.com/starford/notefiler/internal/filer"
	"github.com/starford/notefiler/internal/metastore"
	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/noteservice"
)

// NoteDetail is a note file read back from disk (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

const maxInputRunes = 100_000

// StoreNoteRequest is the request body for filing a note.
type StoreNoteRequest struct {
	Input       string                 `json:"input" example:"今天学习了Git的基本命令" validate:"required"`
	LLMResponse string                 `json:"llm_response,omitempty" example:"{\"primaryCategory\":\"学习笔记类\"}"`
	Override    *models.Classification `json:"override,omitempty"`
}

// Validate validates the request body.
func (r *StoreNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Input, validation.Required, validation.RuneLength(1, maxInputRunes)),
	)
}

// CaptureRequest is the request body for model-assisted filing.
type CaptureRequest struct {
	Input string `json:"input" example:"明天下午三点开会" validate:"required"`
}

// Validate validates the request body.
func (r *CaptureRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Input, validation.Required, validation.RuneLength(1, maxInputRunes)),
	)
}

// StoreNoteResponse is returned after a note is filed.
type StoreNoteResponse = filer.Result

// NoteListResponse wraps paginated stored-note records.
type NoteListResponse struct {
	Notes []models.StoredNote `json:"notes" validate:"required"`
	Total int                 `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []metastore.SearchResult `json:"results" validate:"required"`
}

// FileListResponse lists the note and index files under the notes root.
type FileListResponse struct {
	Files []models.FileMetadata `json:"files" validate:"required"`
}

// PromptResponse carries the classification prompt.
type PromptResponse struct {
	Prompt string `json:"prompt" validate:"required"`
}

// AuditResponse is the result of an index audit.
type AuditResponse struct {
	Consistent bool            `json:"consistent"`
	Fixed      int             `json:"fixed"`
	Indexes    int             `json:"indexes"`
	Notes      int             `json:"notes"`
	Issues     []catalog.Issue `json:"issues"`
}
