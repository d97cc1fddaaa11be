package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notefiler/internal/metastore"
	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/noteservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// filePath extracts the file path from the URL (everything after /api/files/).
// Supports encoded slashes from OpenAPI clients (e.g. AI%E7%AC%94%E8%AE%B0%2Fa.md).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// StoreNote handles POST /api/notes.
//
//	@Summary		Classify and file a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StoreNoteRequest	true	"Note to file"
//	@Success		201		{object}	StoreNoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) StoreNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req StoreNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.StoreNote(r.Context(), req.Input, req.LLMResponse, req.Override)
	if err != nil {
		writeError(w, "store note", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Capture handles POST /api/capture.
//
//	@Summary		Classify a note with the configured model and file it
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CaptureRequest	true	"Raw note"
//	@Success		201		{object}	StoreNoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/capture [post]
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.Capture(r.Context(), req.Input)
	if err != nil {
		writeError(w, "capture", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Prompt handles GET /api/prompt.
//
//	@Summary		Get the classification prompt
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	PromptResponse
//	@Security		BearerAuth
//	@Router			/prompt [get]
func (h *Handler) Prompt(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PromptResponse{Prompt: h.svc.Prompt()})
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List stored-note records, newest first
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListNotes(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	if items == nil {
		items = []models.StoredNote{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetRecord handles GET /api/notes/{id}.
//
//	@Summary		Get a stored-note record by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.StoredNote
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across stored notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []metastore.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListFiles handles GET /api/files.
//
//	@Summary		List note and index files under the notes root
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FileListResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListFiles(r.Context())
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files})
}

// GetFile handles GET /api/files/*.
//
//	@Summary		Read a note file and its parsed sections
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"File path relative to the storage root"
//	@Success		200		{object}	noteservice.NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	p := filePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetFile(r.Context(), p)
	if err != nil {
		writeError(w, "get file", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Audit handles GET /api/audit.
//
//	@Summary		Check every index against the files on disk
//	@Tags			maintenance
//	@Produce		json
//	@Success		200	{object}	AuditResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/audit [get]
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	h.audit(w, r, false)
}

// Repair handles POST /api/audit/repair.
//
//	@Summary		List orphaned notes in their indexes and fix header counts
//	@Tags			maintenance
//	@Produce		json
//	@Success		200	{object}	AuditResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/audit/repair [post]
func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	h.audit(w, r, true)
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request, repair bool) {
	report, fixed, err := h.svc.Audit(r.Context(), repair)
	if err != nil {
		writeError(w, "audit", err)
		return
	}
	writeJSON(w, http.StatusOK, AuditResponse{
		Consistent: report.Consistent(),
		Fixed:      fixed,
		Indexes:    report.Indexes,
		Notes:      report.Notes,
		Issues:     report.Issues,
	})
}
