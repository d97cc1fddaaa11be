package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notefiler/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Filing.
	r.Post("/notes", h.StoreNote)
	r.Post("/capture", h.Capture)
	r.Get("/prompt", h.Prompt)

	// Stored-note records.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetRecord)
	r.Get("/search", h.Search)

	// Files under the storage root.
	r.Get("/files", h.ListFiles)
	r.Get("/files/*", h.GetFile)

	// Index maintenance.
	r.Get("/audit", h.Audit)
	r.Post("/audit/repair", h.Repair)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
