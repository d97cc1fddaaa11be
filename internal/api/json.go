package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/noteservice"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind,omitempty" example:"storage_unavailable"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// errorStatus maps a filing error to its HTTP status and a stable kind.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, noteservice.ErrEmptyInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, apperr.ErrWriteDenied):
		return http.StatusForbidden, "write_denied"
	case errors.Is(err, apperr.ErrClassificationUnavailable):
		return http.StatusUnprocessableEntity, "classification_unavailable"
	case errors.Is(err, apperr.ErrIndexOutOfSync):
		return http.StatusInternalServerError, "index_out_of_sync"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError writes err with its mapped status. Internal errors are logged
// and their text is not exposed.
func writeError(w http.ResponseWriter, op string, err error) {
	status, kind := errorStatus(err)
	msg := err.Error()
	if kind == "internal" {
		slog.Error(op+" failed", slog.String("error", msg))
		msg = "internal error"
	}
	writeJSON(w, status, errResponse{Error: msg, Kind: kind})
}
