// Package apperr holds the sentinel errors shared across the filing pipeline.
package apperr

import "errors"

var (
	ErrNotFound                  = errors.New("not found")
	ErrStorageUnavailable        = errors.New("storage unavailable")
	ErrWriteDenied               = errors.New("write denied")
	ErrClassificationUnavailable = errors.New("classification unavailable")
	ErrIndexOutOfSync            = errors.New("index out of sync")
)
