package storage

import (
	"context"
	"fmt"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/models"
)

// Unavailable is the Provider used when no storage root could be resolved.
// Every operation fails with apperr.ErrStorageUnavailable.
type Unavailable struct {
	Reason string
}

var _ Provider = Unavailable{}

func (u Unavailable) err() error {
	if u.Reason == "" {
		return fmt.Errorf("storage: %w", apperr.ErrStorageUnavailable)
	}
	return fmt.Errorf("storage: %w: %s", apperr.ErrStorageUnavailable, u.Reason)
}

func (u Unavailable) Available(context.Context) error { return u.err() }

func (u Unavailable) EnsureDir(context.Context, string, string) (string, error) {
	return "", u.err()
}

func (u Unavailable) FileExists(context.Context, string, string) (bool, error) {
	return false, u.err()
}

func (u Unavailable) ReadFile(context.Context, string, string) ([]byte, error) {
	return nil, u.err()
}

func (u Unavailable) WriteFile(context.Context, string, string, []byte) error { return u.err() }

func (u Unavailable) Read(context.Context, string) ([]byte, error) { return nil, u.err() }

func (u Unavailable) List(context.Context, string) ([]models.FileMetadata, error) {
	return nil, u.err()
}
