// Package storage defines the file-system capability the filer writes through.
package storage

import (
	"context"

	"github.com/starford/notefiler/internal/models"
)

// Provider is the host file-system capability. Directory arguments are
// slash-separated paths relative to the storage root; "" is the root itself.
type Provider interface {
	// Available reports whether the root can be written to. It fails with
	// apperr.ErrStorageUnavailable otherwise.
	Available(ctx context.Context) error
	// EnsureDir creates name under parent if absent and returns its relative path.
	EnsureDir(ctx context.Context, parent, name string) (string, error)
	// FileExists reports whether dir/name is a regular file.
	FileExists(ctx context.Context, dir, name string) (bool, error)
	// ReadFile returns the content of dir/name, or nil without error when absent.
	ReadFile(ctx context.Context, dir, name string) ([]byte, error)
	// WriteFile replaces the whole content of dir/name.
	WriteFile(ctx context.Context, dir, name string, data []byte) error
	// Read returns the raw bytes of the file at rel.
	Read(ctx context.Context, rel string) ([]byte, error)
	// List returns metadata for every .md file under dir.
	List(ctx context.Context, dir string) ([]models.FileMetadata, error)
}
