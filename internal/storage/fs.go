package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/checksum"
	"github.com/starford/notefiler/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the storage root
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage: %w: no root configured", apperr.ErrStorageUnavailable)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	f := &FS{root: abs}
	if err := f.Available(context.Background()); err != nil {
		return nil, err
	}
	return f, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// Available checks that the root still exists and is a directory.
func (f *FS) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(f.root)
	if err != nil {
		return fmt.Errorf("storage: stat root: %w: %w", apperr.ErrStorageUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %w: root is not a directory: %s", apperr.ErrStorageUnavailable, f.root)
	}
	return nil
}

// safePath resolves a relative path against the root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// entry resolves dir/name, where name must be a single path segment.
func (f *FS) entry(dir, name string) (string, string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", "", fmt.Errorf("storage: invalid name %q", name)
	}
	rel := path.Join(dir, name)
	abs, err := f.safePath(rel)
	if err != nil {
		return "", "", err
	}
	return rel, abs, nil
}

// EnsureDir creates parent/name if it does not exist.
func (f *FS) EnsureDir(ctx context.Context, parent, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, abs, err := f.entry(parent, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", wrapWrite("mkdir "+rel, err)
	}
	return rel, nil
}

// FileExists reports whether dir/name is a regular file.
func (f *FS) FileExists(ctx context.Context, dir, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rel, abs, err := f.entry(dir, name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	return info.Mode().IsRegular(), nil
}

// ReadFile returns the content of dir/name or nil when it does not exist.
func (f *FS) ReadFile(ctx context.Context, dir, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, abs, err := f.entry(dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// WriteFile atomically replaces dir/name.
func (f *FS) WriteFile(ctx context.Context, dir, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, abs, err := f.entry(dir, name)
	if err != nil {
		return err
	}
	return f.write(rel, abs, data)
}

// Read returns the raw bytes of a file under the root.
func (f *FS) Read(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: read %s: %w", rel, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// List walks dir (relative to root) and returns metadata for every .md file.
func (f *FS) List(ctx context.Context, dir string) ([]models.FileMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.FileMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, models.FileMetadata{
			Path:      filepath.ToSlash(rel),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: list %s: %w", dir, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// write atomically writes content: tmp file → fsync → rename.
func (f *FS) write(rel, abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapWrite("mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, ".notefiler-tmp-*")
	if err != nil {
		return wrapWrite("create temp", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return wrapWrite("write temp", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return wrapWrite("rename "+rel, err)
	}
	success = true
	return nil
}

// wrapWrite tags permission and read-only failures with apperr.ErrWriteDenied.
func wrapWrite(op string, err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS) {
		return fmt.Errorf("storage: %s: %w: %w", op, apperr.ErrWriteDenied, err)
	}
	return fmt.Errorf("storage: %s: %w", op, err)
}
