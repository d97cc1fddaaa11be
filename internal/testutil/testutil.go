// Package testutil provides shared test helpers for setting up storage roots and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/notefiler/internal/metastore"
	"github.com/starford/notefiler/internal/storage"
)

// TestDB creates a temporary SQLite metadata store that is automatically cleaned up.
func TestDB(t *testing.T) *metastore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notefiler-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := metastore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStorage creates a temporary storage root with a file-system provider.
func TestStorage(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
