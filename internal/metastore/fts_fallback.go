//go:build !sqlite_fts5

package metastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/notefiler/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the stored_notes table.
	return nil
}

func ftsInsert(_ context.Context, _ *sql.Tx, _ models.StoredNote) error {
	// Content is already stored in stored_notes; nothing extra to do.
	return nil
}

// SearchNotes performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) SearchNotes(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, category, storage_path, substr(content, 1, 200), created_at
		FROM stored_notes
		WHERE title LIKE ? OR content LIKE ? OR category LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("metastore: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Category, &r.StoragePath, &r.Snippet, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
