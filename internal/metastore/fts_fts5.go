//go:build sqlite_fts5

package metastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/notefiler/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			id UNINDEXED,
			title,
			content,
			category,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(ctx context.Context, tx *sql.Tx, n models.StoredNote) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (id, title, content, category) VALUES (?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, n.Category)
	if err != nil {
		return fmt.Errorf("metastore: insert fts: %w", err)
	}
	return nil
}

// SearchNotes performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) SearchNotes(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.title, s.category, s.storage_path,
		       snippet(notes_fts, 2, '<b>', '</b>', '...', 64),
		       s.created_at
		FROM notes_fts
		JOIN stored_notes s ON s.id = notes_fts.id
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
