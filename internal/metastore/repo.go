package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/notefiler/internal/apperr"
	"github.com/starford/notefiler/internal/models"
)

// Get returns the value stored under key and whether it exists.
func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("metastore: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key, replacing any previous value.
func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("metastore: set %s: %w", key, err)
	}
	return nil
}

// RecordNote inserts a stored-note record and its FTS entry within a transaction.
// Records are written once; a duplicate id is an error.
func (db *DB) RecordNote(ctx context.Context, n models.StoredNote) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stored_notes (id, title, content, category, storage_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Content, n.Category, n.StoragePath, n.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("metastore: insert note: %w", err)
	}

	// FTS insert (no-op when FTS5 tag is absent).
	if err := ftsInsert(ctx, tx, n); err != nil {
		return err
	}
	return tx.Commit()
}

// GetNote returns the record with the given id.
func (db *DB) GetNote(ctx context.Context, id string) (*models.StoredNote, error) {
	var n models.StoredNote
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, title, content, category, storage_path, created_at
		FROM stored_notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &n.Content, &n.Category, &n.StoragePath, &n.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("metastore: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("metastore: get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns records newest first together with the total count.
func (db *DB) ListNotes(ctx context.Context, limit, offset int) ([]models.StoredNote, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM stored_notes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("metastore: count notes: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, content, category, storage_path, created_at
		FROM stored_notes
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("metastore: list notes: %w", err)
	}
	defer rows.Close()

	out := []models.StoredNote{}
	for rows.Next() {
		var n models.StoredNote
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Category, &n.StoragePath, &n.Timestamp); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}
