package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/tikgrab/internal/domain"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS download_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	path       TEXT NOT NULL,
	size       INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_post ON download_history(post_id);
`

// SQLiteHistory is a HistoryRepository backed by a local sqlite file.
type SQLiteHistory struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteHistory opens (creating when absent) the history database at
// path and applies the schema.
func NewSQLiteHistory(path string, logger *slog.Logger) (*SQLiteHistory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &SQLiteHistory{db: db, logger: logger}, nil
}

// Record inserts one completed transfer.
func (r *SQLiteHistory) Record(ctx context.Context, rec AssetRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO download_history (post_id, kind, path, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.PostID, string(rec.Kind), rec.Path, rec.Size, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// Exists reports whether a post already has a recorded download of the
// given kind.
func (r *SQLiteHistory) Exists(ctx context.Context, postID string, kind domain.ContentKind) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM download_history WHERE post_id = ? AND kind = ?`,
		postID, string(kind),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query history: %w", err)
	}
	return n > 0, nil
}

// ListByPost returns all recorded transfers for a post, oldest first.
func (r *SQLiteHistory) ListByPost(ctx context.Context, postID string) ([]AssetRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, kind, path, size, created_at
		 FROM download_history WHERE post_id = ? ORDER BY id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []AssetRecord
	for rows.Next() {
		var rec AssetRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.PostID, &kind, &rec.Path, &rec.Size, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Kind = domain.ContentKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (r *SQLiteHistory) Close() error {
	return r.db.Close()
}
