package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dqaudit/dqaudit/internal/document"
)

// SQLiteStore keeps documents in a single SQLite database file. Upserts
// run inside implicit transactions, so a failed write leaves the previous
// row intact.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	key TEXT PRIMARY KEY,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	doc_json TEXT NOT NULL
);
`

// OpenSQLiteStore opens or creates the database at dir/dqaudit.db.
func OpenSQLiteStore(dir string) (*SQLiteStore, error) {
	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	path := filepath.Join(dir, "dqaudit.db")

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}

	// SQLite supports a single writer; one pooled connection avoids lock
	// contention between Put calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	_, walErr := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL")
	if walErr != nil {
		_ = db.Close()

		return nil, fmt.Errorf("enable WAL mode: %w", walErr)
	}

	_, schemaErr := db.ExecContext(context.Background(), sqliteSchema)
	if schemaErr != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create store schema: %w", schemaErr)
	}

	return &SQLiteStore{db: db}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*document.Document, error) {
	var raw string

	err := s.db.QueryRowContext(ctx,
		"SELECT doc_json FROM documents WHERE key = ?", key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("query document %s: %w", key, err)
	}

	var doc document.Document

	unmarshalErr := json.Unmarshal([]byte(raw), &doc)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, unmarshalErr)
	}

	return &doc, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, key string, doc *document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}

	query := `
	INSERT INTO documents (key, doc_json) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET
		doc_json = excluded.doc_json,
		updated_at = CURRENT_TIMESTAMP
	`

	_, execErr := s.db.ExecContext(ctx, query, key, string(data))
	if execErr != nil {
		return fmt.Errorf("store document %s: %w", key, execErr)
	}

	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
