package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite driver, no CGO

	ierr "github.com/docsmith/docsmith/internal/errors"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id       TEXT PRIMARY KEY,
	path         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	chunk_count  INTEGER NOT NULL,
	token_count  INTEGER NOT NULL,
	indexed_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);
`

// Catalog is the sqlite bookkeeping database. A row exists for a
// document only after its blob and index writes have all succeeded,
// which is what makes skip-unchanged detection safe.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ierr.New(ierr.CodeCatalog, "failed to open catalog", err)
	}

	// WAL must be set via PRAGMA; DSN params are ignored by this driver
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, ierr.New(ierr.CodeCatalog, fmt.Sprintf("failed to apply %q", p), err)
		}
	}

	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, ierr.New(ierr.CodeCatalog, "failed to create catalog schema", err)
	}

	return &Catalog{db: db}, nil
}

// Upsert records a successfully indexed document.
func (c *Catalog) Upsert(ctx context.Context, entry CatalogEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO documents (doc_id, path, content_hash, chunk_count, token_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			path = excluded.path,
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			token_count = excluded.token_count,
			indexed_at = excluded.indexed_at`,
		entry.DocumentID, entry.Path, entry.ContentHash,
		entry.ChunkCount, entry.TokenCount, entry.IndexedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return ierr.New(ierr.CodeCatalog,
			fmt.Sprintf("failed to record document %s", entry.DocumentID), err)
	}
	return nil
}

// ContentHash returns the recorded hash for a document, or empty string
// when the document has never been indexed.
func (c *Catalog) ContentHash(ctx context.Context, docID string) (string, error) {
	var hash string
	err := c.db.QueryRowContext(ctx,
		`SELECT content_hash FROM documents WHERE doc_id = ?`, docID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", ierr.New(ierr.CodeCatalog,
			fmt.Sprintf("failed to look up document %s", docID), err)
	}
	return hash, nil
}

// Get returns a document's catalog entry, or nil when absent.
func (c *Catalog) Get(ctx context.Context, docID string) (*CatalogEntry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT doc_id, path, content_hash, chunk_count, token_count, indexed_at
		FROM documents WHERE doc_id = ?`, docID)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, ierr.New(ierr.CodeCatalog,
			fmt.Sprintf("failed to load document %s", docID), err)
	}
	return entry, nil
}

// All returns every catalog entry ordered by path.
func (c *Catalog) All(ctx context.Context) ([]*CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT doc_id, path, content_hash, chunk_count, token_count, indexed_at
		FROM documents ORDER BY path`)
	if err != nil {
		return nil, ierr.New(ierr.CodeCatalog, "failed to list documents", err)
	}
	defer rows.Close()

	var entries []*CatalogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, ierr.New(ierr.CodeCatalog, "failed to scan document row", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of cataloged documents.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, ierr.New(ierr.CodeCatalog, "failed to count documents", err)
	}
	return n, nil
}

// scanner is satisfied by both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*CatalogEntry, error) {
	var entry CatalogEntry
	var indexedAt string
	if err := s.Scan(&entry.DocumentID, &entry.Path, &entry.ContentHash,
		&entry.ChunkCount, &entry.TokenCount, &indexedAt); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, indexedAt); err == nil {
		entry.IndexedAt = t
	}
	return &entry, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
