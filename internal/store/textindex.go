package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	ierr "github.com/docsmith/docsmith/internal/errors"
)

// TextIndex is the bleve full-text index over chunk text.
type TextIndex struct {
	mu     sync.Mutex
	index  bleve.Index
	path   string
	closed bool
}

// bleveRecord is the subset of IndexRecord stored in bleve.
type bleveRecord struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
	Text       string `json:"text"`
	Section    string `json:"section"`
}

// NewTextIndex opens or creates a bleve index at path.
// An empty path creates an in-memory index for tests.
func NewTextIndex(path string) (*TextIndex, error) {
	m := createMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, m)
		} else if err != nil && isCorruptionError(err) {
			// A corrupt index cannot be repaired in place; clear it and
			// let the next run repopulate via idempotent upserts.
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("text index corrupt at %s and cannot clear: %w", path, rmErr)
			}
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open text index: %w", err)
	}

	return &TextIndex{index: idx, path: path}, nil
}

func createMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	record := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	record.AddFieldMappingsAt("text", text)
	record.AddFieldMappingsAt("section", text)

	keyword := bleve.NewKeywordFieldMapping()
	record.AddFieldMappingsAt("document_id", keyword)
	record.AddFieldMappingsAt("path", keyword)

	m.DefaultMapping = record
	return m
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "corrupt") ||
		strings.Contains(s, "failed to load segment") ||
		strings.Contains(s, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// Upsert indexes records in one batch, keyed by chunk ID.
func (t *TextIndex) Upsert(records []*IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ierr.IndexWrite("text index is closed", nil)
	}

	batch := t.index.NewBatch()
	for _, rec := range records {
		doc := bleveRecord{
			DocumentID: rec.DocumentID,
			Path:       rec.Path,
			Text:       rec.Text,
			Section:    rec.Section,
		}
		if err := batch.Index(rec.ChunkID, doc); err != nil {
			return ierr.IndexWrite(fmt.Sprintf("failed to batch chunk %s", rec.ChunkID), err)
		}
	}

	if err := t.index.Batch(batch); err != nil {
		return ierr.IndexWrite("failed to execute text index batch", err)
	}
	return nil
}

// Delete removes chunks by ID.
func (t *TextIndex) Delete(chunkIDs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ierr.IndexWrite("text index is closed", nil)
	}

	batch := t.index.NewBatch()
	for _, id := range chunkIDs {
		batch.Delete(id)
	}
	if err := t.index.Batch(batch); err != nil {
		return ierr.IndexWrite("failed to delete from text index", err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (t *TextIndex) Count() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, fmt.Errorf("text index is closed")
	}
	return t.index.DocCount()
}

// Close releases the index.
func (t *TextIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.index.Close()
}
