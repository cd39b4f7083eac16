// Package store persists ingestion output: chunk text in a bleve index,
// vectors in an HNSW graph, raw document bytes in a badger blob store,
// and per-document bookkeeping in a sqlite catalog.
package store

import "time"

// IndexRecord is one indexed chunk. Records are keyed by ChunkID and
// upserted, so re-ingesting an unchanged document overwrites in place.
type IndexRecord struct {
	ChunkID     string    `json:"chunk_id"`
	DocumentID  string    `json:"document_id"`
	Path        string    `json:"path"`
	Seq         int       `json:"seq"`
	Text        string    `json:"text"`
	Vector      []float32 `json:"-"`
	Section     string    `json:"section,omitempty"`
	Pages       []int     `json:"pages,omitempty"`
	ContentHash string    `json:"content_hash"`
}

// CatalogEntry is the durable per-document bookkeeping row, written only
// after the document's blob and index writes have all succeeded.
type CatalogEntry struct {
	DocumentID  string
	Path        string
	ContentHash string
	ChunkCount  int
	TokenCount  int
	IndexedAt   time.Time
}
