package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docsmith/docsmith/internal/chunk"
	"github.com/docsmith/docsmith/internal/document"
)

// Options locates the persistent state for an Indexer.
type Options struct {
	TextIndexPath string
	VectorPath    string
	BlobDir       string
	CatalogPath   string
	Dimensions    int
}

// Indexer writes one document's ingestion output across the text index,
// vector store, blob store, and catalog. Every write is an idempotent
// upsert keyed by stable IDs, so a failed document can be retried on the
// next run without cleanup.
type Indexer struct {
	text    *TextIndex
	vectors *VectorStore
	blobs   *BlobStore
	catalog *Catalog

	vectorPath string
	logger     *slog.Logger
}

// Open opens all four stores.
func Open(opts Options, logger *slog.Logger) (*Indexer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	text, err := NewTextIndex(opts.TextIndexPath)
	if err != nil {
		return nil, err
	}

	vectors, err := OpenVectorStore(opts.VectorPath, opts.Dimensions)
	if err != nil {
		text.Close()
		return nil, err
	}

	blobs, err := OpenBlobStore(opts.BlobDir, logger)
	if err != nil {
		text.Close()
		vectors.Close()
		return nil, err
	}

	catalog, err := OpenCatalog(opts.CatalogPath)
	if err != nil {
		text.Close()
		vectors.Close()
		blobs.Close()
		return nil, err
	}

	return &Indexer{
		text:       text,
		vectors:    vectors,
		blobs:      blobs,
		catalog:    catalog,
		vectorPath: opts.VectorPath,
		logger:     logger,
	}, nil
}

// IndexDocument persists a fully processed document: raw bytes to the
// blob store, one record per chunk to the text and vector indexes, and
// finally the catalog row. The catalog write comes last so a partial
// failure leaves the document looking unindexed and eligible for retry.
func (ix *Indexer) IndexDocument(ctx context.Context, doc *document.SourceDocument, chunks []*chunk.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := ix.blobs.Put(doc.ID, doc.Bytes); err != nil {
		return err
	}

	records := make([]*IndexRecord, len(chunks))
	ids := make([]string, len(chunks))
	tokenCount := 0
	for i, c := range chunks {
		records[i] = &IndexRecord{
			ChunkID:     c.ID(),
			DocumentID:  doc.ID,
			Path:        doc.Path,
			Seq:         c.Seq,
			Text:        c.Text,
			Vector:      vectors[i],
			Section:     c.Section,
			Pages:       c.Pages,
			ContentHash: doc.ContentHash,
		}
		ids[i] = records[i].ChunkID
		tokenCount += c.TokenCount
	}

	if err := ix.text.Upsert(records); err != nil {
		return err
	}
	if err := ix.vectors.Upsert(ids, vectors); err != nil {
		return err
	}
	if err := ix.removeStaleChunks(ctx, doc.ID, len(chunks)); err != nil {
		return err
	}

	return ix.catalog.Upsert(ctx, CatalogEntry{
		DocumentID:  doc.ID,
		Path:        doc.Path,
		ContentHash: doc.ContentHash,
		ChunkCount:  len(chunks),
		TokenCount:  tokenCount,
		IndexedAt:   time.Now(),
	})
}

// removeStaleChunks drops chunks left over from a previous, longer
// rendition of the document. Chunk IDs are deterministic per sequence
// number, so the trailing range [newCount, priorCount) addresses exactly
// the records the new upsert did not overwrite.
func (ix *Indexer) removeStaleChunks(ctx context.Context, docID string, newCount int) error {
	prior, err := ix.catalog.Get(ctx, docID)
	if err != nil {
		return err
	}
	if prior == nil || prior.ChunkCount <= newCount {
		return nil
	}

	stale := make([]string, 0, prior.ChunkCount-newCount)
	for seq := newCount; seq < prior.ChunkCount; seq++ {
		stale = append(stale, chunk.ID(docID, seq))
	}

	if err := ix.text.Delete(stale); err != nil {
		return err
	}
	return ix.vectors.Delete(stale)
}

// Catalog exposes the bookkeeping database for skip detection and the
// status command.
func (ix *Indexer) Catalog() *Catalog {
	return ix.catalog
}

// Vectors exposes the vector store for status reporting.
func (ix *Indexer) Vectors() *VectorStore {
	return ix.vectors
}

// Text exposes the text index for status reporting.
func (ix *Indexer) Text() *TextIndex {
	return ix.text
}

// Close saves the vector snapshot and closes every store.
// The first error wins, but all stores are still closed.
func (ix *Indexer) Close() error {
	var firstErr error

	if ix.vectorPath != "" {
		if err := ix.vectors.Save(ix.vectorPath); err != nil {
			firstErr = err
			ix.logger.Error("failed to save vector snapshot", "error", err)
		}
	}

	for _, closer := range []func() error{
		ix.text.Close,
		ix.vectors.Close,
		ix.blobs.Close,
		ix.catalog.Close,
	} {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
