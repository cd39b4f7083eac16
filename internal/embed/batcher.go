package embed

import (
	"context"

	"github.com/docsmith/docsmith/internal/chunk"
	ierr "github.com/docsmith/docsmith/internal/errors"
)

// Batcher defaults.
const (
	DefaultBatchMaxChunks = 16
	DefaultBatchMaxTokens = 8192
	DefaultMaxInputTokens = 8192
)

// Batcher groups a document's chunks into bounded service requests.
// A batch is flushed before either the chunk-count or the token limit
// would be exceeded.
type Batcher struct {
	maxChunks      int
	maxTokens      int
	maxInputTokens int
}

// NewBatcher creates a batcher. Zero limits fall back to defaults.
func NewBatcher(maxChunks, maxTokens, maxInputTokens int) *Batcher {
	if maxChunks <= 0 {
		maxChunks = DefaultBatchMaxChunks
	}
	if maxTokens <= 0 {
		maxTokens = DefaultBatchMaxTokens
	}
	if maxInputTokens <= 0 {
		maxInputTokens = DefaultMaxInputTokens
	}
	return &Batcher{maxChunks: maxChunks, maxTokens: maxTokens, maxInputTokens: maxInputTokens}
}

// Batches splits chunks into request-sized groups, preserving order.
// A single chunk over the model input limit fails the whole document.
func (b *Batcher) Batches(chunks []*chunk.Chunk) ([][]*chunk.Chunk, error) {
	var batches [][]*chunk.Chunk
	var current []*chunk.Chunk
	tokens := 0

	for _, c := range chunks {
		if c.TokenCount > b.maxInputTokens {
			return nil, ierr.TokenBudgetExceeded(c.DocumentID, c.Seq, c.TokenCount, b.maxInputTokens)
		}

		if len(current) > 0 && (len(current)+1 > b.maxChunks || tokens+c.TokenCount > b.maxTokens) {
			batches = append(batches, current)
			current = nil
			tokens = 0
		}

		current = append(current, c)
		tokens += c.TokenCount
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches, nil
}

// EmbedChunks embeds one document's chunks batch by batch, returning
// vectors aligned with the input order. Batches within a document run
// sequentially; cross-document concurrency belongs to the coordinator.
func (b *Batcher) EmbedChunks(ctx context.Context, embedder Embedder, chunks []*chunk.Chunk) ([][]float32, error) {
	batches, err := b.Batches(chunks)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vecs...)
	}

	return vectors, nil
}
