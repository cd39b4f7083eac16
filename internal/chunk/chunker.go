// Package chunk splits extracted text into overlapping token windows
// sized for the embedding model.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/docsmith/docsmith/internal/document"
)

// Chunk size defaults.
const (
	DefaultChunkSize = 1024
	DefaultOverlap   = 128
)

// blockSeparator joins consecutive text blocks in the concatenated stream.
const blockSeparator = "\n\n"

// Chunk is a contiguous token span of one document's text.
// Chunks are pure value objects, immutable after creation.
type Chunk struct {
	DocumentID string

	// Seq is the chunk's position within its document, starting at 0.
	Seq int

	// Text is the exact source slice covering the token span.
	Text string

	// StartToken and EndToken are offsets into the document's token
	// stream; EndToken is exclusive.
	StartToken int
	EndToken   int
	TokenCount int

	// Section is the section label of the first block the chunk overlaps.
	Section string

	// Pages is the sorted set of source pages the chunk spans.
	// Empty for unpaged formats.
	Pages []int
}

// ID returns the deterministic chunk identifier. The same document and
// sequence always produce the same ID, so re-ingestion upserts in place.
func (c *Chunk) ID() string {
	return ID(c.DocumentID, c.Seq)
}

// ID computes the identifier for a document/sequence pair without
// materializing a chunk, so stores can address chunks from prior runs.
func ID(docID string, seq int) string {
	sum := sha256.Sum256([]byte(docID + ":" + strconv.Itoa(seq)))
	return hex.EncodeToString(sum[:])[:16]
}

// Chunker walks a sliding token window over a document's text blocks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. A non-positive chunkSize falls back to
// the default. The window invariant 0 <= overlap < chunkSize is enforced
// here as well as at config validation: an overlap outside that range is
// clamped to an eighth of the window so the stride stays positive.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 8
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// blockSpan records where a block landed in the concatenated text.
type blockSpan struct {
	start   int
	end     int
	section string
	page    int
}

// Split chunks the ordered text blocks of one document.
// A document producing zero tokens yields zero chunks and no error.
func (c *Chunker) Split(docID string, blocks []*document.TextBlock) []*Chunk {
	text, spans := concatenate(blocks)
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := c.chunkSize - c.overlap
	var chunks []*Chunk

	for start := 0; start < len(tokens); start += stride {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		startByte := tokens[start].Start
		endByte := tokens[end-1].End
		section, pages := provenance(spans, startByte, endByte)

		chunks = append(chunks, &Chunk{
			DocumentID: docID,
			Seq:        len(chunks),
			Text:       text[startByte:endByte],
			StartToken: start,
			EndToken:   end,
			TokenCount: end - start,
			Section:    section,
			Pages:      pages,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks
}

// concatenate joins block text and records each block's byte span.
func concatenate(blocks []*document.TextBlock) (string, []blockSpan) {
	var b strings.Builder
	spans := make([]blockSpan, 0, len(blocks))

	for i, block := range blocks {
		if i > 0 {
			b.WriteString(blockSeparator)
		}
		start := b.Len()
		b.WriteString(block.Text)
		spans = append(spans, blockSpan{
			start:   start,
			end:     b.Len(),
			section: block.Section,
			page:    block.Page,
		})
	}

	return b.String(), spans
}

// provenance resolves the section and page set for a chunk's byte range.
// The section comes from the first overlapped block; pages collect every
// overlapped block's page number.
func provenance(spans []blockSpan, startByte, endByte int) (string, []int) {
	section := ""
	pageSet := map[int]bool{}
	first := true

	for _, s := range spans {
		if s.end <= startByte || s.start >= endByte {
			continue
		}
		if first {
			section = s.section
			first = false
		}
		if s.page > 0 {
			pageSet[s.page] = true
		}
	}

	if len(pageSet) == 0 {
		return section, nil
	}
	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return section, pages
}
