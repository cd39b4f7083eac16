package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmith/docsmith/internal/document"
)

// wordText builds a document of n numbered word tokens.
func wordText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func singleBlock(text string) []*document.TextBlock {
	return []*document.TextBlock{{DocumentID: "doc1", Seq: 0, Text: text}}
}

func TestSplit_WindowOffsets(t *testing.T) {
	// Given: 2500 tokens with chunkSize=1024, overlap=128
	chunker := NewChunker(1024, 128)

	chunks := chunker.Split("doc1", singleBlock(wordText(2500)))

	// Then: three windows at the expected token offsets
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].StartToken)
	assert.Equal(t, 1024, chunks[0].EndToken)
	assert.Equal(t, 896, chunks[1].StartToken)
	assert.Equal(t, 1920, chunks[1].EndToken)
	assert.Equal(t, 1792, chunks[2].StartToken)
	assert.Equal(t, 2500, chunks[2].EndToken)
	assert.Equal(t, 708, chunks[2].TokenCount)
}

func TestSplit_NoContentGaps(t *testing.T) {
	chunker := NewChunker(100, 20)

	chunks := chunker.Split("doc1", singleBlock(wordText(950)))

	require.NotEmpty(t, chunks)
	for i := 0; i < len(chunks)-1; i++ {
		// Each successor starts at or before the overlap boundary
		assert.LessOrEqual(t, chunks[i+1].StartToken, chunks[i].EndToken-20)
	}
	assert.Equal(t, 950, chunks[len(chunks)-1].EndToken)
}

func TestSplit_RoundTripReconstruction(t *testing.T) {
	// Given: overlapping chunks of a known token stream
	text := wordText(2500)
	chunker := NewChunker(1024, 128)
	chunks := chunker.Split("doc1", singleBlock(text))

	// When: the overlap is stripped and chunk tokens concatenated
	var rebuilt []string
	prevEnd := 0
	for _, c := range chunks {
		tokens := strings.Fields(c.Text)
		rebuilt = append(rebuilt, tokens[prevEnd-c.StartToken:]...)
		prevEnd = c.EndToken
	}

	// Then: the original token stream is reconstructed exactly
	assert.Equal(t, strings.Fields(text), rebuilt)
}

func TestSplit_ShortDocumentSingleChunk(t *testing.T) {
	chunker := NewChunker(1024, 128)

	chunks := chunker.Split("doc1", singleBlock(wordText(50)))

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].StartToken)
	assert.Equal(t, 50, chunks[0].EndToken)
	assert.Equal(t, 50, chunks[0].TokenCount)
}

func TestSplit_ExactWindowNoEmptyTail(t *testing.T) {
	// A document of exactly chunkSize tokens yields one chunk, not a
	// second window made entirely of overlap.
	chunker := NewChunker(100, 20)

	chunks := chunker.Split("doc1", singleBlock(wordText(100)))

	require.Len(t, chunks, 1)
}

func TestSplit_EmptyDocument(t *testing.T) {
	chunker := NewChunker(1024, 128)

	assert.Nil(t, chunker.Split("doc1", nil))
	assert.Nil(t, chunker.Split("doc1", singleBlock("")))
	assert.Nil(t, chunker.Split("doc1", singleBlock("  \n\t  ")))
}

func TestSplit_ZeroOverlap(t *testing.T) {
	chunker := NewChunker(100, 0)

	chunks := chunker.Split("doc1", singleBlock(wordText(250)))

	require.Len(t, chunks, 3)
	assert.Equal(t, 100, chunks[1].StartToken)
	assert.Equal(t, 200, chunks[2].StartToken)
	assert.Equal(t, 250, chunks[2].EndToken)
}

func TestNewChunker_ClampsInvalidOverlap(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 10, 50},
		{"negative overlap", 100, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker := NewChunker(tt.chunkSize, tt.overlap)

			// Split must terminate with a positive stride and still
			// cover the whole token stream without gaps.
			chunks := chunker.Split("doc1", singleBlock(wordText(300)))

			require.NotEmpty(t, chunks)
			assert.Equal(t, 0, chunks[0].StartToken)
			assert.Equal(t, 300, chunks[len(chunks)-1].EndToken)
			for i := 1; i < len(chunks); i++ {
				assert.LessOrEqual(t, chunks[i].StartToken, chunks[i-1].EndToken)
				assert.Greater(t, chunks[i].StartToken, chunks[i-1].StartToken)
			}
		})
	}
}

func TestSplit_SequenceIsMonotonic(t *testing.T) {
	chunker := NewChunker(64, 16)

	chunks := chunker.Split("doc1", singleBlock(wordText(500)))

	for i, c := range chunks {
		assert.Equal(t, i, c.Seq)
		assert.Equal(t, "doc1", c.DocumentID)
	}
}

func TestSplit_ProvenanceAcrossBlocks(t *testing.T) {
	// Given: two paged blocks with distinct sections
	blocks := []*document.TextBlock{
		{DocumentID: "doc1", Seq: 0, Text: wordText(80), Page: 1, Section: "Intro"},
		{DocumentID: "doc1", Seq: 1, Text: wordText(80), Page: 2, Section: "Body"},
	}
	chunker := NewChunker(100, 10)

	chunks := chunker.Split("doc1", blocks)

	// Then: the first chunk spans both blocks, carries the first block's
	// section and both pages
	require.Len(t, chunks, 2)
	assert.Equal(t, "Intro", chunks[0].Section)
	assert.Equal(t, []int{1, 2}, chunks[0].Pages)
	// The second chunk lies entirely in the second block
	assert.Equal(t, "Body", chunks[1].Section)
	assert.Equal(t, []int{2}, chunks[1].Pages)
}

func TestChunkID_DeterministicAndUnique(t *testing.T) {
	a := &Chunk{DocumentID: "doc1", Seq: 0}
	b := &Chunk{DocumentID: "doc1", Seq: 0}
	c := &Chunk{DocumentID: "doc1", Seq: 1}
	d := &Chunk{DocumentID: "doc2", Seq: 0}

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.NotEqual(t, a.ID(), d.ID())
	assert.Len(t, a.ID(), 16)
}

func TestTokenize_ByteOffsets(t *testing.T) {
	text := "alpha  beta\n\tgamma"

	tokens := Tokenize(text)

	require.Len(t, tokens, 3)
	assert.Equal(t, "alpha", text[tokens[0].Start:tokens[0].End])
	assert.Equal(t, "beta", text[tokens[1].Start:tokens[1].End])
	assert.Equal(t, "gamma", text[tokens[2].Start:tokens[2].End])
}

func TestTokenize_Unicode(t *testing.T) {
	text := "héllo wörld" // non-breaking space separator

	tokens := Tokenize(text)

	require.Len(t, tokens, 2)
	assert.Equal(t, "héllo", text[tokens[0].Start:tokens[0].End])
	assert.Equal(t, "wörld", text[tokens[1].Start:tokens[1].End])
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 0, CountTokens("   "))
	assert.Equal(t, 3, CountTokens("one two three"))
	assert.Equal(t, 2500, CountTokens(wordText(2500)))
}
