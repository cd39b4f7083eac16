// Package extract turns source documents into ordered text blocks.
// Textual formats are parsed locally; image-bearing formats delegate to
// an external text-recognition service.
package extract

import (
	"context"
	"log/slog"

	"github.com/docsmith/docsmith/internal/document"
	ierr "github.com/docsmith/docsmith/internal/errors"
)

// Iterator is a lazy, finite, non-restartable sequence of text blocks.
// Next returns nil, nil once the sequence is exhausted.
type Iterator struct {
	next func() (*document.TextBlock, error)
}

// Next returns the next block, or nil when the sequence ends.
// After the first error the iterator keeps returning that error.
func (it *Iterator) Next() (*document.TextBlock, error) {
	return it.next()
}

// Collect drains an iterator into a slice.
func Collect(it *Iterator) ([]*document.TextBlock, error) {
	var blocks []*document.TextBlock
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		if block == nil {
			return blocks, nil
		}
		blocks = append(blocks, block)
	}
}

// fromBlocks wraps an already-materialized block slice in an Iterator.
func fromBlocks(blocks []*document.TextBlock) *Iterator {
	pos := 0
	return &Iterator{next: func() (*document.TextBlock, error) {
		if pos >= len(blocks) {
			return nil, nil
		}
		b := blocks[pos]
		pos++
		return b, nil
	}}
}

// failed returns an iterator whose first Next call yields err.
func failed(err error) *Iterator {
	return &Iterator{next: func() (*document.TextBlock, error) {
		return nil, err
	}}
}

// Extractor dispatches a document to the parser for its media type.
type Extractor struct {
	ocr    *OCRClient
	logger *slog.Logger
}

// New creates an extractor. ocr may be nil when no recognition service
// is configured; image-bearing documents then fail extraction.
func New(ocr *OCRClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ocr: ocr, logger: logger}
}

// Extract produces the document's text block sequence.
// Local formats never touch the network; PDFs fall back to the
// recognition service when their text layer is empty.
func (e *Extractor) Extract(ctx context.Context, doc *document.SourceDocument) *Iterator {
	switch doc.MediaType {
	case document.MediaTypeMarkdown, document.MediaTypePlain:
		return fromBlocks(splitHeadings(doc.ID, string(doc.Bytes)))

	case document.MediaTypeHTML:
		blocks, err := extractHTML(doc.ID, doc.Bytes)
		if err != nil {
			return failed(err)
		}
		return fromBlocks(blocks)

	case document.MediaTypeCSV, document.MediaTypeJSON:
		// Structured text passes through as a single block.
		return fromBlocks([]*document.TextBlock{{
			DocumentID: doc.ID,
			Seq:        0,
			Text:       string(doc.Bytes),
		}})

	case document.MediaTypePDF:
		return e.extractPDF(ctx, doc)

	default:
		if doc.MediaType.IsImage() {
			return e.extractImage(ctx, doc)
		}
		return failed(ierr.UnsupportedFormat(doc.MediaType.String()))
	}
}

// extractImage sends the raw image to the recognition service.
func (e *Extractor) extractImage(ctx context.Context, doc *document.SourceDocument) *Iterator {
	if e.ocr == nil {
		return failed(ierr.UnsupportedFormat(
			doc.MediaType.String() + " (no text recognition service configured)"))
	}
	pages, err := e.ocr.Recognize(ctx, doc.Bytes, doc.MediaType)
	if err != nil {
		return failed(err)
	}
	return fromBlocks(pagesToBlocks(doc.ID, pages))
}

// pagesToBlocks converts service pages into ordered blocks, skipping
// pages the service found no text on.
func pagesToBlocks(docID string, pages []Page) []*document.TextBlock {
	blocks := make([]*document.TextBlock, 0, len(pages))
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		blocks = append(blocks, &document.TextBlock{
			DocumentID: docID,
			Seq:        len(blocks),
			Text:       p.Text,
			Page:       p.Number,
		})
	}
	return blocks
}
