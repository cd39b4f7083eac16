package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/docsmith/docsmith/internal/document"
	ierr "github.com/docsmith/docsmith/internal/errors"
)

// extractPDF reads the PDF text layer. A PDF whose text layer is empty is
// treated as scanned and sent to the recognition service instead.
func (e *Extractor) extractPDF(ctx context.Context, doc *document.SourceDocument) *Iterator {
	pages, err := pdfTextLayer(doc.Bytes)
	if err != nil {
		return failed(err)
	}

	if hasText(pages) {
		return fromBlocks(pagesToBlocks(doc.ID, pages))
	}

	// Scanned PDF: no extractable text layer
	if e.ocr == nil {
		return failed(ierr.UnsupportedFormat(
			"application/pdf (scanned, no text recognition service configured)"))
	}
	e.logger.Debug("pdf text layer empty, delegating to text recognition",
		"document_id", doc.ID, "path", doc.Path)

	recognized, err := e.ocr.Recognize(ctx, doc.Bytes, doc.MediaType)
	if err != nil {
		return failed(err)
	}
	return fromBlocks(pagesToBlocks(doc.ID, recognized))
}

// pdfTextLayer extracts per-page text. The underlying parser panics on
// some malformed files, so the recover maps those to corrupt-document
// errors instead of taking down the worker.
func pdfTextLayer(data []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = ierr.CorruptDocument(fmt.Sprintf("pdf parser panic: %v", r), nil)
		}
	}()

	reader, rerr := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return nil, ierr.CorruptDocument("malformed pdf", rerr)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, terr := page.GetPlainText(nil)
		if terr != nil {
			// A single unreadable page does not fail the document;
			// the page simply contributes no text.
			continue
		}
		pages = append(pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}

	return pages, nil
}

// hasText reports whether any page carries extractable text.
func hasText(pages []Page) bool {
	for _, p := range pages {
		if p.Text != "" {
			return true
		}
	}
	return false
}
