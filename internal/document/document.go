// Package document defines the source document model shared by every
// pipeline stage: the raw bytes read from disk, the detected media type,
// and the extracted text blocks that feed the chunker.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ierr "github.com/docsmith/docsmith/internal/errors"
)

// SourceDocument is one file picked up for ingestion.
// Immutable once read; the coordinator owns it for the duration of a run.
type SourceDocument struct {
	// ID is the stable document identifier derived from the path.
	ID string

	// Path is the path as discovered, relative to the ingestion root.
	Path string

	// AbsPath is the absolute filesystem path.
	AbsPath string

	// Bytes is the raw file content.
	Bytes []byte

	// MediaType is the detected media type.
	MediaType MediaType

	// ContentHash is the hex sha256 of Bytes, used for change detection.
	ContentHash string

	Size    int64
	ModTime time.Time
}

// TextBlock is an ordered piece of extracted text with provenance.
// Produced by the extractor, consumed by the chunker, never persisted.
type TextBlock struct {
	DocumentID string

	// Seq is the block's position within its document, starting at 0.
	Seq int

	Text string

	// Page is the 1-based source page, 0 when the format has no pages.
	Page int

	// Section is the nearest enclosing heading, empty when unknown.
	Section string
}

// DocumentID derives the stable identifier for a source path.
// The same path always yields the same ID, which makes re-ingestion
// an overwrite rather than a duplicate insert.
func DocumentID(path string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(path)))
	return hex.EncodeToString(sum[:])[:16]
}

// HashBytes returns the hex sha256 content hash.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Read loads a source document from disk. path is kept as the document
// identifier source; root is used to resolve it when relative.
// Files over maxSize bytes are rejected before any bytes are read.
func Read(root, path string, maxSize int64) (*SourceDocument, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, ierr.New(ierr.CodeFileUnreadable,
			fmt.Sprintf("cannot stat %s", path), err)
	}
	if info.Size() > maxSize {
		return nil, ierr.New(ierr.CodeFileTooLarge,
			fmt.Sprintf("%s is %d bytes, limit is %d", path, info.Size(), maxSize), nil)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, ierr.New(ierr.CodeFileUnreadable,
			fmt.Sprintf("cannot read %s", path), err)
	}

	return &SourceDocument{
		ID:          DocumentID(path),
		Path:        path,
		AbsPath:     abs,
		Bytes:       data,
		MediaType:   Detect(path, data),
		ContentHash: HashBytes(data),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}
