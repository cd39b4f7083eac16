package document

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MediaType classifies a source document for extractor dispatch.
type MediaType string

const (
	MediaTypeMarkdown MediaType = "text/markdown"
	MediaTypePlain    MediaType = "text/plain"
	MediaTypeHTML     MediaType = "text/html"
	MediaTypeCSV      MediaType = "text/csv"
	MediaTypeJSON     MediaType = "application/json"
	MediaTypePDF      MediaType = "application/pdf"
	MediaTypePNG      MediaType = "image/png"
	MediaTypeJPEG     MediaType = "image/jpeg"
	MediaTypeTIFF     MediaType = "image/tiff"
	MediaTypeUnknown  MediaType = "application/octet-stream"
)

// extensionTypes maps well-known extensions that content sniffing cannot
// distinguish reliably (markdown and CSV both sniff as text/plain).
var extensionTypes = map[string]MediaType{
	".md":       MediaTypeMarkdown,
	".markdown": MediaTypeMarkdown,
	".txt":      MediaTypePlain,
	".text":     MediaTypePlain,
	".html":     MediaTypeHTML,
	".htm":      MediaTypeHTML,
	".csv":      MediaTypeCSV,
	".json":     MediaTypeJSON,
	".pdf":      MediaTypePDF,
	".png":      MediaTypePNG,
	".jpg":      MediaTypeJPEG,
	".jpeg":     MediaTypeJPEG,
	".tif":      MediaTypeTIFF,
	".tiff":     MediaTypeTIFF,
}

// Detect classifies a document by extension first, falling back to content
// sniffing for extensionless or unrecognized names.
func Detect(path string, data []byte) MediaType {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	return detectContent(data)
}

// detectContent sniffs the media type from the leading bytes.
func detectContent(data []byte) MediaType {
	if len(data) == 0 {
		return MediaTypeUnknown
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return MediaTypePDF
	case mt.Is("image/png"):
		return MediaTypePNG
	case mt.Is("image/jpeg"):
		return MediaTypeJPEG
	case mt.Is("image/tiff"):
		return MediaTypeTIFF
	case mt.Is("text/html"):
		return MediaTypeHTML
	case mt.Is("text/csv"):
		return MediaTypeCSV
	case mt.Is("application/json"):
		return MediaTypeJSON
	case mt.Is("text/plain") || strings.HasPrefix(mt.String(), "text/"):
		return MediaTypePlain
	default:
		return MediaTypeUnknown
	}
}

// IsImage reports whether the type is handled by the text-recognition
// service rather than a local parser.
func (m MediaType) IsImage() bool {
	switch m {
	case MediaTypePNG, MediaTypeJPEG, MediaTypeTIFF:
		return true
	}
	return false
}

func (m MediaType) String() string {
	return string(m)
}
