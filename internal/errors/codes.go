// Package errors provides structured error handling for docsmith.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Document errors (corrupt input, oversized files)
//   - 3XX: Service errors (extraction, embedding backends)
//   - 4XX: Validation errors
//   - 5XX: Storage errors (index, blob)
package errors

// Kind classifies errors for failure reporting and retry decisions.
type Kind string

const (
	// KindConfig indicates configuration-related errors.
	KindConfig Kind = "CONFIG"
	// KindDocument indicates errors caused by the document itself.
	KindDocument Kind = "DOCUMENT"
	// KindService indicates external service errors.
	KindService Kind = "SERVICE"
	// KindValidation indicates input validation errors.
	KindValidation Kind = "VALIDATION"
	// KindStorage indicates index or blob store errors.
	KindStorage Kind = "STORAGE"
	// KindInternal indicates unexpected internal errors.
	KindInternal Kind = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	CodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	CodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Document errors (200-299)
	CodeCorruptDocument = "ERR_201_CORRUPT_DOCUMENT"
	CodeFileTooLarge    = "ERR_202_FILE_TOO_LARGE"
	CodeFileUnreadable  = "ERR_203_FILE_UNREADABLE"

	// Service errors (300-399)
	CodeExtractionService = "ERR_301_EXTRACTION_SERVICE"
	CodeEmbeddingService  = "ERR_302_EMBEDDING_SERVICE"

	// Validation errors (400-499)
	CodeUnsupportedFormat = "ERR_401_UNSUPPORTED_FORMAT"
	CodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	CodeTokenBudget       = "ERR_403_TOKEN_BUDGET"
	CodeInvalidSelector   = "ERR_404_INVALID_SELECTOR"

	// Storage errors (500-599)
	CodeIndexWrite = "ERR_501_INDEX_WRITE"
	CodeBlobWrite  = "ERR_502_BLOB_WRITE"
	CodeCatalog    = "ERR_503_CATALOG"
	CodeInternal   = "ERR_504_INTERNAL"
)

// kindFromCode extracts the kind from an error code.
func kindFromCode(code string) Kind {
	if len(code) < 7 {
		return KindInternal
	}

	switch code[4] {
	case '1':
		return KindConfig
	case '2':
		return KindDocument
	case '3':
		return KindService
	case '4':
		return KindValidation
	case '5':
		return KindStorage
	default:
		return KindInternal
	}
}

// isRetryableCode checks if an error code represents a retryable error.
// Only transient service failures are retried; document, validation, and
// storage errors surface immediately.
func isRetryableCode(code string) bool {
	switch code {
	case CodeExtractionService, CodeEmbeddingService:
		return true
	default:
		return false
	}
}
