package errors

import (
	stderrors "errors"
	"fmt"
)

// IngestError is the structured error type for docsmith.
// It carries the code-derived kind and retryability so the coordinator can
// classify per-document failures without string matching.
type IngestError struct {
	// Code is the unique error code (e.g., "ERR_401_UNSUPPORTED_FORMAT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Kind is the error classification (Config, Document, Service, ...).
	Kind Kind

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IngestError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with IngestError.
func (e *IngestError) Is(target error) bool {
	if t, ok := target.(*IngestError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *IngestError) WithDetail(key, value string) *IngestError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new IngestError with the given code and message.
// Kind and retryable flag are derived from the code.
func New(code string, message string, cause error) *IngestError {
	return &IngestError{
		Code:      code,
		Message:   message,
		Kind:      kindFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an IngestError from an existing error.
// The error's message becomes the IngestError message.
func Wrap(code string, err error) *IngestError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// UnsupportedFormat creates an error for an unrecognized media type.
func UnsupportedFormat(mediaType string) *IngestError {
	return New(CodeUnsupportedFormat,
		fmt.Sprintf("unsupported media type %q", mediaType), nil)
}

// CorruptDocument creates an error for malformed document bytes.
func CorruptDocument(message string, cause error) *IngestError {
	return New(CodeCorruptDocument, message, cause)
}

// ExtractionService creates a retryable extraction backend error.
func ExtractionService(message string, cause error) *IngestError {
	return New(CodeExtractionService, message, cause)
}

// EmbeddingService creates a retryable embedding backend error.
func EmbeddingService(message string, cause error) *IngestError {
	return New(CodeEmbeddingService, message, cause)
}

// TokenBudgetExceeded creates an error for a chunk over the model's input limit.
func TokenBudgetExceeded(docID string, seq, tokens, limit int) *IngestError {
	return New(CodeTokenBudget,
		fmt.Sprintf("chunk %d of document %s has %d tokens, model limit is %d",
			seq, docID, tokens, limit), nil).
		WithDetail("document_id", docID).
		WithDetail("chunk_seq", fmt.Sprintf("%d", seq))
}

// DimensionMismatch creates an error for an embedding of the wrong dimension.
func DimensionMismatch(expected, got int) *IngestError {
	return New(CodeDimensionMismatch,
		fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", expected, got), nil)
}

// IndexWrite creates an index upsert error.
func IndexWrite(message string, cause error) *IngestError {
	return New(CodeIndexWrite, message, cause)
}

// BlobWrite creates a blob store error.
func BlobWrite(message string, cause error) *IngestError {
	return New(CodeBlobWrite, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error chain contains an IngestError with the
// Retryable flag set.
func IsRetryable(err error) bool {
	var ie *IngestError
	if stderrors.As(err, &ie) {
		return ie.Retryable
	}
	return false
}

// GetCode extracts the error code from an IngestError anywhere in the chain.
// Returns empty string if not found.
func GetCode(err error) string {
	var ie *IngestError
	if stderrors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// GetKind extracts the kind from an IngestError anywhere in the chain.
// Returns KindInternal for plain errors.
func GetKind(err error) Kind {
	var ie *IngestError
	if stderrors.As(err, &ie) {
		return ie.Kind
	}
	return KindInternal
}
