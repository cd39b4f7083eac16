package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesKindAndRetryability(t *testing.T) {
	tests := []struct {
		code      string
		wantKind  Kind
		retryable bool
	}{
		{CodeConfigInvalid, KindConfig, false},
		{CodeCorruptDocument, KindDocument, false},
		{CodeExtractionService, KindService, true},
		{CodeEmbeddingService, KindService, true},
		{CodeUnsupportedFormat, KindValidation, false},
		{CodeDimensionMismatch, KindValidation, false},
		{CodeTokenBudget, KindValidation, false},
		{CodeIndexWrite, KindStorage, false},
		{CodeBlobWrite, KindStorage, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestIngestError_ErrorIncludesCode(t *testing.T) {
	err := New(CodeUnsupportedFormat, "bad format", nil)
	assert.Contains(t, err.Error(), CodeUnsupportedFormat)
	assert.Contains(t, err.Error(), "bad format")
}

func TestIngestError_UnwrapAndIs(t *testing.T) {
	// Given: an IngestError wrapping a sentinel
	cause := stderrors.New("underlying")
	err := Wrap(CodeEmbeddingService, cause)

	// Then: errors.Is finds both the cause and a same-code IngestError
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, New(CodeEmbeddingService, "", nil)))
	assert.False(t, stderrors.Is(err, New(CodeIndexWrite, "", nil)))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	var e *IngestError = Wrap(CodeInternal, nil)
	assert.Nil(t, e)
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(CodeTokenBudget, "too big", nil).
		WithDetail("document_id", "abc").
		WithDetail("chunk_seq", "3")

	assert.Equal(t, "abc", err.Details["document_id"])
	assert.Equal(t, "3", err.Details["chunk_seq"])
}

func TestTokenBudgetExceeded_CarriesContext(t *testing.T) {
	err := TokenBudgetExceeded("doc1", 4, 9000, 8192)

	require.Equal(t, CodeTokenBudget, err.Code)
	assert.Contains(t, err.Message, "9000")
	assert.Equal(t, "doc1", err.Details["document_id"])
	assert.False(t, err.Retryable)
}

func TestDimensionMismatch_Message(t *testing.T) {
	err := DimensionMismatch(768, 384)
	assert.Contains(t, err.Error(), "768")
	assert.Contains(t, err.Error(), "384")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ExtractionService("timeout", nil)))
	assert.False(t, IsRetryable(CorruptDocument("bad bytes", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestGetCodeAndKind(t *testing.T) {
	err := IndexWrite("upsert failed", nil)
	assert.Equal(t, CodeIndexWrite, GetCode(err))
	assert.Equal(t, KindStorage, GetKind(err))

	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
	assert.Equal(t, KindInternal, GetKind(fmt.Errorf("plain")))
}
