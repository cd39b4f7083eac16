package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmith/docsmith/internal/document"
	ierr "github.com/docsmith/docsmith/internal/errors"
)

func testDoc(path string, content []byte) *document.SourceDocument {
	return &document.SourceDocument{
		ID:        document.DocumentID(path),
		Path:      path,
		Bytes:     content,
		MediaType: document.Detect(path, content),
	}
}

func TestExtract_MarkdownSections(t *testing.T) {
	content := []byte(`intro text

# Setup

install the thing

## Usage

run the thing
`)
	e := New(nil, nil)

	blocks, err := Collect(e.Extract(context.Background(), testDoc("guide.md", content)))

	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "", blocks[0].Section)
	assert.Equal(t, "intro text", blocks[0].Text)
	assert.Equal(t, "Setup", blocks[1].Section)
	assert.Contains(t, blocks[1].Text, "install the thing")
	assert.Equal(t, "Usage", blocks[2].Section)
	for i, b := range blocks {
		assert.Equal(t, i, b.Seq)
	}
}

func TestExtract_PlainTextSingleBlock(t *testing.T) {
	e := New(nil, nil)

	blocks, err := Collect(e.Extract(context.Background(), testDoc("notes.txt", []byte("just some\nplain text"))))

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "just some\nplain text", blocks[0].Text)
	assert.Equal(t, "", blocks[0].Section)
}

func TestExtract_MarkdownHeadingInCodeFence(t *testing.T) {
	content := []byte("# Real\n\ntext\n\n```\n# not a heading\n```\n")
	e := New(nil, nil)

	blocks, err := Collect(e.Extract(context.Background(), testDoc("a.md", content)))

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Real", blocks[0].Section)
	assert.Contains(t, blocks[0].Text, "# not a heading")
}

func TestExtract_HTMLSections(t *testing.T) {
	content := []byte(`<html><head><title>t</title><style>.x{}</style></head>
<body>
<script>var hidden = 1;</script>
<p>preamble</p>
<h1>First</h1>
<p>alpha beta</p>
<h2>Second</h2>
<p>gamma</p>
</body></html>`)
	e := New(nil, nil)

	blocks, err := Collect(e.Extract(context.Background(), testDoc("page.html", content)))

	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "", blocks[0].Section)
	assert.Equal(t, "preamble", blocks[0].Text)
	assert.Equal(t, "First", blocks[1].Section)
	assert.Contains(t, blocks[1].Text, "alpha beta")
	assert.Equal(t, "Second", blocks[2].Section)
	assert.NotContains(t, blocks[1].Text, "hidden")
}

func TestExtract_CSVSingleBlock(t *testing.T) {
	content := []byte("name,age\nalice,30\nbob,25\n")
	e := New(nil, nil)

	blocks, err := Collect(e.Extract(context.Background(), testDoc("people.csv", content)))

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, string(content), blocks[0].Text)
}

func TestExtract_JSONSingleBlock(t *testing.T) {
	content := []byte(`{"key": "value"}`)
	e := New(nil, nil)

	blocks, err := Collect(e.Extract(context.Background(), testDoc("data.json", content)))

	require.NoError(t, err)
	require.Len(t, blocks, 1)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	doc := testDoc("blob.bin", []byte{0x00, 0x01, 0x02, 0xff})
	e := New(nil, nil)

	_, err := Collect(e.Extract(context.Background(), doc))

	require.Error(t, err)
	assert.Equal(t, ierr.CodeUnsupportedFormat, ierr.GetCode(err))
}

func TestExtract_ImageWithoutServiceFails(t *testing.T) {
	doc := testDoc("scan.png", []byte("\x89PNG\r\n\x1a\n"))
	e := New(nil, nil)

	_, err := Collect(e.Extract(context.Background(), doc))

	require.Error(t, err)
	assert.Equal(t, ierr.CodeUnsupportedFormat, ierr.GetCode(err))
}

func TestExtract_ImageReachesRecognitionService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recognizeResponse{Pages: []Page{
			{Number: 1, Text: "scanned words"},
		}})
	}))
	defer server.Close()

	doc := testDoc("scan.tiff", []byte("II*\x00rest of tiff"))
	require.True(t, doc.MediaType.IsImage())
	e := New(NewOCRClient(server.URL, time.Second, fastOCRRetry()), nil)

	blocks, err := Collect(e.Extract(context.Background(), doc))

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "scanned words", blocks[0].Text)
	assert.Equal(t, 1, blocks[0].Page)
}

func TestExtract_CorruptPDF(t *testing.T) {
	doc := testDoc("bad.pdf", []byte("%PDF-1.4 this is not a real pdf"))
	e := New(nil, nil)

	_, err := Collect(e.Extract(context.Background(), doc))

	require.Error(t, err)
	assert.Equal(t, ierr.CodeCorruptDocument, ierr.GetCode(err))
	assert.False(t, ierr.IsRetryable(err))
}

func TestIterator_NonRestartable(t *testing.T) {
	it := fromBlocks([]*document.TextBlock{{Seq: 0, Text: "only"}})

	first, err := it.Next()
	require.NoError(t, err)
	require.NotNil(t, first)

	// Then: the exhausted iterator keeps returning nil
	second, err := it.Next()
	require.NoError(t, err)
	assert.Nil(t, second)
	third, err := it.Next()
	require.NoError(t, err)
	assert.Nil(t, third)
}

func TestEmptyDocumentYieldsNoBlocks(t *testing.T) {
	e := New(nil, nil)

	blocks, err := Collect(e.Extract(context.Background(), testDoc("empty.md", []byte("   \n\n  "))))

	require.NoError(t, err)
	assert.Empty(t, blocks)
}
