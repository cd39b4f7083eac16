package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(docID string, n int) []*IndexRecord {
	records := make([]*IndexRecord, n)
	for i := range records {
		records[i] = &IndexRecord{
			ChunkID:    docID + "-" + string(rune('a'+i)),
			DocumentID: docID,
			Path:       "docs/" + docID + ".md",
			Seq:        i,
			Text:       "chunk text number " + string(rune('a'+i)),
		}
	}
	return records
}

func TestTextIndex_UpsertAndCount(t *testing.T) {
	idx, err := NewTextIndex("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(testRecords("doc1", 3)))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestTextIndex_UpsertSameIDsIsOverwrite(t *testing.T) {
	idx, err := NewTextIndex("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(testRecords("doc1", 3)))
	require.NoError(t, idx.Upsert(testRecords("doc1", 3)))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestTextIndex_Delete(t *testing.T) {
	idx, err := NewTextIndex("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(testRecords("doc1", 2)))
	require.NoError(t, idx.Delete([]string{"doc1-a"}))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestTextIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.bleve")

	idx, err := NewTextIndex(path)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(testRecords("doc1", 2)))
	require.NoError(t, idx.Close())

	reopened, err := NewTextIndex(path)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestTextIndex_EmptyUpsert(t *testing.T) {
	idx, err := NewTextIndex("")
	require.NoError(t, err)
	defer idx.Close()

	assert.NoError(t, idx.Upsert(nil))
}

func TestTextIndex_ClosedRejectsWrites(t *testing.T) {
	idx, err := NewTextIndex("")
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Upsert(testRecords("doc1", 1)))
	assert.NoError(t, idx.Close())
}
