package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func entry(docID, hash string) CatalogEntry {
	return CatalogEntry{
		DocumentID:  docID,
		Path:        "docs/" + docID + ".md",
		ContentHash: hash,
		ChunkCount:  3,
		TokenCount:  2500,
		IndexedAt:   time.Now(),
	}
}

func TestCatalog_UpsertAndContentHash(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, entry("doc1", "hash-v1")))

	hash, err := c.ContentHash(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "hash-v1", hash)
}

func TestCatalog_ContentHashMissingDocument(t *testing.T) {
	c := openTestCatalog(t)

	hash, err := c.ContentHash(context.Background(), "never-seen")

	require.NoError(t, err)
	assert.Equal(t, "", hash)
}

func TestCatalog_UpsertReplacesRow(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, entry("doc1", "hash-v1")))
	require.NoError(t, c.Upsert(ctx, entry("doc1", "hash-v2")))

	hash, err := c.ContentHash(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "hash-v2", hash)

	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCatalog_Get(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	e := entry("doc1", "h")
	require.NoError(t, c.Upsert(ctx, e))

	got, err := c.Get(ctx, "doc1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.Path, got.Path)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, 2500, got.TokenCount)
	assert.False(t, got.IndexedAt.IsZero())

	missing, err := c.Get(ctx, "doc9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCatalog_AllOrderedByPath(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, entry("zzz", "h1")))
	require.NoError(t, c.Upsert(ctx, entry("aaa", "h2")))

	entries, err := c.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "docs/aaa.md", entries[0].Path)
	assert.Equal(t, "docs/zzz.md", entries[1].Path)
}

func TestCatalog_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	c, err := OpenCatalog(path)
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, entry("doc1", "h")))
	require.NoError(t, c.Close())

	reopened, err := OpenCatalog(path)
	require.NoError(t, err)
	defer reopened.Close()

	hash, err := reopened.ContentHash(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "h", hash)
}
