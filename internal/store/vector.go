package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	ierr "github.com/docsmith/docsmith/internal/errors"
)

// VectorStore holds chunk embeddings in an in-memory HNSW graph with a
// gob snapshot on disk. Chunk IDs are strings; the graph keys on uint64,
// so the store maintains the mapping.
type VectorStore struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	dims  int

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// vectorMetadata persists the ID mapping next to the graph snapshot.
type vectorMetadata struct {
	IDMap   map[string]uint64
	NextKey uint64
	Dims    int
}

// NewVectorStore creates an empty vector store for the given dimension.
func NewVectorStore(dims int) *VectorStore {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance

	return &VectorStore{
		graph:  graph,
		dims:   dims,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// OpenVectorStore loads a store from a snapshot, or returns an empty one
// when no snapshot exists yet.
func OpenVectorStore(path string, dims int) (*VectorStore, error) {
	s := NewVectorStore(dims)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert adds vectors keyed by chunk ID. Existing IDs are remapped to a
// fresh graph node; the old node is orphaned rather than deleted because
// removing nodes destabilizes the underlying graph.
func (s *VectorStore) Upsert(ids []string, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ierr.IndexWrite("vector store is closed", nil)
	}

	for _, v := range vectors {
		if len(v) != s.dims {
			return ierr.DimensionMismatch(s.dims, len(v))
		}
	}

	for i, id := range ids {
		if existingKey, exists := s.idMap[id]; exists {
			delete(s.keyMap, existingKey)
			delete(s.idMap, id)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[id] = key
		s.keyMap[key] = id
	}

	return nil
}

// Delete removes chunk IDs from the store. The graph nodes are orphaned
// the same way Upsert orphans replaced nodes; unknown IDs are ignored.
func (s *VectorStore) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ierr.IndexWrite("vector store is closed", nil)
	}

	for _, id := range ids {
		if key, ok := s.idMap[id]; ok {
			delete(s.keyMap, key)
			delete(s.idMap, id)
		}
	}
	return nil
}

// Contains reports whether a chunk ID is present.
func (s *VectorStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.idMap[id]
	return ok
}

// Count returns the number of live (non-orphaned) vectors.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

// Dimensions returns the configured vector dimension.
func (s *VectorStore) Dimensions() int {
	return s.dims
}

// Save writes the graph snapshot and ID mapping atomically via rename.
func (s *VectorStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ierr.IndexWrite("vector store is closed", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ierr.IndexWrite("failed to create vector store directory", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return ierr.IndexWrite("failed to create vector snapshot", err)
	}

	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return ierr.IndexWrite("failed to export vector graph", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return ierr.IndexWrite("failed to close vector snapshot", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return ierr.IndexWrite("failed to finalize vector snapshot", err)
	}

	if err := s.saveMetadata(path + ".meta"); err != nil {
		return err
	}
	return nil
}

func (s *VectorStore) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return ierr.IndexWrite("failed to create vector metadata", err)
	}

	meta := vectorMetadata{IDMap: s.idMap, NextKey: s.nextKey, Dims: s.dims}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return ierr.IndexWrite("failed to encode vector metadata", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return ierr.IndexWrite("failed to close vector metadata", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return ierr.IndexWrite("failed to finalize vector metadata", err)
	}
	return nil
}

// Load restores the graph and ID mapping from a snapshot.
func (s *VectorStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := s.loadMetadata(path + ".meta"); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open vector snapshot: %w", err)
	}
	defer file.Close()

	// Import requires an io.ByteReader
	if err := s.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("failed to import vector graph: %w", err)
	}
	return nil
}

func (s *VectorStore) loadMetadata(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open vector metadata: %w", err)
	}
	defer file.Close()

	var meta vectorMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return fmt.Errorf("failed to decode vector metadata: %w", err)
	}

	s.idMap = meta.IDMap
	s.nextKey = meta.NextKey
	s.dims = meta.Dims
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}
	return nil
}

// Close releases the in-memory graph.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}
