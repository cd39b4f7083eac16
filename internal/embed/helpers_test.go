package embed

import (
	"context"
	"fmt"
	"sync"
)

// mockEmbedder records calls and returns deterministic vectors.
type mockEmbedder struct {
	mu      sync.Mutex
	calls   [][]string
	dims    int
	failErr error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return nil, m.failErr
	}

	m.calls = append(m.calls, texts)
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.dims)
		// Deterministic per text, so cache assertions can compare vectors
		vec[0] = float32(len(text))
		vecs[i] = vec
	}
	return vecs, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-model" }
func (m *mockEmbedder) Close() error      { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEmbedder) textsSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, call := range m.calls {
		n += len(call)
	}
	return n
}

var _ Embedder = (*mockEmbedder)(nil)
var _ Embedder = (*Client)(nil)
var _ Embedder = (*CachedEmbedder)(nil)

// errMock is a plain failure for propagation tests.
var errMock = fmt.Errorf("mock embedder failure")
