// Package pipeline coordinates a full ingestion pass: discover source
// files, then extract, chunk, embed, and index each document with bounded
// parallelism and per-document failure isolation.
package pipeline

import (
	"sort"
	"sync"
	"time"
)

// State tracks where a document is in its processing lifecycle.
type State string

const (
	StateDiscovered State = "discovered"
	StateExtracting State = "extracting"
	StateChunking   State = "chunking"
	StateEmbedding  State = "embedding"
	StateIndexing   State = "indexing"
	StateDone       State = "done"
	StateFailed     State = "failed"
	StateSkipped    State = "skipped"
)

// DocumentResult is the final outcome for one document in a run.
type DocumentResult struct {
	Path       string
	DocumentID string
	State      State
	ChunkCount int
	TokenCount int
	Err        error
}

// Run aggregates the outcome of one ingestion pass. It is written by the
// worker pool and read for the final summary; all methods are safe for
// concurrent use.
type Run struct {
	mu      sync.Mutex
	results map[string]*DocumentResult
	started time.Time

	// TokensEmbedded counts word tokens actually sent to the embedding
	// service, excluding cache hits.
	TokensEmbedded int64
}

// NewRun creates an empty run.
func NewRun() *Run {
	return &Run{
		results: make(map[string]*DocumentResult),
		started: time.Now(),
	}
}

// Start registers a discovered document.
func (r *Run) Start(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[path] = &DocumentResult{Path: path, State: StateDiscovered}
}

// SetState advances a document's lifecycle state.
func (r *Run) SetState(path string, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[path]; ok {
		res.State = state
	}
}

// Complete marks a document successfully indexed.
func (r *Run) Complete(path, docID string, chunkCount, tokenCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[path] = &DocumentResult{
		Path:       path,
		DocumentID: docID,
		State:      StateDone,
		ChunkCount: chunkCount,
		TokenCount: tokenCount,
	}
}

// Skip marks a document skipped because its content is unchanged.
func (r *Run) Skip(path, docID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[path] = &DocumentResult{Path: path, DocumentID: docID, State: StateSkipped}
}

// Fail records a document failure. The run itself continues.
func (r *Run) Fail(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[path] = &DocumentResult{Path: path, State: StateFailed, Err: err}
}

// Results returns all document results ordered by path.
func (r *Run) Results() []*DocumentResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*DocumentResult, 0, len(r.results))
	for _, res := range r.results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *Run) countState(state State) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if res.State == state {
			n++
		}
	}
	return n
}

// Done returns the number of successfully indexed documents.
func (r *Run) Done() int { return r.countState(StateDone) }

// Skipped returns the number of unchanged documents.
func (r *Run) Skipped() int { return r.countState(StateSkipped) }

// Failed returns the number of failed documents.
func (r *Run) Failed() int { return r.countState(StateFailed) }

// Total returns the number of documents in the run.
func (r *Run) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Chunks returns the total chunks indexed across all documents.
func (r *Run) Chunks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		n += res.ChunkCount
	}
	return n
}

// Elapsed returns time since the run started.
func (r *Run) Elapsed() time.Duration {
	return time.Since(r.started)
}
