package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/docsmith/docsmith/internal/chunk"
	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/internal/document"
	"github.com/docsmith/docsmith/internal/embed"
	ierr "github.com/docsmith/docsmith/internal/errors"
	"github.com/docsmith/docsmith/internal/extract"
	"github.com/docsmith/docsmith/internal/store"
)

// tokenReporter is implemented by embedders that track how many tokens
// were actually sent over the wire.
type tokenReporter interface {
	TokensSent() int64
}

// Coordinator runs the ingestion stages over a set of discovered
// documents with bounded parallelism. One document failing never stops
// the others; failures are recorded per document on the Run.
type Coordinator struct {
	cfg       *config.Config
	extractor *extract.Extractor
	chunker   *chunk.Chunker
	batcher   *embed.Batcher
	embedder  embed.Embedder
	indexer   *store.Indexer
	logger    *slog.Logger
}

// NewCoordinator wires the pipeline stages together.
func NewCoordinator(
	cfg *config.Config,
	extractor *extract.Extractor,
	chunker *chunk.Chunker,
	batcher *embed.Batcher,
	embedder embed.Embedder,
	indexer *store.Indexer,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cfg:       cfg,
		extractor: extractor,
		chunker:   chunker,
		batcher:   batcher,
		embedder:  embedder,
		indexer:   indexer,
		logger:    logger,
	}
}

// Run ingests every matching file under root. When force is false,
// documents whose content hash matches the catalog entry are skipped.
// The returned Run always reflects every discovered document, including
// when ctx is cancelled mid-run; the error is non-nil only for run-level
// failures (lock held, discovery failure, cancellation).
func (c *Coordinator) Run(ctx context.Context, root string, force bool) (*Run, error) {
	lock := NewRunLock(c.cfg.LockPath())
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer lock.Release() //nolint:errcheck

	paths, err := Discover(root, c.cfg.Sources.Include, c.cfg.Sources.Exclude)
	if err != nil {
		return nil, err
	}

	run := NewRun()
	for _, p := range paths {
		run.Start(p)
	}

	c.logger.Info("ingestion started",
		slog.String("root", root),
		slog.Int("documents", len(paths)),
		slog.Bool("force", force),
		slog.Int("concurrency", c.cfg.Pipeline.Concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Pipeline.Concurrency)

	for _, p := range paths {
		if gctx.Err() != nil {
			break
		}
		path := p
		g.Go(func() error {
			c.process(gctx, run, root, path, force)
			return nil
		})
	}

	_ = g.Wait()

	if tr, ok := c.embedder.(tokenReporter); ok {
		run.TokensEmbedded = tr.TokensSent()
	}

	c.logger.Info("ingestion finished",
		slog.Int("done", run.Done()),
		slog.Int("skipped", run.Skipped()),
		slog.Int("failed", run.Failed()),
		slog.Int("chunks", run.Chunks()),
		slog.Int64("tokens_embedded", run.TokensEmbedded),
		slog.Duration("elapsed", run.Elapsed()))

	return run, ctx.Err()
}

// process runs one document through all stages, recording the outcome
// on the run. It never returns an error so a bad document cannot cancel
// the worker group.
func (c *Coordinator) process(ctx context.Context, run *Run, root, path string, force bool) {
	if ctx.Err() != nil {
		run.Fail(path, ctx.Err())
		return
	}

	log := c.logger.With(slog.String("path", path))

	doc, err := document.Read(root, path, c.cfg.MaxFileSizeBytes())
	if err != nil {
		c.fail(run, log, path, err)
		return
	}
	log = log.With(slog.String("doc_id", doc.ID))

	if !force {
		hash, err := c.indexer.Catalog().ContentHash(ctx, doc.ID)
		if err != nil {
			c.fail(run, log, path, err)
			return
		}
		if hash != "" && hash == doc.ContentHash {
			run.Skip(path, doc.ID)
			log.Debug("document unchanged, skipping")
			return
		}
	}

	run.SetState(path, StateExtracting)
	blocks, err := extract.Collect(c.extractor.Extract(ctx, doc))
	if err != nil {
		c.fail(run, log, path, err)
		return
	}

	run.SetState(path, StateChunking)
	chunks := c.chunker.Split(doc.ID, blocks)

	run.SetState(path, StateEmbedding)
	vectors, err := c.batcher.EmbedChunks(ctx, c.embedder, chunks)
	if err != nil {
		c.fail(run, log, path, err)
		return
	}

	run.SetState(path, StateIndexing)
	if err := c.indexer.IndexDocument(ctx, doc, chunks, vectors); err != nil {
		c.fail(run, log, path, err)
		return
	}

	tokenCount := 0
	for _, ch := range chunks {
		tokenCount += ch.TokenCount
	}
	run.Complete(path, doc.ID, len(chunks), tokenCount)
	log.Info("document indexed", slog.Int("chunks", len(chunks)))
}

func (c *Coordinator) fail(run *Run, log *slog.Logger, path string, err error) {
	run.Fail(path, err)
	log.Error("document failed",
		slog.String("code", ierr.GetCode(err)),
		slog.String("error", err.Error()))
}
