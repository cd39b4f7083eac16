package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsmith/docsmith/internal/chunk"
	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/internal/embed"
	ierr "github.com/docsmith/docsmith/internal/errors"
	"github.com/docsmith/docsmith/internal/extract"
	"github.com/docsmith/docsmith/internal/logging"
	"github.com/docsmith/docsmith/internal/pipeline"
	"github.com/docsmith/docsmith/internal/store"
	"github.com/docsmith/docsmith/internal/ui"
)

func newIngestCmd(flags *rootFlags) *cobra.Command {
	var (
		force       bool
		verbose     bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Ingest a directory of documents into the index",
		Long: `Ingest scans a directory for documents, extracts their text,
chunks and embeds it, and writes the results to the local indexes.

Documents whose content is unchanged since the last run are skipped.
Use --force to re-process everything. A document that fails never
stops the others; failures are listed in the summary and the command
exits non-zero when any document failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags, dir)
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Pipeline.Concurrency = concurrency
			}

			logger, cleanup, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := runIngestion(ctx, cfg, logger, dir, force)
			if run != nil {
				uiCfg := ui.NewConfig(cmd.OutOrStdout(), ui.WithNoColor(flags.noColor))
				if renderErr := ui.NewSummaryRenderer(uiCfg, verbose).Render(run); renderErr != nil {
					return renderErr
				}
			}
			if err != nil {
				return err
			}
			if run.Failed() > 0 {
				return fmt.Errorf("%d of %d documents failed", run.Failed(), run.Total())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-process documents even when unchanged")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every document in the summary")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Documents processed in parallel (default from config)")

	return cmd
}

// runIngestion wires the pipeline stages from config and executes one run.
func runIngestion(ctx context.Context, cfg *config.Config, logger *slog.Logger, dir string, force bool) (*pipeline.Run, error) {
	indexer, err := store.Open(store.Options{
		TextIndexPath: cfg.TextIndexPath(),
		VectorPath:    cfg.VectorIndexPath(),
		BlobDir:       cfg.BlobDir(),
		CatalogPath:   cfg.CatalogPath(),
		Dimensions:    cfg.Embedding.Dimensions,
	}, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := indexer.Close(); closeErr != nil {
			logger.Error("closing indexes", slog.String("error", closeErr.Error()))
		}
	}()

	var embedder embed.Embedder = embed.NewClient(embed.ClientConfig{
		Endpoint:          cfg.Embedding.Endpoint,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		Timeout:           cfg.Embedding.Timeout,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Burst:             cfg.Embedding.Burst,
		Retry:             ierr.DefaultRetryConfig(),
	})
	if cfg.Embedding.CacheSize > 0 {
		embedder = embed.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}
	defer embedder.Close() //nolint:errcheck

	var ocr *extract.OCRClient
	if cfg.Extraction.OCREndpoint != "" {
		ocr = extract.NewOCRClient(cfg.Extraction.OCREndpoint, cfg.Extraction.OCRTimeout, ierr.DefaultRetryConfig())
	}

	coord := pipeline.NewCoordinator(
		cfg,
		extract.New(ocr, logger),
		chunk.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
		embed.NewBatcher(cfg.Embedding.BatchMaxChunks, cfg.Embedding.BatchMaxTokens, cfg.Embedding.MaxInputTokens),
		embedder,
		indexer,
		logger,
	)

	return coord.Run(ctx, dir, force)
}

// setupLogging routes structured logs to a rotated file under the data
// directory, keeping stdout free for the summary.
func setupLogging(cfg *config.Config) (*slog.Logger, func(), error) {
	logCfg := logging.DefaultConfig(cfg.Storage.DataDir)
	logCfg.Level = cfg.Logging.Level
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}
	return logging.Setup(logCfg)
}
