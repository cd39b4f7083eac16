package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docsmith/docsmith/internal/store"
	"github.com/docsmith/docsmith/internal/ui"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "Show index contents and health",
		Long: `Status lists what the index currently holds: per-document chunk
counts, totals, and drift between the catalog and the source
directory (documents whose source file has since been deleted).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			logger, cleanup, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			indexer, err := store.Open(store.Options{
				TextIndexPath: cfg.TextIndexPath(),
				VectorPath:    cfg.VectorIndexPath(),
				BlobDir:       cfg.BlobDir(),
				CatalogPath:   cfg.CatalogPath(),
				Dimensions:    cfg.Embedding.Dimensions,
			}, logger)
			if err != nil {
				return err
			}
			defer indexer.Close() //nolint:errcheck

			entries, err := indexer.Catalog().All(cmd.Context())
			if err != nil {
				return err
			}

			info := ui.StatusInfo{
				DataDir:        cfg.Storage.DataDir,
				Documents:      len(entries),
				Vectors:        indexer.Vectors().Count(),
				EmbeddingModel: cfg.Embedding.Model,
				Dimensions:     cfg.Embedding.Dimensions,
			}
			for _, e := range entries {
				info.Chunks += e.ChunkCount
				_, statErr := os.Stat(filepath.Join(dir, filepath.FromSlash(e.Path)))
				info.Entries = append(info.Entries, ui.DocumentStatus{
					Path:          e.Path,
					DocumentID:    e.DocumentID,
					Chunks:        e.ChunkCount,
					Tokens:        e.TokenCount,
					IndexedAt:     e.IndexedAt,
					SourceMissing: os.IsNotExist(statErr),
				})
			}

			uiCfg := ui.NewConfig(cmd.OutOrStdout(), ui.WithNoColor(flags.noColor))
			renderer := ui.NewStatusRenderer(uiCfg)
			if jsonOutput {
				return renderer.RenderJSON(info)
			}
			return renderer.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}
