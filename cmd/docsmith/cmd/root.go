// Package cmd provides the CLI commands for docsmith.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docsmith/docsmith/internal/config"
	"github.com/docsmith/docsmith/pkg/version"
)

// rootFlags are shared by all subcommands.
type rootFlags struct {
	configPath string
	dataDir    string
	logLevel   string
	noColor    bool
}

// NewRootCmd creates the root command for the docsmith CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "docsmith",
		Short: "Local document ingestion for hybrid search",
		Long: `Docsmith ingests a directory of documents (markdown, HTML, PDF,
plain text, CSV, JSON) into a local search index: text is extracted,
split into overlapping token windows, embedded via a local embedding
service, and written to full-text and vector indexes.

Run 'docsmith ingest <dir>' to build or update an index, and
'docsmith status' to inspect it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("docsmith version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file (default: docsmith.yaml in the source directory)")
	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Override the data directory")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Minimum log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newIngestCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig resolves configuration for a source directory, honoring the
// --config, --data-dir, and --log-level overrides.
func loadConfig(flags *rootFlags, sourceDir string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load(sourceDir)
	}
	if err != nil {
		return nil, err
	}

	if flags.dataDir != "" {
		cfg.Storage.DataDir = flags.dataDir
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	return cfg, nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
