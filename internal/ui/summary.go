package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/docsmith/docsmith/internal/pipeline"
)

// SummaryRenderer prints the outcome of an ingestion run.
type SummaryRenderer struct {
	out     io.Writer
	styles  Styles
	verbose bool
}

// NewSummaryRenderer creates a summary renderer. When verbose is true
// every document gets a line, not just failures.
func NewSummaryRenderer(cfg Config, verbose bool) *SummaryRenderer {
	return &SummaryRenderer{
		out:     cfg.Output,
		styles:  GetStyles(cfg.NoColor),
		verbose: verbose,
	}
}

// Render writes the run summary.
func (r *SummaryRenderer) Render(run *pipeline.Run) error {
	elapsed := run.Elapsed().Round(100 * time.Millisecond)

	headline := fmt.Sprintf("Ingested %d of %d documents in %s",
		run.Done(), run.Total(), elapsed)
	if _, err := fmt.Fprintf(r.out, "%s\n", r.styles.Header.Render(headline)); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("indexed:"), run.Done())
	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("skipped:"), run.Skipped())
	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("failed: "), run.Failed())
	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("chunks: "), run.Chunks())
	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("tokens: "), run.TokensEmbedded)

	if r.verbose {
		fmt.Fprintln(r.out)
		for _, res := range run.Results() {
			switch res.State {
			case pipeline.StateDone:
				fmt.Fprintf(r.out, "  %s %s (%d chunks)\n",
					r.styles.Success.Render("ok  "), res.Path, res.ChunkCount)
			case pipeline.StateSkipped:
				fmt.Fprintf(r.out, "  %s %s\n",
					r.styles.Warning.Render("skip"), res.Path)
			}
		}
	}

	if run.Failed() > 0 {
		fmt.Fprintf(r.out, "\n%s\n", r.styles.Error.Render("Failures:"))
		for _, res := range run.Results() {
			if res.State != pipeline.StateFailed {
				continue
			}
			fmt.Fprintf(r.out, "  %s  %v\n", res.Path, res.Err)
		}
	}

	return nil
}
