package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// DocumentStatus is one catalog row enriched with source drift info.
type DocumentStatus struct {
	Path       string    `json:"path"`
	DocumentID string    `json:"document_id"`
	Chunks     int       `json:"chunks"`
	Tokens     int       `json:"tokens"`
	IndexedAt  time.Time `json:"indexed_at"`
	// SourceMissing is true when the catalog has the document but the
	// file no longer exists on disk.
	SourceMissing bool `json:"source_missing,omitempty"`
}

// StatusInfo contains index health information.
type StatusInfo struct {
	DataDir        string           `json:"data_dir"`
	Documents      int              `json:"documents"`
	Chunks         int              `json:"chunks"`
	Vectors        int              `json:"vectors"`
	EmbeddingModel string           `json:"embedding_model"`
	Dimensions     int              `json:"dimensions"`
	Entries        []DocumentStatus `json:"entries,omitempty"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(cfg Config) *StatusRenderer {
	return &StatusRenderer{
		out:    cfg.Output,
		styles: GetStyles(cfg.NoColor),
	}
}

// Render displays status info to the terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	if _, err := fmt.Fprintf(r.out, "%s\n\n",
		r.styles.Header.Render("Index status: "+info.DataDir)); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("documents:"), info.Documents)
	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("chunks:   "), info.Chunks)
	fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("vectors:  "), info.Vectors)
	fmt.Fprintf(r.out, "  %s %s (%d dims)\n",
		r.styles.Label.Render("embedding:"), info.EmbeddingModel, info.Dimensions)

	if len(info.Entries) > 0 {
		fmt.Fprintln(r.out)
		for _, e := range info.Entries {
			line := fmt.Sprintf("  %s  %d chunks, indexed %s",
				e.Path, e.Chunks, e.IndexedAt.Local().Format("2006-01-02 15:04"))
			if e.SourceMissing {
				line += "  " + r.styles.Warning.Render("(source missing)")
			}
			fmt.Fprintln(r.out, line)
		}
	}

	return nil
}

// RenderJSON writes status info as indented JSON for scripting.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
