package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedService answers /api/embed like an ollama instance, returning
// a fixed-dimension vector per input.
func fakeEmbedService(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input any `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		count := 1
		if texts, ok := req.Input.([]any); ok {
			count = len(texts)
		}

		embeddings := make([][]float64, count)
		for i := range embeddings {
			vec := make([]float64, dims)
			vec[0] = 1
			embeddings[i] = vec
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeProjectConfig drops a docsmith.yaml pointing at the fake service
// and a private data dir.
func writeProjectConfig(t *testing.T, dir, endpoint, dataDir string) {
	t.Helper()
	cfg := fmt.Sprintf(`sources:
  include:
    - "**/*.md"
embedding:
  endpoint: %s
  dimensions: 4
storage:
  data_dir: %s
`, endpoint, dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docsmith.yaml"), []byte(cfg), 0o644))
}

func TestIngestCmd_EndToEnd(t *testing.T) {
	// Given a source directory and a fake embedding service
	srv := fakeEmbedService(t, 4)
	source := t.TempDir()
	dataDir := t.TempDir()
	writeProjectConfig(t, source, srv.URL, dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(source, "guide.md"),
		[]byte("# Guide\n\nSome words about the system and how to use it.\n"), 0o644))

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"ingest", source})

	// When ingesting
	err := cmd.Execute()

	// Then the summary reports one indexed document
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Ingested 1 of 1 documents")

	// And structured logs landed under the data dir, not on stdout
	assert.FileExists(t, filepath.Join(dataDir, "logs", "docsmith.log"))
	assert.NotContains(t, output, `"level"`)

	// And a second run skips it
	cmd = NewRootCmd()
	buf.Reset()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"ingest", source})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Ingested 0 of 1 documents")
}

func TestIngestCmd_FailuresExitNonZero(t *testing.T) {
	// Given a source tree whose only document is corrupt
	srv := fakeEmbedService(t, 4)
	source := t.TempDir()
	dataDir := t.TempDir()
	writeProjectConfig(t, source, srv.URL, dataDir)

	cfgPath := filepath.Join(source, "docsmith.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte(`"**/*.md"`), []byte(`"**/*.pdf"`), 1)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(source, "broken.pdf"),
		[]byte("%PDF-1.4 garbage"), 0o644))

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"ingest", source})

	// When ingesting
	err = cmd.Execute()

	// Then the command fails and the summary names the document
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 documents failed")
	assert.Contains(t, buf.String(), "broken.pdf")
}

func TestStatusCmd_JSONAfterIngest(t *testing.T) {
	// Given an ingested source directory
	srv := fakeEmbedService(t, 4)
	source := t.TempDir()
	dataDir := t.TempDir()
	writeProjectConfig(t, source, srv.URL, dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.md"),
		[]byte("# A\n\nalpha beta gamma delta.\n"), 0o644))

	ingest := NewRootCmd()
	ingest.SetOut(&bytes.Buffer{})
	ingest.SetErr(&bytes.Buffer{})
	ingest.SetArgs([]string{"ingest", source})
	require.NoError(t, ingest.Execute())

	// When asking for JSON status
	status := NewRootCmd()
	buf := &bytes.Buffer{}
	status.SetOut(buf)
	status.SetErr(buf)
	status.SetArgs([]string{"status", source, "--json"})
	require.NoError(t, status.Execute())

	// Then the report counts the ingested document
	var report struct {
		Documents int `json:"documents"`
		Chunks    int `json:"chunks"`
		Entries   []struct {
			Path          string `json:"path"`
			SourceMissing bool   `json:"source_missing"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 1, report.Documents)
	assert.Positive(t, report.Chunks)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "a.md", report.Entries[0].Path)
	assert.False(t, report.Entries[0].SourceMissing)
}

func TestConfigShowCmd_PrintsEffectiveConfig(t *testing.T) {
	source := t.TempDir()

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"config", "show", source})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "chunk_size: 1024")
	assert.Contains(t, output, "nomic-embed-text")
}

func TestConfigInitCmd_WritesDefaultFile(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", dir})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(dir, "docsmith.yaml"))

	// A second init refuses to overwrite
	again := NewRootCmd()
	again.SetOut(&bytes.Buffer{})
	again.SetErr(&bytes.Buffer{})
	again.SetArgs([]string{"config", "init", dir})
	require.Error(t, again.Execute())
}
