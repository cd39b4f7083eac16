package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ierr "github.com/docsmith/docsmith/internal/errors"
)

// Config represents the complete docsmith configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Sources    SourcesConfig    `yaml:"sources" json:"sources"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
	Embedding  EmbeddingConfig  `yaml:"embedding" json:"embedding"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Pipeline   PipelineConfig   `yaml:"pipeline" json:"pipeline"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// SourcesConfig configures which files are picked up for ingestion.
type SourcesConfig struct {
	// Include is the list of glob patterns to ingest. Empty means "**/*".
	Include []string `yaml:"include" json:"include"`
	// Exclude patterns are applied after Include.
	Exclude []string `yaml:"exclude" json:"exclude"`
	// MaxFileSizeMB rejects files larger than this before extraction.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
}

// ChunkingConfig configures the sliding token window.
type ChunkingConfig struct {
	// ChunkSize is the window size in tokens.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// Overlap is how many tokens consecutive chunks share.
	// Must be non-negative and strictly less than ChunkSize.
	Overlap int `yaml:"overlap" json:"overlap"`
}

// ExtractionConfig configures the OCR sidecar used for scanned PDFs.
type ExtractionConfig struct {
	// OCREndpoint is the HTTP endpoint of the OCR service.
	// Empty disables the OCR fallback.
	OCREndpoint string        `yaml:"ocr_endpoint" json:"ocr_endpoint"`
	OCRTimeout  time.Duration `yaml:"ocr_timeout" json:"ocr_timeout"`
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`
	Model      string        `yaml:"model" json:"model"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`

	// BatchMaxChunks and BatchMaxTokens bound each request to the service.
	// A batch is flushed before either limit would be exceeded.
	BatchMaxChunks int `yaml:"batch_max_chunks" json:"batch_max_chunks"`
	BatchMaxTokens int `yaml:"batch_max_tokens" json:"batch_max_tokens"`

	// MaxInputTokens is the model's per-text input limit. A single chunk
	// over this limit fails its document rather than being truncated.
	MaxInputTokens int `yaml:"max_input_tokens" json:"max_input_tokens"`

	// RequestsPerSecond and Burst feed the client-side rate limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`

	// CacheSize is the number of entries in the embedding LRU cache.
	// Zero disables caching.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// StorageConfig configures where indexes and blobs live.
type StorageConfig struct {
	// DataDir is the root for all persistent state. The text index, vector
	// index, blob store, and catalog live underneath it.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// PipelineConfig configures the coordinator.
type PipelineConfig struct {
	// Concurrency is the number of documents processed in parallel.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// defaultExcludePatterns are always excluded from discovery.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/.docsmith/**",
	"**/*.tmp",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Sources: SourcesConfig{
			Include:       []string{},
			Exclude:       defaultExcludePatterns,
			MaxFileSizeMB: 50,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 1024,
			Overlap:   128,
		},
		Extraction: ExtractionConfig{
			OCREndpoint: "",
			OCRTimeout:  60 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Endpoint:          "http://localhost:11434",
			Model:             "nomic-embed-text",
			Dimensions:        768,
			Timeout:           30 * time.Second,
			BatchMaxChunks:    16,
			BatchMaxTokens:    8192,
			MaxInputTokens:    8192,
			RequestsPerSecond: 10,
			Burst:             5,
			CacheSize:         4096,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Pipeline: PipelineConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "",
		},
	}
}

// defaultDataDir returns the default persistent state directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docsmith")
	}
	return filepath.Join(home, ".docsmith")
}

// ConfigFileName is the project-level configuration file.
const ConfigFileName = "docsmith.yaml"

// Load loads configuration for a source directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Project config (docsmith.yaml in the source directory)
//  3. Environment variables (DOCSMITH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads configuration from an explicit path.
// Unlike Load, a missing file is an error here.
func LoadFile(path string) (*Config, error) {
	if !fileExists(path) {
		return nil, ierr.New(ierr.CodeConfigNotFound,
			fmt.Sprintf("config file not found: %s", path), nil)
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load docsmith.yaml from dir. Missing file is fine.
func (c *Config) loadFromFile(dir string) error {
	path := filepath.Join(dir, ConfigFileName)
	if !fileExists(path) {
		return nil
	}
	return c.loadYAML(path)
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Sources
	if len(other.Sources.Include) > 0 {
		c.Sources.Include = other.Sources.Include
	}
	if len(other.Sources.Exclude) > 0 {
		// Merge with defaults rather than replace
		c.Sources.Exclude = append(c.Sources.Exclude, other.Sources.Exclude...)
	}
	if other.Sources.MaxFileSizeMB != 0 {
		c.Sources.MaxFileSizeMB = other.Sources.MaxFileSizeMB
	}

	// Chunking. Overlap zero is a valid explicit value but indistinguishable
	// from unset, so a zero-overlap setup must also set chunk_size.
	if other.Chunking.ChunkSize != 0 {
		c.Chunking.ChunkSize = other.Chunking.ChunkSize
		c.Chunking.Overlap = other.Chunking.Overlap
	}

	// Extraction
	if other.Extraction.OCREndpoint != "" {
		c.Extraction.OCREndpoint = other.Extraction.OCREndpoint
	}
	if other.Extraction.OCRTimeout != 0 {
		c.Extraction.OCRTimeout = other.Extraction.OCRTimeout
	}

	// Embedding
	if other.Embedding.Endpoint != "" {
		c.Embedding.Endpoint = other.Embedding.Endpoint
	}
	if other.Embedding.Model != "" {
		c.Embedding.Model = other.Embedding.Model
	}
	if other.Embedding.Dimensions != 0 {
		c.Embedding.Dimensions = other.Embedding.Dimensions
	}
	if other.Embedding.Timeout != 0 {
		c.Embedding.Timeout = other.Embedding.Timeout
	}
	if other.Embedding.BatchMaxChunks != 0 {
		c.Embedding.BatchMaxChunks = other.Embedding.BatchMaxChunks
	}
	if other.Embedding.BatchMaxTokens != 0 {
		c.Embedding.BatchMaxTokens = other.Embedding.BatchMaxTokens
	}
	if other.Embedding.MaxInputTokens != 0 {
		c.Embedding.MaxInputTokens = other.Embedding.MaxInputTokens
	}
	if other.Embedding.RequestsPerSecond != 0 {
		c.Embedding.RequestsPerSecond = other.Embedding.RequestsPerSecond
	}
	if other.Embedding.Burst != 0 {
		c.Embedding.Burst = other.Embedding.Burst
	}
	if other.Embedding.CacheSize != 0 {
		c.Embedding.CacheSize = other.Embedding.CacheSize
	}

	// Storage
	if other.Storage.DataDir != "" {
		c.Storage.DataDir = other.Storage.DataDir
	}

	// Pipeline
	if other.Pipeline.Concurrency != 0 {
		c.Pipeline.Concurrency = other.Pipeline.Concurrency
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
}

// applyEnvOverrides applies DOCSMITH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSMITH_EMBEDDING_ENDPOINT"); v != "" {
		c.Embedding.Endpoint = v
	}
	if v := os.Getenv("DOCSMITH_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("DOCSMITH_OCR_ENDPOINT"); v != "" {
		c.Extraction.OCREndpoint = v
	}
	if v := os.Getenv("DOCSMITH_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("DOCSMITH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCSMITH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.Concurrency = n
		}
	}
	if v := os.Getenv("DOCSMITH_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chunking.ChunkSize = n
		}
	}
	if v := os.Getenv("DOCSMITH_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Chunking.Overlap = n
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("chunk_size must be positive, got %d", c.Chunking.ChunkSize), nil)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("overlap must satisfy 0 <= overlap < chunk_size, got overlap=%d chunk_size=%d",
				c.Chunking.Overlap, c.Chunking.ChunkSize), nil)
	}

	if c.Sources.MaxFileSizeMB <= 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("max_file_size_mb must be positive, got %d", c.Sources.MaxFileSizeMB), nil)
	}

	if c.Embedding.Endpoint == "" {
		return ierr.New(ierr.CodeConfigInvalid, "embedding.endpoint must not be empty", nil)
	}
	if c.Embedding.Model == "" {
		return ierr.New(ierr.CodeConfigInvalid, "embedding.model must not be empty", nil)
	}
	if c.Embedding.Dimensions <= 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions), nil)
	}
	if c.Embedding.BatchMaxChunks <= 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("embedding.batch_max_chunks must be positive, got %d", c.Embedding.BatchMaxChunks), nil)
	}
	if c.Embedding.BatchMaxTokens <= 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("embedding.batch_max_tokens must be positive, got %d", c.Embedding.BatchMaxTokens), nil)
	}
	if c.Embedding.MaxInputTokens < c.Chunking.ChunkSize {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("embedding.max_input_tokens (%d) must be at least chunk_size (%d)",
				c.Embedding.MaxInputTokens, c.Chunking.ChunkSize), nil)
	}
	if c.Embedding.RequestsPerSecond <= 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("embedding.requests_per_second must be positive, got %f", c.Embedding.RequestsPerSecond), nil)
	}
	if c.Embedding.CacheSize < 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("embedding.cache_size must be non-negative, got %d", c.Embedding.CacheSize), nil)
	}

	if c.Pipeline.Concurrency <= 0 {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("pipeline.concurrency must be positive, got %d", c.Pipeline.Concurrency), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return ierr.New(ierr.CodeConfigInvalid,
			fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}

	return nil
}

// MaxFileSizeBytes returns the source size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Sources.MaxFileSizeMB) * 1024 * 1024
}

// TextIndexPath returns the bleve index location under the data directory.
func (c *Config) TextIndexPath() string {
	return filepath.Join(c.Storage.DataDir, "text.bleve")
}

// VectorIndexPath returns the vector index snapshot location.
func (c *Config) VectorIndexPath() string {
	return filepath.Join(c.Storage.DataDir, "vectors.hnsw")
}

// BlobDir returns the blob store location.
func (c *Config) BlobDir() string {
	return filepath.Join(c.Storage.DataDir, "blobs")
}

// CatalogPath returns the document catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Storage.DataDir, "catalog.db")
}

// LockPath returns the coordinator lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Storage.DataDir, "docsmith.lock")
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
