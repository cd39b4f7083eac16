package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/docsmith/docsmith/internal/chunk"
	ierr "github.com/docsmith/docsmith/internal/errors"
)

// connection pool sizing for the embedding service client.
const clientPoolSize = 8

// ClientConfig configures the embedding service client.
type ClientConfig struct {
	// Endpoint is the service base URL.
	Endpoint string

	// Model is the embedding model identifier.
	Model string

	// Dimensions is the expected vector dimension. Every returned vector
	// is validated against it.
	Dimensions int

	// Timeout bounds each request.
	Timeout time.Duration

	// RequestsPerSecond and Burst feed the client-side rate limiter.
	RequestsPerSecond float64
	Burst             int

	// Retry is the backoff policy for transient service failures.
	Retry ierr.RetryConfig
}

// Client is an HTTP client for an ollama-style embedding API.
type Client struct {
	cfg       ClientConfig
	client    *http.Client
	transport *http.Transport
	limiter   *rate.Limiter

	// tokensSent counts word tokens actually submitted to the service.
	// Cache hits never reach the client, so this excludes them.
	tokensSent atomic.Int64
}

// NewClient creates an embedding service client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	// IdleConnTimeout is short because ingestion runs are short-lived;
	// connections should drop quickly after the run ends.
	transport := &http.Transport{
		MaxIdleConns:        clientPoolSize,
		MaxIdleConnsPerHost: clientPoolSize,
		MaxConnsPerHost:     clientPoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}

	return &Client{
		cfg:       cfg,
		client:    &http.Client{Transport: transport},
		transport: transport,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// embedRequest is the /api/embed request body.
type embedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string for batch
}

// embedResponse is the /api/embed response body.
type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed generates the embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch submits texts to the service, waiting on the rate limiter
// before each attempt. Transient failures are retried with backoff; a
// dimension mismatch aborts immediately.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vecs, err := ierr.RetryWithResult(ctx, c.cfg.Retry, func() ([][]float32, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.doEmbed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}

	for _, t := range texts {
		c.tokensSent.Add(int64(chunk.CountTokens(t)))
	}
	return vecs, nil
}

func (c *Client) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var input any
	if len(texts) == 1 {
		input = texts[0]
	} else {
		input = texts
	}

	body, err := json.Marshal(embedRequest{Model: c.cfg.Model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		c.cfg.Endpoint+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ierr.EmbeddingService("embedding request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, ierr.EmbeddingService(
			fmt.Sprintf("embedding service returned %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var apiResult embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
		return nil, ierr.EmbeddingService("failed to decode embedding response", err)
	}

	if len(apiResult.Embeddings) != len(texts) {
		return nil, ierr.EmbeddingService(
			fmt.Sprintf("embedding count mismatch: sent %d texts, got %d vectors",
				len(texts), len(apiResult.Embeddings)), nil)
	}

	embeddings := make([][]float32, len(apiResult.Embeddings))
	for i, emb := range apiResult.Embeddings {
		if len(emb) != c.cfg.Dimensions {
			return nil, ierr.DimensionMismatch(c.cfg.Dimensions, len(emb))
		}
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		embeddings[i] = normalizeVector(vec)
	}

	return embeddings, nil
}

// Dimensions returns the configured embedding dimension.
func (c *Client) Dimensions() int {
	return c.cfg.Dimensions
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return c.cfg.Model
}

// TokensSent returns the number of word tokens submitted to the service.
func (c *Client) TokensSent() int64 {
	return c.tokensSent.Load()
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
