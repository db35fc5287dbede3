package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

const (
	// DefaultOllamaModel is the embedding model that produces 384-dimensional vectors.
	DefaultOllamaModel = "all-minilm:l6-v2"

	// DefaultOllamaDimension is the dimension for all-minilm:l6-v2.
	DefaultOllamaDimension = 384
)

// OllamaClient implements Embedder using a local Ollama server.
type OllamaClient struct {
	client    *api.Client
	model     string
	dimension int
}

var _ Embedder = (*OllamaClient)(nil)

// NewOllamaClient creates a new Ollama embedding client.
// An empty host falls back to the OLLAMA_HOST environment variable.
func NewOllamaClient(host, model string, expectedDimension int) (*OllamaClient, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	if expectedDimension == 0 {
		expectedDimension = DefaultOllamaDimension
	}

	var (
		client *api.Client
		err    error
	)
	if host == "" {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
	} else {
		base, perr := url.Parse(host)
		if perr != nil {
			return nil, fmt.Errorf("parse ollama host %q: %w", host, perr)
		}
		client = api.NewClient(base, http.DefaultClient)
	}

	return &OllamaClient{
		client:    client,
		model:     model,
		dimension: expectedDimension,
	}, nil
}

// Model returns the configured embedding model name.
func (c *OllamaClient) Model() string {
	return c.model
}

// Dimension returns the expected embedding dimension.
func (c *OllamaClient) Dimension() int {
	return c.dimension
}

// Embed returns exactly a dimension-sized vector or an error on mismatch.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embedding := resp.Embeddings[0]
	if len(embedding) != c.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(embedding), c.dimension, c.model)
	}

	return embedding, nil
}
