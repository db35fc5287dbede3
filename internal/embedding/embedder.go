// Package embedding turns entity text into fixed-length vectors.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/entity-scanner/internal/metrics"
)

// Embedder is a deterministic text-to-vector encoder.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// ProviderType identifies the embedding provider.
type ProviderType string

const (
	// ProviderHash runs entirely in-process with no model download.
	ProviderHash ProviderType = "hash"

	// ProviderOllama uses a local Ollama server.
	ProviderOllama ProviderType = "ollama"

	// ProviderOpenAI uses the OpenAI embeddings API through langchaingo.
	ProviderOpenAI ProviderType = "openai"
)

// Config holds configuration for creating an Embedder.
type Config struct {
	Provider ProviderType

	// Model is the embedding model name (provider-specific).
	// Ollama: "all-minilm:l6-v2" (384-dim). OpenAI: "text-embedding-3-small".
	Model string

	// Dimension is the required output dimension. 0 uses the provider default.
	Dimension int

	OllamaHost   string
	OpenAIAPIKey string
}

// New creates an Embedder based on the provided configuration.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderHash, "":
		return NewHashEmbedder(cfg.Dimension), nil

	case ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.Model, cfg.Dimension)

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires OPENAI_API_KEY")
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Model, cfg.Dimension)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// instrumented records an embedding timing for every call.
type instrumented struct {
	Embedder
	metrics *metrics.Collector
}

// WithMetrics wraps e so every Embed call is timed under metrics.OpEmbedding.
func WithMetrics(e Embedder, mc *metrics.Collector) Embedder {
	if mc == nil {
		return e
	}
	return &instrumented{Embedder: e, metrics: mc}
}

func (i *instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := i.Embedder.Embed(ctx, text)
	i.metrics.Observe(metrics.OpEmbedding, start, err)
	return vec, err
}
