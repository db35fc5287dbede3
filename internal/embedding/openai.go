package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultOpenAIModel is the hosted embedding model used when none is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIEmbedder implements Embedder with langchaingo's OpenAI embeddings.
type OpenAIEmbedder struct {
	model     embeddings.Embedder
	modelName string
	dimension int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI-backed embedder. Ollama-style model
// names are replaced with DefaultOpenAIModel.
func NewOpenAIEmbedder(apiKey, model string, dimension int) (*OpenAIEmbedder, error) {
	if model == "" || model == DefaultOllamaModel {
		model = DefaultOpenAIModel
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}

	return &OpenAIEmbedder{model: emb, modelName: model, dimension: dimension}, nil
}

func (e *OpenAIEmbedder) Model() string  { return e.modelName }
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed returns the vector for text. A configured dimension is enforced.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.model.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if e.dimension > 0 && len(vec) != e.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(vec), e.dimension, e.modelName)
	}
	return vec, nil
}
