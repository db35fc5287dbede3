// Package llm provides clients for the optional external reasoning service.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/raphaelgruber/entity-scanner/internal/config"
	"github.com/raphaelgruber/entity-scanner/internal/metrics"
)

// Reasoner completes a single prompt into narrative text.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// New builds the reasoner selected by cfg. It returns ErrNotConfigured when
// the provider is "none" or its credential is missing; no network call is made.
func New(cfg config.Config, mc *metrics.Collector) (Reasoner, error) {
	switch cfg.LLMProvider {
	case config.ProviderNone, "":
		return nil, ErrNotConfigured

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", ErrNotConfigured)
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel, cfg.LLMTemperature, mc), nil

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is empty", ErrNotConfigured)
		}
		model, err := anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return NewModel(model, cfg.LLMModel, cfg.LLMTemperature, mc), nil

	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return NewModel(model, cfg.LLMModel, cfg.LLMTemperature, mc), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// Model wraps a langchaingo model.
type Model struct {
	llm         llms.Model
	modelName   string
	temperature float64
	metrics     *metrics.Collector
}

var _ Reasoner = (*Model)(nil)

// NewModel wraps an already constructed langchaingo model.
func NewModel(model llms.Model, name string, temperature float64, mc *metrics.Collector) *Model {
	return &Model{llm: model, modelName: name, temperature: temperature, metrics: mc}
}

// Complete generates text for prompt at the configured temperature.
func (m *Model) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, llms.WithTemperature(m.temperature))
	m.metrics.Observe(metrics.OpReasoning, start, err)
	if err != nil {
		return "", fmt.Errorf("generate: %w", wrapFatalError(err))
	}
	return response, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}
