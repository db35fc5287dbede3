package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/raphaelgruber/entity-scanner/internal/metrics"
)

// OpenAI calls the chat completions API directly with openai-go.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	metrics     *metrics.Collector
}

var _ Reasoner = (*OpenAI)(nil)

// NewOpenAI creates a chat completion client. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string, temperature float64, mc *metrics.Collector, opts ...option.RequestOption) *OpenAI {
	options := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	options = append(options, opts...)

	return &OpenAI{
		client:      openai.NewClient(options...),
		model:       model,
		temperature: temperature,
		metrics:     mc,
	}
}

// Complete sends prompt as a single user message.
func (c *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(c.temperature),
	})
	c.metrics.Observe(metrics.OpReasoning, start, err)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", wrapFatalError(err))
	}
	c.metrics.RecordTokens(metrics.OpReasoning, response.Usage.PromptTokens, response.Usage.CompletionTokens)

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no response choices")
	}
	return response.Choices[0].Message.Content, nil
}

// Model returns the chat model name.
func (c *OpenAI) Model() string {
	return c.model
}
