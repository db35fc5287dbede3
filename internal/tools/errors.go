package tools

import (
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/entity-scanner/internal/llm"
	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/risk"
	"github.com/raphaelgruber/entity-scanner/internal/service"
)

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so the client can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult renders v as indented JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", err.Error())
	}
	return TextResult(string(b))
}

// ServiceError converts a service error into a tool error with a hint.
func ServiceError(err error) *mcp.CallToolResult {
	var fanout *service.FanoutError

	switch {
	case errors.Is(err, models.ErrNotFound):
		return ErrorResult("Entity not found", "Use list_entities to find valid ids")
	case errors.Is(err, models.ErrInvalidInput):
		return ErrorResult(err.Error(), "Fix the input and retry")
	case errors.Is(err, llm.ErrFatalAPI):
		return ErrorResult("Reasoning service rejected the request", "Check the LLM API key, quota and billing; retrying will not help")
	case errors.Is(err, risk.ErrReasoning):
		return ErrorResult("Reasoning service failed", "Check the LLM provider configuration")
	case errors.As(err, &fanout):
		return ErrorResult(err.Error(), "The record was stored but a projection failed; check graph and embedding backends")
	default:
		return ErrorResult("Operation failed", "Database may be unavailable")
	}
}
