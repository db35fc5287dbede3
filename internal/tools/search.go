package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/entity-scanner/internal/service"
)

// SearchInput defines the input schema for the search_similar tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"The search query text"`
	K     *int   `json:"k,omitempty" jsonschema:"Max results 0-100, default 5"`
}

// NewSearchHandler creates the search_similar tool handler.
func NewSearchHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
		if input.Query == "" {
			return ErrorResult("Query cannot be empty", "Provide a search query"), nil, nil
		}
		k := service.AutoK
		if input.K != nil {
			if *input.K < 0 || *input.K > 100 {
				return ErrorResult("k must be 0-100", "Omit k for the default of 5"), nil, nil
			}
			k = *input.K
		}

		results, err := deps.Service.SearchSimilar(ctx, input.Query, k)
		if err != nil {
			deps.Logger.Error("search failed", "error", err)
			return ServiceError(err), nil, nil
		}

		deps.Logger.Info("search completed", "query", shorten(input.Query, 30), "results", len(results))

		return JSONResult(map[string]any{"results": results}), nil, nil
	}
}

// NewRiskSummaryHandler creates the get_risk_summary tool handler.
func NewRiskSummaryHandler(deps *Dependencies) mcp.ToolHandlerFor[IDInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, any, error) {
		summary, err := deps.Service.RiskSummary(ctx, input.ID)
		if err != nil {
			deps.Logger.Error("risk summary failed", "entity_id", input.ID, "error", err)
			return ServiceError(err), nil, nil
		}
		return JSONResult(summary), nil, nil
	}
}

// StatsInput is empty; stats takes no arguments.
type StatsInput struct{}

// NewStatsHandler creates the stats tool handler.
func NewStatsHandler(deps *Dependencies) mcp.ToolHandlerFor[StatsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, any, error) {
		stats, err := deps.Service.Stats(ctx)
		if err != nil {
			return ServiceError(err), nil, nil
		}
		return JSONResult(stats), nil, nil
	}
}

// shorten cuts s to at most n runes for log lines.
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
