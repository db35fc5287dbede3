package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// ScanInput defines the input schema for the scan_entity tool.
type ScanInput struct {
	Type  string `json:"type" jsonschema:"Entity type: email, phone, username, domain or breach"`
	Value string `json:"value" jsonschema:"Identifier value, 2-255 characters"`
}

// NewScanHandler creates the scan_entity tool handler.
func NewScanHandler(deps *Dependencies) mcp.ToolHandlerFor[ScanInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, any, error) {
		typ, err := models.ParseEntityType(input.Type)
		if err != nil {
			return ErrorResult(err.Error(), "Use one of email, phone, username, domain, breach"), nil, nil
		}

		entity, err := deps.Service.Scan(ctx, typ, input.Value)
		if err != nil {
			deps.Logger.Error("scan failed", "type", typ, "error", err)
			return ServiceError(err), nil, nil
		}

		deps.Logger.Info("scan completed", "entity_id", entity.ID, "type", typ)
		return JSONResult(entity), nil, nil
	}
}

// IDInput is shared by tools that address one entity.
type IDInput struct {
	ID int64 `json:"id" jsonschema:"Entity id"`
}

// NewGetEntityHandler creates the get_entity tool handler.
func NewGetEntityHandler(deps *Dependencies) mcp.ToolHandlerFor[IDInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, any, error) {
		entity, err := deps.Service.Get(ctx, input.ID)
		if err != nil {
			return ServiceError(err), nil, nil
		}
		return JSONResult(entity), nil, nil
	}
}

// ListInput defines the input schema for the list_entities tool.
type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max results 1-500, default 50"`
}

// NewListEntitiesHandler creates the list_entities tool handler.
func NewListEntitiesHandler(deps *Dependencies) mcp.ToolHandlerFor[ListInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
		if input.Limit < 0 || input.Limit > 500 {
			return ErrorResult("Limit must be 1-500", "Reduce limit value"), nil, nil
		}

		entities, err := deps.Service.List(ctx, input.Limit)
		if err != nil {
			deps.Logger.Error("list failed", "error", err)
			return ServiceError(err), nil, nil
		}
		return JSONResult(entities), nil, nil
	}
}

// NewGraphHandler creates the get_entity_graph tool handler.
func NewGraphHandler(deps *Dependencies) mcp.ToolHandlerFor[IDInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, any, error) {
		g, err := deps.Service.Graph(ctx, input.ID)
		if err != nil {
			return ServiceError(err), nil, nil
		}
		return JSONResult(g), nil, nil
	}
}
