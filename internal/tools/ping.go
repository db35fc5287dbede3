package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PingInput defines the input schema for the ping tool.
type PingInput struct {
	Echo  string `json:"echo,omitempty" jsonschema:"Text to echo back"`
	Check bool   `json:"check,omitempty" jsonschema:"Also report index size and risk strategy"`
}

// NewPingHandler answers "pong", echoes input, or with check=true reports
// whether the scanner behind the tools is reachable.
func NewPingHandler(deps *Dependencies) mcp.ToolHandlerFor[PingInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, any, error) {
		deps.Logger.Debug("ping tool called", "echo", input.Echo, "check", input.Check)

		reply := "pong"
		if input.Echo != "" {
			reply = input.Echo
		}
		if !input.Check {
			return TextResult(reply), nil, nil
		}

		stats, err := deps.Service.Stats(ctx)
		if err != nil {
			return ServiceError(err), nil, nil
		}
		return TextResult(fmt.Sprintf("%s (%d indexed, %s risk)", reply, stats.Indexed, stats.RiskStrategy)), nil, nil
	}
}
