package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server and returns how many
// were added. Called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) int {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_entity",
		Description: "Create an entity, enrich it with derived entities and relations, and index it",
	}, NewScanHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_entity",
		Description: "Retrieve an entity by its ID",
	}, NewGetEntityHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entities",
		Description: "List entities, newest first",
	}, NewListEntitiesHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_entity_graph",
		Description: "Return the one-hop relationship graph around an entity",
	}, NewGraphHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_similar",
		Description: "Rank entities by semantic similarity to a query",
	}, NewSearchHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_risk_summary",
		Description: "Assess the risk of an entity from its attributes and related entities",
	}, NewRiskSummaryHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Entity counts per type, index size and pipeline timings",
	}, NewStatsHandler(deps))

	return 8
}
