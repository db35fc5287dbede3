// Package server exposes the scanner over HTTP (echo) and MCP (stdio).
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const mcpInstructions = `Entity scanner. scan_entity stores an identifier (email, phone, username,
domain or breach) and derives related entities into a relationship graph. Use get_entity_graph
to traverse relations, search_similar for free-text lookup and get_risk_summary for a risk verdict.`

// Server is the MCP face of the scanner: one stdio session per process.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates an MCP server announcing itself as "entity-scanner".
func New(version string, logger *slog.Logger) *Server {
	impl := &mcp.Implementation{Name: "entity-scanner", Version: version}
	opts := &mcp.ServerOptions{Instructions: mcpInstructions}

	return &Server{
		mcp:    mcp.NewServer(impl, opts),
		logger: logger.With("transport", "mcp"),
	}
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying server for tool registration.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Setup installs the request logging middleware.
func (s *Server) Setup() {
	s.mcp.AddReceivingMiddleware(LoggingMiddleware(s.logger))
}
