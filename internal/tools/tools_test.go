package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/entity-scanner/internal/llm"
	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/risk"
	"github.com/raphaelgruber/entity-scanner/internal/server"
	"github.com/raphaelgruber/entity-scanner/internal/service"
	"github.com/raphaelgruber/entity-scanner/internal/tools"
)

type stubScanner struct {
	scanned []string
	searchK int
}

func (s *stubScanner) Scan(_ context.Context, typ models.EntityType, value string) (*models.Entity, error) {
	if typ == models.EntityEmail && value == "not-an-email" {
		return nil, &models.ValidationError{Field: "value", Reason: "email must contain exactly one '@'"}
	}
	s.scanned = append(s.scanned, string(typ)+":"+value)
	return &models.Entity{ID: 1, Type: typ, Value: value}, nil
}

func (s *stubScanner) Get(_ context.Context, id int64) (*models.Entity, error) {
	if id != 1 {
		return nil, models.ErrNotFound
	}
	return &models.Entity{ID: 1, Type: models.EntityDomain, Value: "acme.io"}, nil
}

func (s *stubScanner) List(context.Context, int) ([]models.Entity, error) {
	return []models.Entity{{ID: 1, Type: models.EntityDomain, Value: "acme.io"}}, nil
}

func (s *stubScanner) Graph(ctx context.Context, id int64) (*models.Graph, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return &models.Graph{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}, nil
}

func (s *stubScanner) SearchSimilar(_ context.Context, _ string, k int) ([]models.SimilarEntity, error) {
	s.searchK = k
	return []models.SimilarEntity{{Entity: models.Entity{ID: 1, Value: "acme.io"}, Score: 0.5}}, nil
}

func (s *stubScanner) RiskSummary(ctx context.Context, id int64) (*models.RiskSummary, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return &models.RiskSummary{RiskLevel: "Low", KeySignals: []string{}, Source: models.RiskSourceHeuristic}, nil
}

func (s *stubScanner) Stats(context.Context) (*service.Stats, error) {
	return &service.Stats{Indexed: 1, RiskStrategy: models.RiskSourceHeuristic}, nil
}

func connect(t *testing.T, svc tools.Scanner) (context.Context, *mcp.ClientSession) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := server.New("0.1.0-test", logger)
	srv.Setup()
	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{Service: svc, Logger: logger})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	go func() {
		_ = srv.MCPServer().Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")
	t.Cleanup(func() { _ = session.Close() })

	initResult := session.InitializeResult()
	require.NotNil(t, initResult)
	assert.Equal(t, "entity-scanner", initResult.ServerInfo.Name)
	assert.Equal(t, "0.1.0-test", initResult.ServerInfo.Version)
	assert.Contains(t, initResult.Instructions, "scan_entity")

	return ctx, session
}

func call(t *testing.T, ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return text.Text, result.IsError
}

func TestToolsList(t *testing.T) {
	ctx, session := connect(t, &stubScanner{})

	result, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"ping", "scan_entity", "get_entity", "list_entities", "get_entity_graph",
		"search_similar", "get_risk_summary", "stats",
	}, names)
}

func TestPingTool(t *testing.T) {
	ctx, session := connect(t, &stubScanner{})

	text, isErr := call(t, ctx, session, "ping", map[string]any{})
	assert.False(t, isErr)
	assert.Equal(t, "pong", text)

	text, _ = call(t, ctx, session, "ping", map[string]any{"echo": "hello world"})
	assert.Equal(t, "hello world", text)

	text, isErr = call(t, ctx, session, "ping", map[string]any{"check": true})
	assert.False(t, isErr)
	assert.Equal(t, "pong (1 indexed, heuristic risk)", text)
}

func TestScanTool(t *testing.T) {
	svc := &stubScanner{}
	ctx, session := connect(t, svc)

	text, isErr := call(t, ctx, session, "scan_entity", map[string]any{"type": "Email", "value": "alice@example.com"})
	require.False(t, isErr, text)
	var e models.Entity
	require.NoError(t, json.Unmarshal([]byte(text), &e))
	assert.Equal(t, models.EntityEmail, e.Type)
	assert.Equal(t, []string{"email:alice@example.com"}, svc.scanned)

	text, isErr = call(t, ctx, session, "scan_entity", map[string]any{"type": "ip", "value": "10.0.0.1"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown entity type")

	text, isErr = call(t, ctx, session, "scan_entity", map[string]any{"type": "email", "value": "not-an-email"})
	assert.True(t, isErr)
	assert.Contains(t, text, "exactly one '@'")
}

func TestEntityTools(t *testing.T) {
	ctx, session := connect(t, &stubScanner{})

	text, isErr := call(t, ctx, session, "get_entity", map[string]any{"id": 1})
	assert.False(t, isErr)
	assert.Contains(t, text, `"value": "acme.io"`)

	text, isErr = call(t, ctx, session, "get_entity_graph", map[string]any{"id": 42})
	assert.True(t, isErr)
	assert.Contains(t, text, "Entity not found")

	text, isErr = call(t, ctx, session, "get_risk_summary", map[string]any{"id": 1})
	assert.False(t, isErr)
	assert.Contains(t, text, `"risk_level": "Low"`)

	text, isErr = call(t, ctx, session, "search_similar", map[string]any{"query": ""})
	assert.True(t, isErr)
	assert.Contains(t, text, "Query cannot be empty")

	text, isErr = call(t, ctx, session, "search_similar", map[string]any{"query": "acme"})
	assert.False(t, isErr)
	assert.Contains(t, text, `"results"`)

	text, isErr = call(t, ctx, session, "list_entities", map[string]any{"limit": 900})
	assert.True(t, isErr)
	assert.Contains(t, text, "Limit must be 1-500")
}

func TestSearchToolResultCount(t *testing.T) {
	svc := &stubScanner{}
	ctx, session := connect(t, svc)

	_, isErr := call(t, ctx, session, "search_similar", map[string]any{"query": "acme", "k": 0})
	require.False(t, isErr)
	assert.Equal(t, 0, svc.searchK)

	_, isErr = call(t, ctx, session, "search_similar", map[string]any{"query": "acme"})
	require.False(t, isErr)
	assert.Equal(t, service.AutoK, svc.searchK)

	text, isErr := call(t, ctx, session, "search_similar", map[string]any{"query": "acme", "k": 101})
	assert.True(t, isErr)
	assert.Contains(t, text, "k must be 0-100")
}

func TestServiceErrorHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", models.ErrNotFound, "Entity not found"},
		{"rejected credentials", errors.Join(risk.ErrReasoning, llm.ErrFatalAPI), "retrying will not help"},
		{"reasoning outage", errors.Join(risk.ErrReasoning, errors.New("503")), "Reasoning service failed"},
		{"projection", &service.FanoutError{Stage: service.StageGraph, EntityID: 7, Err: errors.New("down")}, "projection failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tools.ServiceError(tt.err)
			require.True(t, result.IsError)
			text, ok := result.Content[0].(*mcp.TextContent)
			require.True(t, ok)
			assert.Contains(t, text.Text, tt.want)
		})
	}
}
