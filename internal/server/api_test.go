package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/entity-scanner/internal/graph"
	"github.com/raphaelgruber/entity-scanner/internal/llm"
	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/risk"
	"github.com/raphaelgruber/entity-scanner/internal/server"
	"github.com/raphaelgruber/entity-scanner/internal/service"
)

// stubService answers from fixed data and records the last call arguments.
type stubService struct {
	entities map[int64]models.Entity
	scanErr  error
	riskErr  error

	scannedType  models.EntityType
	scannedValue string
	listLimit    int
	searchQuery  string
	searchK      int
}

func newStub() *stubService {
	return &stubService{entities: map[int64]models.Entity{
		1: {ID: 1, Type: models.EntityEmail, Value: "alice@example.com", Description: models.StringPtr("Scanned email: alice@example.com")},
		2: {ID: 2, Type: models.EntityUsername, Value: "alice"},
	}}
}

func (s *stubService) Scan(_ context.Context, typ models.EntityType, value string) (*models.Entity, error) {
	s.scannedType, s.scannedValue = typ, value
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return &models.Entity{ID: 7, Type: typ, Value: value}, nil
}

func (s *stubService) Get(_ context.Context, id int64) (*models.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &e, nil
}

func (s *stubService) List(_ context.Context, limit int) ([]models.Entity, error) {
	s.listLimit = limit
	return []models.Entity{s.entities[2], s.entities[1]}, nil
}

func (s *stubService) Graph(ctx context.Context, id int64) (*models.Graph, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	g := graph.NewGraph()
	g.Nodes = append(g.Nodes,
		models.GraphNode{ID: "1", Label: "email", Value: "alice@example.com"},
		models.GraphNode{ID: "2", Label: "username", Value: "alice"})
	g.Edges = append(g.Edges, models.GraphEdge{Source: "1", Target: "2", Type: "USES"})
	return g, nil
}

func (s *stubService) SearchSimilar(_ context.Context, query string, k int) ([]models.SimilarEntity, error) {
	s.searchQuery, s.searchK = query, k
	return []models.SimilarEntity{{Entity: s.entities[2], Score: 0.91}}, nil
}

func (s *stubService) RiskSummary(ctx context.Context, id int64) (*models.RiskSummary, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.riskErr != nil {
		return nil, s.riskErr
	}
	return &models.RiskSummary{RiskLevel: "Medium", Summary: "s", KeySignals: []string{"a", "b", "c"}, Source: models.RiskSourceHeuristic}, nil
}

func (s *stubService) Stats(context.Context) (*service.Stats, error) {
	return &service.Stats{Entities: map[models.EntityType]int64{models.EntityEmail: 1}, Indexed: 1}, nil
}

func newAPI(svc server.Service) http.Handler {
	return server.NewAPI(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), "test").Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) server.ErrorResponse {
	t.Helper()
	var body server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRootAndHealth(t *testing.T) {
	h := newAPI(newStub())

	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Secure Entity Scanner API")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestScan(t *testing.T) {
	svc := newStub()
	h := newAPI(svc)

	rec := do(t, h, http.MethodPost, "/scan", `{"type":"phone","value":"+15550100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EntityPhone, svc.scannedType)
	assert.Equal(t, "+15550100", svc.scannedValue)

	var got models.Entity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 7, got.ID)
}

func TestScanTypeIsCaseInsensitive(t *testing.T) {
	svc := newStub()
	rec := do(t, newAPI(svc), http.MethodPost, "/scan", `{"type":" EMAIL ","value":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EntityEmail, svc.scannedType)
}

func TestScanValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"ip","value":"10.0.0.1"}`},
		{"missing type", `{"value":"10.0.0.1"}`},
		{"value too short", `{"type":"domain","value":"x"}`},
		{"value too long", `{"type":"domain","value":"` + strings.Repeat("a", 256) + `"}`},
		{"missing value", `{"type":"email"}`},
		{"malformed json", `{"type":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStub()
			rec := do(t, newAPI(svc), http.MethodPost, "/scan", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, server.CodeInvalidInput, decodeError(t, rec).Code)
			assert.Empty(t, svc.scannedValue)
		})
	}
}

func TestScanErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed email", &models.ValidationError{Field: "value", Reason: "email must contain exactly one '@'"}, http.StatusUnprocessableEntity, server.CodeInvalidInput},
		{"graph down", &service.FanoutError{Stage: service.StageGraph, EntityID: 3, Err: errors.New("connection refused")}, http.StatusBadGateway, server.CodeDownstreamFailure},
		{"wrapped fanout", errors.Join(errors.New("enrich entity 3"), &service.FanoutError{Stage: service.StageRelation, EntityID: 3, Err: graph.ErrNodeMissing}), http.StatusBadGateway, server.CodeDownstreamFailure},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, server.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStub()
			svc.scanErr = tt.err
			rec := do(t, newAPI(svc), http.MethodPost, "/scan", `{"type":"email","value":"not-an-email"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestEntities(t *testing.T) {
	svc := newStub()
	h := newAPI(svc)

	rec := do(t, h, http.MethodGet, "/entities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Entity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
	assert.Zero(t, svc.listLimit)

	rec = do(t, h, http.MethodGet, "/entities?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, svc.listLimit)

	rec = do(t, h, http.MethodGet, "/entities?limit=many", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/entities/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"alice@example.com"`)
}

func TestNotFoundPaths(t *testing.T) {
	h := newAPI(newStub())

	for _, path := range []string{"/entities/999", "/entities/999/graph", "/entities/999/summary"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, path, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, server.CodeNotFound, body.Code)
			assert.Equal(t, "Entity not found", body.Detail)
		})
	}

	rec := do(t, h, http.MethodGet, "/entities/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraph(t *testing.T) {
	rec := do(t, newAPI(newStub()), http.MethodGet, "/entities/1/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var g models.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, []models.GraphEdge{{Source: "1", Target: "2", Type: "USES"}}, g.Edges)
}

func TestSearch(t *testing.T) {
	svc := newStub()
	h := newAPI(svc)

	rec := do(t, h, http.MethodGet, "/search?query=alice&k=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.searchQuery)
	assert.Equal(t, 3, svc.searchK)

	var body struct {
		Results []models.SimilarEntity `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.InDelta(t, 0.91, body.Results[0].Score, 1e-9)

	rec = do(t, h, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/search?query=x&k=-1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearchResultCount(t *testing.T) {
	tests := []struct {
		name  string
		query string
		wantK int
	}{
		{"explicit zero", "/search?query=alice&k=0", 0},
		{"omitted", "/search?query=alice", service.AutoK},
		{"upper bound", "/search?query=alice&k=100", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStub()
			rec := do(t, newAPI(svc), http.MethodGet, tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantK, svc.searchK)
		})
	}

	rec := do(t, newAPI(newStub()), http.MethodGet, "/search?query=alice&k=101", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRiskSummary(t *testing.T) {
	svc := newStub()
	rec := do(t, newAPI(svc), http.MethodGet, "/entities/1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"risk_level":"Medium","summary":"s","key_signals":["a","b","c"],"source":"heuristic"}`,
		rec.Body.String())

	svc.riskErr = errors.Join(risk.ErrReasoning, errors.New("503"))
	rec = do(t, newAPI(svc), http.MethodGet, "/entities/1/summary", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, server.CodeReasoningFailure, decodeError(t, rec).Code)

	svc.riskErr = errors.Join(risk.ErrReasoning, llm.ErrFatalAPI, errors.New("invalid api key"))
	rec = do(t, newAPI(svc), http.MethodGet, "/entities/1/summary", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, server.CodeReasoningMisconfigured, decodeError(t, rec).Code)
}

func TestStats(t *testing.T) {
	rec := do(t, newAPI(newStub()), http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entities":{"email":1}`)
	assert.Contains(t, rec.Body.String(), `"indexed":1`)
}
