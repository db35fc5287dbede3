// Package client provides an HTTP client for the scanner server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/service"
)

// Client talks to the scanner's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses SCANNER_SERVER_URL or defaults to localhost:8000.
// Timeout can be configured via SCANNER_CLIENT_TIMEOUT (default 2m, reasoning calls can be slow).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("SCANNER_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("SCANNER_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server error: %d %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Detail)
}

// Unwrap maps client-facing codes back to the shared sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusUnprocessableEntity:
		return models.ErrInvalidInput
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(data))}
		var payload struct {
			Detail string `json:"detail"`
			Code   string `json:"code"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
			apiErr.Detail, apiErr.Code = payload.Detail, payload.Code
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Scan creates and enriches an entity.
func (c *Client) Scan(ctx context.Context, typ models.EntityType, value string) (*models.Entity, error) {
	var e models.Entity
	body := map[string]string{"type": string(typ), "value": value}
	if err := c.do(ctx, http.MethodPost, "/scan", nil, body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntity retrieves an entity by id.
func (c *Client) GetEntity(ctx context.Context, id int64) (*models.Entity, error) {
	var e models.Entity
	if err := c.do(ctx, http.MethodGet, entityPath(id, ""), nil, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEntities returns the newest entities. limit <= 0 uses the server default.
func (c *Client) ListEntities(ctx context.Context, limit int) ([]models.Entity, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var entities []models.Entity
	if err := c.do(ctx, http.MethodGet, "/entities", query, nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// Graph returns the one-hop neighborhood of an entity.
func (c *Client) Graph(ctx context.Context, id int64) (*models.Graph, error) {
	var g models.Graph
	if err := c.do(ctx, http.MethodGet, entityPath(id, "/graph"), nil, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Search ranks entities by similarity to query. A negative k uses the server
// default; k == 0 asks for no results.
func (c *Client) Search(ctx context.Context, query string, k int) ([]models.SimilarEntity, error) {
	params := url.Values{"query": {query}}
	if k >= 0 {
		params.Set("k", strconv.Itoa(k))
	}
	var resp struct {
		Results []models.SimilarEntity `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/search", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// RiskSummary assesses an entity.
func (c *Client) RiskSummary(ctx context.Context, id int64) (*models.RiskSummary, error) {
	var s models.RiskSummary
	if err := c.do(ctx, http.MethodGet, entityPath(id, "/summary"), nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Stats returns entity counts and pipeline metrics.
func (c *Client) Stats(ctx context.Context) (*service.Stats, error) {
	var s service.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func entityPath(id int64, suffix string) string {
	return "/entities/" + strconv.FormatInt(id, 10) + suffix
}
