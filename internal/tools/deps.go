// Package tools provides MCP tool handlers and registration.
package tools

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/service"
)

// Scanner is the subset of the entity service the tools call.
type Scanner interface {
	Scan(ctx context.Context, typ models.EntityType, value string) (*models.Entity, error)
	Get(ctx context.Context, id int64) (*models.Entity, error)
	List(ctx context.Context, limit int) ([]models.Entity, error)
	Graph(ctx context.Context, id int64) (*models.Graph, error)
	SearchSimilar(ctx context.Context, query string, k int) ([]models.SimilarEntity, error)
	RiskSummary(ctx context.Context, id int64) (*models.RiskSummary, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Service Scanner
	Logger  *slog.Logger
}
