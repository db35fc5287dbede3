package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// Creator persists an entity through the full store fan-out.
type Creator interface {
	Create(ctx context.Context, in models.EntityInput) (*models.Entity, error)
}

// Linker records a directed edge between two persisted entities.
type Linker interface {
	Link(ctx context.Context, source, target int64, label models.RelationLabel) error
}

// Engine executes enrichment plans.
type Engine struct {
	creator Creator
	linker  Linker
	logger  *slog.Logger
}

// NewEngine creates an enrichment engine.
func NewEngine(creator Creator, linker Linker, logger *slog.Logger) *Engine {
	return &Engine{creator: creator, linker: linker, logger: logger.With("component", "enrich")}
}

// Apply executes a plan produced earlier by Plan for base: it creates every
// derived entity, then links base to each one in plan order, and returns the
// derived entities. Errors from the creator or linker stay in the chain.
func (e *Engine) Apply(ctx context.Context, base *models.Entity, plan []Derivation) ([]models.Entity, error) {
	derived := make([]models.Entity, 0, len(plan))
	for _, d := range plan {
		ent, err := e.creator.Create(ctx, d.Input)
		if err != nil {
			return derived, fmt.Errorf("create derived %s: %w", d.Input.Type, err)
		}
		derived = append(derived, *ent)
	}

	for i, d := range plan {
		if err := e.linker.Link(ctx, base.ID, derived[i].ID, d.Label); err != nil {
			return derived, fmt.Errorf("link %d-[%s]->%d: %w", base.ID, d.Label, derived[i].ID, err)
		}
	}

	e.logger.Debug("entity enriched", "entity_id", base.ID, "type", base.Type, "derived", len(derived))
	return derived, nil
}
