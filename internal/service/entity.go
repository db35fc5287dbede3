// Package service coordinates entity writes across the record store, the
// graph store and the similarity index, and exposes the read operations used
// by the HTTP and CLI boundaries.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/entity-scanner/internal/enrich"
	"github.com/raphaelgruber/entity-scanner/internal/graph"
	"github.com/raphaelgruber/entity-scanner/internal/metrics"
	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/risk"
	"github.com/raphaelgruber/entity-scanner/internal/vectorindex"
)

// Defaults applied when callers pass a non-positive limit or a negative k.
const (
	DefaultListLimit = 50
	DefaultSearchK   = 5
)

// AutoK asks SearchSimilar for the configured default result count.
const AutoK = -1

// RecordStore is the authoritative entity store.
type RecordStore interface {
	Create(ctx context.Context, in models.EntityInput) (*models.Entity, error)
	Get(ctx context.Context, id int64) (*models.Entity, error)
	List(ctx context.Context, limit int) ([]models.Entity, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Entity, error)
	CountByType(ctx context.Context) (map[models.EntityType]int64, error)
}

// Options tunes boundary defaults.
type Options struct {
	ListLimit int
	SearchK   int
}

// EntityService is the entity lifecycle coordinator.
type EntityService struct {
	records  RecordStore
	graph    graph.Store
	index    *vectorindex.Index
	enricher *enrich.Engine
	assessor *risk.Assessor
	metrics  *metrics.Collector
	logger   *slog.Logger
	opts     Options
}

// NewEntityService creates a coordinator. mc may be nil.
func NewEntityService(
	records RecordStore,
	g graph.Store,
	index *vectorindex.Index,
	assessor *risk.Assessor,
	mc *metrics.Collector,
	logger *slog.Logger,
	opts Options,
) *EntityService {
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	if opts.SearchK <= 0 {
		opts.SearchK = DefaultSearchK
	}

	s := &EntityService{
		records:  records,
		graph:    g,
		index:    index,
		assessor: assessor,
		metrics:  mc,
		logger:   logger.With("component", "service"),
		opts:     opts,
	}
	s.enricher = enrich.NewEngine(s, s, logger)
	return s
}

// Create writes the entity to the record store, then projects it into the
// graph and the similarity index, in that order. A projection failure is
// returned as a *FanoutError; the stored record stays in place.
func (s *EntityService) Create(ctx context.Context, in models.EntityInput) (*models.Entity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	entity, err := s.records.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	start := time.Now()
	err = s.graph.UpsertNode(ctx, entity.ID, entity.Type, entity.Value)
	s.metrics.Observe(metrics.OpGraphWrite, start, err)
	if err != nil {
		s.logger.Error("graph projection failed", "entity_id", entity.ID, "error", err)
		return nil, &FanoutError{Stage: StageGraph, EntityID: entity.ID, Err: err}
	}
	s.logger.Debug("graph node upserted", "entity_id", entity.ID, "duration_ms", time.Since(start).Milliseconds())

	start = time.Now()
	err = s.index.Index(ctx, entity)
	s.metrics.Observe(metrics.OpIndexWrite, start, err)
	if err != nil {
		s.logger.Error("index projection failed", "entity_id", entity.ID, "error", err)
		return nil, &FanoutError{Stage: StageIndex, EntityID: entity.ID, Err: err}
	}
	s.logger.Debug("entity indexed", "entity_id", entity.ID, "duration_ms", time.Since(start).Milliseconds())

	return entity, nil
}

// Link creates a directed relation between two projected entities.
func (s *EntityService) Link(ctx context.Context, source, target int64, label models.RelationLabel) error {
	if err := models.ValidateRelationLabel(label); err != nil {
		return err
	}

	start := time.Now()
	err := s.graph.CreateEdge(ctx, source, target, label)
	s.metrics.Observe(metrics.OpGraphWrite, start, err)
	if err != nil {
		return &FanoutError{Stage: StageRelation, EntityID: source, Err: err}
	}
	return nil
}

// Scan creates an entity with a generated description and enriches it.
// All derivations are planned and validated before anything is written, so
// malformed input never leaves partial entities behind.
func (s *EntityService) Scan(ctx context.Context, typ models.EntityType, value string) (*models.Entity, error) {
	in := models.EntityInput{
		Type:        typ,
		Value:       value,
		Description: models.StringPtr(fmt.Sprintf("Scanned %s: %s", typ, value)),
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	plan, err := enrich.Plan(typ, value)
	if err != nil {
		return nil, err
	}

	base, err := s.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	derived, err := s.enricher.Apply(ctx, base, plan)
	s.metrics.Observe(metrics.OpEnrichment, start, err)
	if err != nil {
		s.logger.Error("enrichment failed", "entity_id", base.ID, "derived", len(derived), "error", err)
		return nil, fmt.Errorf("enrich entity %d: %w", base.ID, err)
	}

	s.logger.Info("entity scanned", "entity_id", base.ID, "type", base.Type, "derived", len(derived))
	return base, nil
}

// Get retrieves an entity by ID.
func (s *EntityService) Get(ctx context.Context, id int64) (*models.Entity, error) {
	return s.records.Get(ctx, id)
}

// List returns the newest entities first. A non-positive limit uses the default.
func (s *EntityService) List(ctx context.Context, limit int) ([]models.Entity, error) {
	if limit <= 0 {
		limit = s.opts.ListLimit
	}
	return s.records.List(ctx, limit)
}
