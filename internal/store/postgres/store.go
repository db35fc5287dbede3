// Package postgres is the record store: the source of truth for entity identity.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/raphaelgruber/entity-scanner/internal/metrics"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// DBPool abstracts *pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const entityColumns = `id, type, value, description, risk_score, created_at`

const (
	sqlInsertEntity = `INSERT INTO entities (type, value, description, risk_score)
VALUES ($1, $2, $3, $4)
RETURNING ` + entityColumns

	sqlSelectEntity = `SELECT ` + entityColumns + ` FROM entities WHERE id = $1`

	sqlListEntities = `SELECT ` + entityColumns + ` FROM entities ORDER BY id DESC LIMIT $1`

	sqlSelectEntitiesByIDs = `SELECT ` + entityColumns + ` FROM entities WHERE id = ANY($1) ORDER BY id`

	sqlCountByType = `SELECT type, count(*) FROM entities GROUP BY type`
)

// Store persists entities in PostgreSQL.
type Store struct {
	pool    DBPool
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *slog.Logger, mc *metrics.Collector) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{
		pool:    pool,
		logger:  logger.With("component", "record_store"),
		metrics: mc,
	}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Create inserts a new entity and returns it with its assigned id and timestamp.
func (s *Store) Create(ctx context.Context, in models.EntityInput) (*models.Entity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	row := s.pool.QueryRow(ctx, sqlInsertEntity, string(in.Type), in.Value, in.Description, in.RiskScore)
	entity, err := scanEntity(row)
	s.metrics.Observe(metrics.OpRecordWrite, start, err)
	if err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}

	s.logger.Debug("entity inserted", "entity_id", entity.ID, "type", entity.Type,
		"duration_ms", time.Since(start).Milliseconds())
	return entity, nil
}

// Get returns the entity with the given id, or models.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*models.Entity, error) {
	entity, err := scanEntity(s.pool.QueryRow(ctx, sqlSelectEntity, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("entity %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entity %d: %w", id, err)
	}
	return entity, nil
}

// List returns up to limit entities, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]models.Entity, error) {
	if limit <= 0 {
		return nil, &models.ValidationError{Field: "limit", Reason: "must be positive"}
	}
	rows, err := s.pool.Query(ctx, sqlListEntities, limit)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return collectEntities(rows)
}

// FindByIDs returns the entities whose ids are in ids, ordered by id.
// Unknown ids are silently absent from the result.
func (s *Store) FindByIDs(ctx context.Context, ids []int64) ([]models.Entity, error) {
	if len(ids) == 0 {
		return []models.Entity{}, nil
	}
	rows, err := s.pool.Query(ctx, sqlSelectEntitiesByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("find entities by ids: %w", err)
	}
	return collectEntities(rows)
}

// CountByType returns the number of stored entities per type.
func (s *Store) CountByType(ctx context.Context) (map[models.EntityType]int64, error) {
	rows, err := s.pool.Query(ctx, sqlCountByType)
	if err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EntityType]int64)
	for rows.Next() {
		var (
			typ string
			n   int64
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[models.EntityType(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	return counts, nil
}

func scanEntity(row pgx.Row) (*models.Entity, error) {
	var (
		e   models.Entity
		typ string
	)
	if err := row.Scan(&e.ID, &typ, &e.Value, &e.Description, &e.RiskScore, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Type = models.EntityType(typ)
	return &e, nil
}

func collectEntities(rows pgx.Rows) ([]models.Entity, error) {
	defer rows.Close()

	entities := []models.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, nil
}
