// Package app wires stores, encoders and engines from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raphaelgruber/entity-scanner/internal/config"
	"github.com/raphaelgruber/entity-scanner/internal/embedding"
	"github.com/raphaelgruber/entity-scanner/internal/graph"
	"github.com/raphaelgruber/entity-scanner/internal/graph/memgraph"
	"github.com/raphaelgruber/entity-scanner/internal/graph/neo4j"
	"github.com/raphaelgruber/entity-scanner/internal/graph/surreal"
	"github.com/raphaelgruber/entity-scanner/internal/llm"
	"github.com/raphaelgruber/entity-scanner/internal/metrics"
	"github.com/raphaelgruber/entity-scanner/internal/risk"
	"github.com/raphaelgruber/entity-scanner/internal/service"
	"github.com/raphaelgruber/entity-scanner/internal/store/postgres"
	"github.com/raphaelgruber/entity-scanner/internal/vectorindex"
)

// App owns every long-lived dependency of a running scanner.
type App struct {
	Service *service.EntityService
	Metrics *metrics.Collector

	records *postgres.Store
	graph   graph.Store
	logger  *slog.Logger
}

// New connects the record store and graph backend, applies migrations and
// builds the entity service.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	mc := metrics.NewCollector()

	if err := postgres.Migrate(cfg.MigrateURL()); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	records, err := postgres.New(ctx, pool, logger, mc)
	if err != nil {
		pool.Close()
		return nil, err
	}

	g, err := OpenGraph(ctx, cfg, logger)
	if err != nil {
		records.Close()
		return nil, err
	}

	encoder, err := NewEncoder(cfg, mc)
	if err != nil {
		records.Close()
		_ = g.Close(ctx)
		return nil, err
	}

	a := &App{
		Metrics: mc,
		records: records,
		graph:   g,
		logger:  logger,
	}
	a.Service = service.NewEntityService(
		records,
		g,
		vectorindex.New(encoder),
		NewAssessor(cfg, mc, logger),
		mc,
		logger,
		service.Options{ListLimit: cfg.ListLimit, SearchK: cfg.SearchK},
	)

	logger.Info("scanner initialized",
		"graph_backend", cfg.GraphBackend,
		"embedding_model", encoder.Model(),
		"embedding_dimension", encoder.Dimension(),
	)
	return a, nil
}

// Close releases the graph backend and the record store pool.
func (a *App) Close(ctx context.Context) error {
	err := a.graph.Close(ctx)
	a.records.Close()
	return err
}

// OpenGraph connects the configured graph backend and prepares its schema.
func OpenGraph(ctx context.Context, cfg config.Config, logger *slog.Logger) (graph.Store, error) {
	switch cfg.GraphBackend {
	case config.GraphNeo4j, "":
		exec, err := neo4j.NewExecutor(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			return nil, err
		}
		store := neo4j.New(exec, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil

	case config.GraphSurreal:
		client, err := surreal.Connect(ctx, surreal.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		return surreal.New(client), nil

	case config.GraphInMemory:
		logger.Warn("using in-memory graph backend; relations are lost on exit")
		return memgraph.New(), nil

	default:
		return nil, fmt.Errorf("unknown graph backend: %s", cfg.GraphBackend)
	}
}

// NewEncoder builds the configured embedder with timing instrumentation.
func NewEncoder(cfg config.Config, mc *metrics.Collector) (embedding.Embedder, error) {
	e, err := embedding.New(embedding.Config{
		Provider:     embedding.ProviderType(cfg.EmbedProvider),
		Model:        cfg.EmbedModel,
		Dimension:    cfg.EmbedDimension,
		OllamaHost:   cfg.OllamaHost,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedding.WithMetrics(e, mc), nil
}

// NewAssessor selects the risk strategy once. A reasoner that is not
// configured, or cannot be constructed, selects the heuristic.
func NewAssessor(cfg config.Config, mc *metrics.Collector, logger *slog.Logger) *risk.Assessor {
	reasoner, err := llm.New(cfg, mc)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Info("reasoning service not configured, using heuristic risk summaries", "reason", err)
		return risk.New(nil, logger)
	case err != nil:
		logger.Warn("reasoning service unavailable, using heuristic risk summaries", "error", err)
		return risk.New(nil, logger)
	}

	logger.Info("reasoning service configured", "provider", cfg.LLMProvider, "model", reasoner.Model())
	return risk.New(reasoner, logger)
}
