// Package neo4j is the Neo4j graph backend.
package neo4j

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/raphaelgruber/entity-scanner/internal/graph"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// nodeLabel is the Neo4j label carried by every entity node.
const nodeLabel = "Entity"

const (
	cypherConstraint = `CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE`

	// %s is a validated models.RelationLabel; Cypher cannot parameterize relationship types.
	cypherCreateEdge = `MATCH (s:Entity {id: $source}), (t:Entity {id: $target})
MERGE (s)-[r:%s]->(t)
RETURN count(r) AS edges`

	cypherNeighbors = `MATCH (center:Entity {id: $id})-[r]-(neighbor:Entity)
RETURN center.id AS center_id, center.type AS center_type, center.value AS center_value,
       neighbor.id AS neighbor_id, neighbor.type AS neighbor_type, neighbor.value AS neighbor_value,
       startNode(r).id AS source, endNode(r).id AS target, type(r) AS rel
ORDER BY toInteger(neighbor.id), rel`
)

// Runner executes a Cypher query and returns a fully buffered result.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Executor is the driver-backed Runner.
type Executor struct {
	Driver neo4j.DriverWithContext
	DBName string
}

// NewExecutor creates a driver and verifies connectivity.
func NewExecutor(ctx context.Context, uri, username, password, dbName string) (*Executor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Executor{Driver: driver, DBName: dbName}, nil
}

// Run executes query in an auto-managed transaction.
func (e *Executor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, e.Driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.DBName),
	)
	if err != nil {
		return nil, fmt.Errorf("execute neo4j query: %w", err)
	}
	return result, nil
}

// Close closes the driver.
func (e *Executor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

// Store implements graph.Store on Neo4j.
type Store struct {
	runner Runner
	logger *slog.Logger
	closer func(context.Context) error
}

var _ graph.Store = (*Store)(nil)

// New wraps runner. If runner is an *Executor, Close closes its driver.
func New(runner Runner, logger *slog.Logger) *Store {
	s := &Store{runner: runner, logger: logger.With("component", "graph", "backend", "neo4j")}
	if e, ok := runner.(*Executor); ok {
		s.closer = e.Close
	}
	return s
}

// EnsureSchema creates the uniqueness constraint on node ids.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, cypherConstraint, nil); err != nil {
		return fmt.Errorf("create entity id constraint: %w", err)
	}
	return nil
}

func (s *Store) UpsertNode(ctx context.Context, id int64, typ models.EntityType, value string) error {
	query, params, err := gocypher.NewQueryBuilder().
		Merge(gocypher.N("n", nodeLabel).WithProperties(map[string]any{"id": models.NodeID(id)})).
		Set(map[string]any{"n.type": string(typ), "n.value": value}).
		Return("n").
		Build()
	if err != nil {
		return fmt.Errorf("build node upsert: %w", err)
	}
	if _, err := s.runner.Run(ctx, query, params); err != nil {
		return fmt.Errorf("upsert node %d: %w", id, err)
	}
	return nil
}

func (s *Store) CreateEdge(ctx context.Context, source, target int64, label models.RelationLabel) error {
	if err := models.ValidateRelationLabel(label); err != nil {
		return err
	}

	result, err := s.runner.Run(ctx, fmt.Sprintf(cypherCreateEdge, label), map[string]any{
		"source": models.NodeID(source),
		"target": models.NodeID(target),
	})
	if err != nil {
		return fmt.Errorf("create edge %d-[%s]->%d: %w", source, label, target, err)
	}

	if len(result.Records) == 0 {
		return fmt.Errorf("create edge %d-[%s]->%d: %w", source, label, target, graph.ErrNodeMissing)
	}
	n, _, err := neo4j.GetRecordValue[int64](result.Records[0], "edges")
	if err != nil {
		return fmt.Errorf("read edge count: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("create edge %d-[%s]->%d: %w", source, label, target, graph.ErrNodeMissing)
	}
	return nil
}

func (s *Store) Neighbors(ctx context.Context, id int64) (*models.Graph, error) {
	result, err := s.runner.Run(ctx, cypherNeighbors, map[string]any{"id": models.NodeID(id)})
	if err != nil {
		return nil, fmt.Errorf("neighbors of %d: %w", id, err)
	}

	g := graph.NewGraph()
	seen := make(map[string]bool)
	for _, rec := range result.Records {
		center, err := readNode(rec, "center")
		if err != nil {
			return nil, err
		}
		neighbor, err := readNode(rec, "neighbor")
		if err != nil {
			return nil, err
		}
		for _, n := range []models.GraphNode{center, neighbor} {
			if !seen[n.ID] {
				seen[n.ID] = true
				g.Nodes = append(g.Nodes, n)
			}
		}

		edge, err := readEdge(rec)
		if err != nil {
			return nil, err
		}
		g.Edges = append(g.Edges, edge)
	}

	s.logger.Debug("neighbors fetched", "entity_id", id, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

func readNode(rec *neo4j.Record, prefix string) (models.GraphNode, error) {
	id, err := stringValue(rec, prefix+"_id")
	if err != nil {
		return models.GraphNode{}, err
	}
	typ, err := stringValue(rec, prefix+"_type")
	if err != nil {
		return models.GraphNode{}, err
	}
	value, err := stringValue(rec, prefix+"_value")
	if err != nil {
		return models.GraphNode{}, err
	}
	if typ == "" {
		typ = nodeLabel
	}
	return models.GraphNode{ID: id, Label: typ, Value: value}, nil
}

func readEdge(rec *neo4j.Record) (models.GraphEdge, error) {
	source, err := stringValue(rec, "source")
	if err != nil {
		return models.GraphEdge{}, err
	}
	target, err := stringValue(rec, "target")
	if err != nil {
		return models.GraphEdge{}, err
	}
	rel, err := stringValue(rec, "rel")
	if err != nil {
		return models.GraphEdge{}, err
	}
	return models.GraphEdge{Source: source, Target: target, Type: rel}, nil
}

// stringValue reads a string column; a null value yields "".
func stringValue(rec *neo4j.Record, key string) (string, error) {
	v, _, err := neo4j.GetRecordValue[string](rec, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}
