package surreal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/entity-scanner/internal/graph"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

const (
	sqlUpsertNode = `UPSERT type::record("entity_node", $id) SET type = $type, value = $value`

	sqlCreateEdge = `
		LET $from_exists = (SELECT count() AS c FROM type::record("entity_node", $source)).c > 0;
		LET $to_exists = (SELECT count() AS c FROM type::record("entity_node", $target)).c > 0;

		IF !$from_exists OR !$to_exists {
			THROW "node missing"
		};

		RELATE type::record("entity_node", $source)->relation->type::record("entity_node", $target) SET
			rel_type = $rel_type;
	`

	sqlNeighbors = `
		SELECT
			<string>record::id(in) AS source,
			<string>record::id(out) AS target,
			rel_type,
			in.type AS in_type, in.value AS in_value,
			out.type AS out_type, out.value AS out_value
		FROM relation
		WHERE in = type::record("entity_node", $id) OR out = type::record("entity_node", $id)
	`
)

type edgeRow struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	RelType  string `json:"rel_type"`
	InType   string `json:"in_type"`
	InValue  string `json:"in_value"`
	OutType  string `json:"out_type"`
	OutValue string `json:"out_value"`
}

// Store implements graph.Store on SurrealDB.
type Store struct {
	client *Client
}

var _ graph.Store = (*Store)(nil)

// New wraps a connected client.
func New(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) UpsertNode(ctx context.Context, id int64, typ models.EntityType, value string) error {
	_, err := surrealdb.Query[any](ctx, s.client.db, sqlUpsertNode, map[string]any{
		"id":    models.NodeID(id),
		"type":  string(typ),
		"value": value,
	})
	if err != nil {
		return fmt.Errorf("upsert node %d: %w", id, wrapQueryError(err))
	}
	return nil
}

func (s *Store) CreateEdge(ctx context.Context, source, target int64, label models.RelationLabel) error {
	if err := models.ValidateRelationLabel(label); err != nil {
		return err
	}

	_, err := surrealdb.Query[any](ctx, s.client.db, sqlCreateEdge, map[string]any{
		"source":   models.NodeID(source),
		"target":   models.NodeID(target),
		"rel_type": string(label),
	})
	err = wrapQueryError(err)
	if errors.Is(err, errDuplicate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create edge %d-[%s]->%d: %w", source, label, target, err)
	}
	return nil
}

func (s *Store) Neighbors(ctx context.Context, id int64) (*models.Graph, error) {
	results, err := surrealdb.Query[[]edgeRow](ctx, s.client.db, sqlNeighbors, map[string]any{
		"id": models.NodeID(id),
	})
	if err != nil {
		return nil, fmt.Errorf("neighbors of %d: %w", id, wrapQueryError(err))
	}

	g := graph.NewGraph()
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return g, nil
	}
	rows := (*results)[0].Result

	centerID := models.NodeID(id)
	neighborOf := func(r edgeRow) string {
		if r.Source == centerID {
			return r.Target
		}
		return r.Source
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := strconv.ParseInt(neighborOf(rows[i]), 10, 64)
		b, _ := strconv.ParseInt(neighborOf(rows[j]), 10, 64)
		if a != b {
			return a < b
		}
		return rows[i].RelType < rows[j].RelType
	})

	seen := make(map[string]bool)
	add := func(n models.GraphNode) {
		if !seen[n.ID] {
			seen[n.ID] = true
			g.Nodes = append(g.Nodes, n)
		}
	}

	// center first
	if r := rows[0]; r.Source == centerID {
		add(models.GraphNode{ID: centerID, Label: r.InType, Value: r.InValue})
	} else {
		add(models.GraphNode{ID: centerID, Label: r.OutType, Value: r.OutValue})
	}
	for _, r := range rows {
		add(models.GraphNode{ID: r.Source, Label: r.InType, Value: r.InValue})
		add(models.GraphNode{ID: r.Target, Label: r.OutType, Value: r.OutValue})
		g.Edges = append(g.Edges, models.GraphEdge{Source: r.Source, Target: r.Target, Type: r.RelType})
	}
	return g, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
