// Package graph defines the contract shared by the graph store backends.
//
// A backend holds weak projections of entities: one node per entity id and
// typed directed edges between them. Identity always comes from the record
// store; backends never invent ids.
package graph

import (
	"context"
	"errors"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// ErrNodeMissing is returned by CreateEdge when either endpoint has no node.
var ErrNodeMissing = errors.New("graph node missing")

// Store is implemented by every graph backend.
type Store interface {
	// UpsertNode creates or overwrites the node for an entity id.
	UpsertNode(ctx context.Context, id int64, typ models.EntityType, value string) error

	// CreateEdge creates a directed edge once. Repeating the call is a no-op.
	// The label must be a valid models.RelationLabel.
	CreateEdge(ctx context.Context, source, target int64, label models.RelationLabel) error

	// Neighbors returns the one-hop neighborhood of id, traversing edges in
	// both directions. Edges keep their stored direction. A node without
	// edges, or an unknown id, yields an empty graph.
	Neighbors(ctx context.Context, id int64) (*models.Graph, error)

	Close(ctx context.Context) error
}

// NewGraph returns an empty, non-nil graph.
func NewGraph() *models.Graph {
	return &models.Graph{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}
}
