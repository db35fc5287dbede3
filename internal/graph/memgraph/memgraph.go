// Package memgraph is an in-process graph backend for single-node runs and tests.
package memgraph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/raphaelgruber/entity-scanner/internal/graph"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

type edgeKey struct {
	source, target int64
	label          models.RelationLabel
}

// Store keeps nodes and edges in maps guarded by a mutex.
type Store struct {
	mu    sync.RWMutex
	nodes map[int64]models.GraphNode
	edges map[edgeKey]struct{}
	// adjacency in both directions, for undirected traversal
	adj map[int64][]edgeKey
}

var _ graph.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		nodes: make(map[int64]models.GraphNode),
		edges: make(map[edgeKey]struct{}),
		adj:   make(map[int64][]edgeKey),
	}
}

func (s *Store) UpsertNode(_ context.Context, id int64, typ models.EntityType, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = models.GraphNode{ID: models.NodeID(id), Label: string(typ), Value: value}
	return nil
}

func (s *Store) CreateEdge(_ context.Context, source, target int64, label models.RelationLabel) error {
	if err := models.ValidateRelationLabel(label); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []int64{source, target} {
		if _, ok := s.nodes[id]; !ok {
			return fmt.Errorf("edge %d-[%s]->%d: node %d: %w", source, label, target, id, graph.ErrNodeMissing)
		}
	}

	key := edgeKey{source: source, target: target, label: label}
	if _, ok := s.edges[key]; ok {
		return nil
	}
	s.edges[key] = struct{}{}
	s.adj[source] = append(s.adj[source], key)
	if target != source {
		s.adj[target] = append(s.adj[target], key)
	}
	return nil
}

func (s *Store) Neighbors(_ context.Context, id int64) (*models.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := graph.NewGraph()
	center, ok := s.nodes[id]
	if !ok || len(s.adj[id]) == 0 {
		return g, nil
	}

	keys := append([]edgeKey(nil), s.adj[id]...)
	sort.SliceStable(keys, func(i, j int) bool {
		return other(keys[i], id) < other(keys[j], id)
	})

	g.Nodes = append(g.Nodes, center)
	seen := map[int64]bool{id: true}
	for _, k := range keys {
		n := other(k, id)
		if !seen[n] {
			seen[n] = true
			g.Nodes = append(g.Nodes, s.nodes[n])
		}
		g.Edges = append(g.Edges, models.GraphEdge{
			Source: models.NodeID(k.source),
			Target: models.NodeID(k.target),
			Type:   string(k.label),
		})
	}
	return g, nil
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// NodeCount reports the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount reports the number of distinct edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// Node returns the node stored for id.
func (s *Store) Node(id int64) (models.GraphNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

func other(k edgeKey, id int64) int64 {
	if k.source == id {
		return k.target
	}
	return k.source
}
