// Package graphtest holds a behavioral test suite every graph backend must pass.
package graphtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/entity-scanner/internal/graph"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// Run exercises s. Each subtest uses its own id range so a single backing
// database can be shared across subtests.
func Run(t *testing.T, s graph.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("upsert is idempotent and keeps latest attributes", func(t *testing.T) {
		require.NoError(t, s.UpsertNode(ctx, 101, models.EntityUsername, "alice"))
		require.NoError(t, s.UpsertNode(ctx, 101, models.EntityUsername, "alice2"))
		require.NoError(t, s.UpsertNode(ctx, 102, models.EntityDomain, "example.com"))
		require.NoError(t, s.CreateEdge(ctx, 101, 102, models.RelUses))

		g, err := s.Neighbors(ctx, 101)
		require.NoError(t, err)
		require.Len(t, g.Nodes, 2)
		assert.Equal(t, models.GraphNode{ID: "101", Label: "username", Value: "alice2"}, g.Nodes[0])
	})

	t.Run("edge creation is idempotent", func(t *testing.T) {
		require.NoError(t, s.UpsertNode(ctx, 201, models.EntityEmail, "bob@example.org"))
		require.NoError(t, s.UpsertNode(ctx, 202, models.EntityDomain, "example.org"))
		require.NoError(t, s.CreateEdge(ctx, 201, 202, models.RelRegisteredAt))
		require.NoError(t, s.CreateEdge(ctx, 201, 202, models.RelRegisteredAt))

		g, err := s.Neighbors(ctx, 201)
		require.NoError(t, err)
		assert.Len(t, g.Edges, 1)
	})

	t.Run("neighbors are undirected and edges keep direction", func(t *testing.T) {
		require.NoError(t, s.UpsertNode(ctx, 301, models.EntityEmail, "carol@example.net"))
		require.NoError(t, s.UpsertNode(ctx, 302, models.EntityUsername, "carol"))
		require.NoError(t, s.UpsertNode(ctx, 303, models.EntityBreach, "example.net-breach-2023"))
		require.NoError(t, s.CreateEdge(ctx, 301, 302, models.RelUses))
		require.NoError(t, s.CreateEdge(ctx, 301, 303, models.RelAppearsIn))

		g, err := s.Neighbors(ctx, 302)
		require.NoError(t, err)
		require.Len(t, g.Nodes, 2)
		assert.Equal(t, "302", g.Nodes[0].ID, "center node comes first")
		assert.Equal(t, "301", g.Nodes[1].ID)
		require.Len(t, g.Edges, 1)
		assert.Equal(t, models.GraphEdge{Source: "301", Target: "302", Type: "USES"}, g.Edges[0])

		g, err = s.Neighbors(ctx, 301)
		require.NoError(t, err)
		assert.Len(t, g.Nodes, 3)
		assert.Len(t, g.Edges, 2)
	})

	t.Run("isolated and unknown nodes yield an empty graph", func(t *testing.T) {
		require.NoError(t, s.UpsertNode(ctx, 401, models.EntityDomain, "lonely.io"))

		for _, id := range []int64{401, 499} {
			g, err := s.Neighbors(ctx, id)
			require.NoError(t, err)
			assert.Empty(t, g.Nodes)
			assert.Empty(t, g.Edges)
		}
	})

	t.Run("unknown relation label is rejected", func(t *testing.T) {
		require.NoError(t, s.UpsertNode(ctx, 501, models.EntityEmail, "dave@example.com"))
		require.NoError(t, s.UpsertNode(ctx, 502, models.EntityDomain, "example.com"))

		err := s.CreateEdge(ctx, 501, 502, "KNOWS]->(x) DETACH DELETE x //")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("edge to missing node fails", func(t *testing.T) {
		require.NoError(t, s.UpsertNode(ctx, 601, models.EntityPhone, "+15550100"))

		err := s.CreateEdge(ctx, 601, 699, models.RelAppearsIn)
		assert.ErrorIs(t, err, graph.ErrNodeMissing)
	})
}
