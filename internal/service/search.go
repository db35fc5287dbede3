package service

import (
	"context"
	"strings"

	"github.com/raphaelgruber/entity-scanner/internal/metrics"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// Stats is the operator view of store contents and pipeline timings.
type Stats struct {
	Entities     map[models.EntityType]int64 `json:"entities"`
	Indexed      int                         `json:"indexed"`
	RiskStrategy models.RiskSource           `json:"risk_strategy"`
	Pipeline     metrics.Snapshot            `json:"pipeline"`
}

// Graph returns the one-hop neighborhood of an entity. The id must exist in
// the record store; graph presence alone is not enough.
func (s *EntityService) Graph(ctx context.Context, id int64) (*models.Graph, error) {
	if _, err := s.records.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.graph.Neighbors(ctx, id)
}

// SearchSimilar ranks indexed entities by similarity to query. Hits whose id
// no longer resolves in the record store are skipped. A negative k (AutoK)
// uses the default; k == 0 yields no results.
func (s *EntityService) SearchSimilar(ctx context.Context, query string, k int) ([]models.SimilarEntity, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &models.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if k < 0 {
		k = s.opts.SearchK
	}

	matches, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.SimilarEntity{}, nil
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	byID, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]models.SimilarEntity, 0, len(matches))
	for _, m := range matches {
		e, ok := byID[m.ID]
		if !ok {
			s.logger.Warn("indexed entity missing from record store", "entity_id", m.ID)
			continue
		}
		results = append(results, models.SimilarEntity{Entity: e, Score: m.Score})
	}
	return results, nil
}

// RiskSummary assesses an entity together with its graph neighbors.
func (s *EntityService) RiskSummary(ctx context.Context, id int64) (*models.RiskSummary, error) {
	entity, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	related, err := s.related(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.assessor.Assess(ctx, entity, related)
}

// related resolves the graph neighbors of id back to stored entities, in
// graph order. Nodes without a stored record are dropped.
func (s *EntityService) related(ctx context.Context, id int64) ([]models.Entity, error) {
	g, err := s.graph.Neighbors(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nid, err := models.ParseNodeID(n.ID)
		if err != nil {
			s.logger.Warn("skipping graph node with non-numeric id", "node_id", n.ID)
			continue
		}
		if nid != id {
			ids = append(ids, nid)
		}
	}
	if len(ids) == 0 {
		return []models.Entity{}, nil
	}

	byID, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	related := make([]models.Entity, 0, len(ids))
	for _, nid := range ids {
		if e, ok := byID[nid]; ok {
			related = append(related, e)
		}
	}
	return related, nil
}

func (s *EntityService) resolve(ctx context.Context, ids []int64) (map[int64]models.Entity, error) {
	entities, err := s.records.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	return byID, nil
}

// Stats reports entity counts per type, index size and pipeline metrics.
func (s *EntityService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.records.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Entities:     counts,
		Indexed:      s.index.Len(),
		RiskStrategy: s.assessor.Source(),
		Pipeline:     s.metrics.Snapshot(),
	}, nil
}
