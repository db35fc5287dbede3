// Package vectorindex is the in-memory similarity index over entity text.
//
// Vectors live for the lifetime of the process. Writers take an exclusive
// lock; readers share a read lock and may observe a slightly stale set.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// Encoder converts text to a vector. It must be deterministic for identical input.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Match is one search hit.
type Match struct {
	ID    int64
	Score float64
}

// Index maps entity ids to embedding vectors.
type Index struct {
	encoder Encoder

	mu      sync.RWMutex
	order   []int64 // insertion order, for deterministic ties
	vectors map[int64][]float32
}

// New creates an empty index backed by encoder.
func New(encoder Encoder) *Index {
	return &Index{
		encoder: encoder,
		vectors: make(map[int64][]float32),
	}
}

// Index embeds the entity's projected text and stores it under the entity id,
// replacing any earlier vector for that id. Encoding runs outside the lock.
func (x *Index) Index(ctx context.Context, e *models.Entity) error {
	vec, err := x.encoder.Embed(ctx, e.ProjectedText())
	if err != nil {
		return fmt.Errorf("embed entity %d: %w", e.ID, err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.vectors[e.ID]; !ok {
		x.order = append(x.order, e.ID)
	}
	x.vectors[e.ID] = vec
	return nil
}

// Search returns at most k ids ordered by descending cosine similarity to text.
// Equal scores keep insertion order. An empty index yields an empty result.
func (x *Index) Search(ctx context.Context, text string, k int) ([]Match, error) {
	if k < 0 {
		return nil, &models.ValidationError{Field: "k", Reason: "must not be negative"}
	}

	x.mu.RLock()
	empty := len(x.order) == 0
	x.mu.RUnlock()
	if empty || k == 0 {
		return []Match{}, nil
	}

	query, err := x.encoder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	x.mu.RLock()
	matches := make([]Match, 0, len(x.order))
	for _, id := range x.order {
		matches = append(matches, Match{ID: id, Score: Cosine(query, x.vectors[id])})
	}
	x.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len returns the number of indexed entities.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.order)
}

// Has reports whether id has a vector.
func (x *Index) Has(id int64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.vectors[id]
	return ok
}

// Cosine returns the cosine similarity of a and b, or 0 when either norm is
// zero. Vectors of different length are compared over their common prefix.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
