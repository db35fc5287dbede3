package models

import (
	"fmt"
	"strconv"
)

// RelationLabel types a directed edge between two entity nodes.
// Labels are data that ends up inside graph queries, so only members of the
// closed set below may reach a graph backend.
type RelationLabel string

const (
	RelUses         RelationLabel = "USES"
	RelRegisteredAt RelationLabel = "REGISTERED_AT"
	RelAppearsIn    RelationLabel = "APPEARS_IN"
)

// Valid reports whether l is a known relation label.
func (l RelationLabel) Valid() bool {
	switch l {
	case RelUses, RelRegisteredAt, RelAppearsIn:
		return true
	}
	return false
}

// ValidateRelationLabel returns an ErrInvalidInput-wrapped error for unknown labels.
func ValidateRelationLabel(l RelationLabel) error {
	if !l.Valid() {
		return &ValidationError{Field: "relation", Reason: fmt.Sprintf("unknown relation label %q", l)}
	}
	return nil
}

// GraphNode is the graph projection of an entity.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"` // entity type
	Value string `json:"value"`
}

// GraphEdge is a typed directed relation between two nodes.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Graph is the one-hop neighborhood of an entity node.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// NodeID converts an entity id into the key used by graph projections.
func NodeID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseNodeID converts a graph node key back into an entity id.
func ParseNodeID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
