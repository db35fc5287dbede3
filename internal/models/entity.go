// Package models defines the data structures shared by the scanner's stores and engines.
package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// EntityType is the closed set of identifiers the scanner tracks.
type EntityType string

const (
	EntityEmail    EntityType = "email"
	EntityPhone    EntityType = "phone"
	EntityUsername EntityType = "username"
	EntityDomain   EntityType = "domain"
	EntityBreach   EntityType = "breach"
)

// EntityTypes lists every valid entity type in declaration order.
var EntityTypes = []EntityType{EntityEmail, EntityPhone, EntityUsername, EntityDomain, EntityBreach}

// Value length bounds, counted in characters.
const (
	MinValueLen = 2
	MaxValueLen = 255
)

// Valid reports whether t belongs to the closed set.
func (t EntityType) Valid() bool {
	return slices.Contains(EntityTypes, t)
}

// ParseEntityType converts user input into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown entity type %q (want one of %s)", s, typeList())}
	}
	return t, nil
}

func typeList() string {
	names := make([]string, len(EntityTypes))
	for i, t := range EntityTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Entity is a tracked identifier. The record store assigns ID and CreatedAt;
// every other store holds a projection keyed by ID.
type Entity struct {
	ID          int64      `json:"id"`
	Type        EntityType `json:"type"`
	Value       string     `json:"value"`
	Description *string    `json:"description"`
	RiskScore   *float64   `json:"risk_score"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProjectedText is the text the similarity index embeds for this entity.
func (e *Entity) ProjectedText() string {
	if e.Description != nil && *e.Description != "" {
		return *e.Description
	}
	return fmt.Sprintf("%s - %s", e.Type, e.Value)
}

// DescriptionOr returns the description or fallback when none is set.
func (e *Entity) DescriptionOr(fallback string) string {
	if e.Description == nil || *e.Description == "" {
		return fallback
	}
	return *e.Description
}

// EntityInput is the input structure for creating entities.
type EntityInput struct {
	Type        EntityType `json:"type"`
	Value       string     `json:"value"`
	Description *string    `json:"description,omitempty"`
	RiskScore   *float64   `json:"risk_score,omitempty"`
}

// Validate checks the type and value bounds without touching any store.
func (in EntityInput) Validate() error {
	if !in.Type.Valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown entity type %q", in.Type)}
	}
	n := utf8.RuneCountInString(in.Value)
	if n < MinValueLen || n > MaxValueLen {
		return &ValidationError{
			Field:  "value",
			Reason: fmt.Sprintf("length %d outside [%d, %d]", n, MinValueLen, MaxValueLen),
		}
	}
	return nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
