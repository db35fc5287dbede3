package risk

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ent(typ models.EntityType, value, desc string) *models.Entity {
	e := &models.Entity{ID: 1, Type: typ, Value: value}
	if desc != "" {
		e.Description = models.StringPtr(desc)
	}
	return e
}

func TestScoreAndLevel(t *testing.T) {
	tests := []struct {
		name      string
		entity    *models.Entity
		wantScore float64
		wantLevel string
	}{
		{"domain without description", ent(models.EntityDomain, "example.com", ""), 0.3, LevelLow},
		{"breach mentioning breach", ent(models.EntityBreach, "x-breach-2023", "Simulated breach record"), 0.6, LevelMedium},
		{"email", ent(models.EntityEmail, "a@b.io", "Scanned email: a@b.io"), 0.5, LevelMedium},
		{"username", ent(models.EntityUsername, "alice", ""), 0.5, LevelMedium},
		{"email with Breach", ent(models.EntityEmail, "a@b.io", "Found in a Breach dump"), 0.8, LevelHigh},
		{"phone", ent(models.EntityPhone, "+15550100", "BREACHED"), 0.6, LevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.entity)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.LessOrEqual(t, score, 1.0)
			assert.Equal(t, tt.wantLevel, Level(score))
		})
	}
}

func TestLevelBoundaries(t *testing.T) {
	assert.Equal(t, LevelLow, Level(0.39))
	assert.Equal(t, LevelMedium, Level(0.4))
	assert.Equal(t, LevelMedium, Level(0.69))
	assert.Equal(t, LevelHigh, Level(0.7))
	assert.Equal(t, LevelHigh, Level(1.0))
}

func TestHeuristicSummary(t *testing.T) {
	e := ent(models.EntityEmail, "alice@example.com", "breach suspected")
	related := []models.Entity{{ID: 2}, {ID: 3}, {ID: 4}}

	got := Heuristic(e, related)
	assert.Equal(t, LevelHigh, got.RiskLevel)
	assert.Equal(t, models.RiskSourceHeuristic, got.Source)
	assert.Equal(t,
		"This email 'alice@example.com' has an estimated High risk level based on basic heuristic signals and its relationships.",
		got.Summary)
	assert.Equal(t, []string{
		"Type is email",
		"Description mentions possible breach",
		"3 related entities detected in graph",
	}, got.KeySignals)

	got = Heuristic(ent(models.EntityDomain, "example.com", ""), nil)
	assert.Equal(t, "No explicit breach in description", got.KeySignals[1])
	assert.Equal(t, "0 related entities detected in graph", got.KeySignals[2])
}

type stubReasoner struct {
	text   string
	err    error
	prompt string
}

func (s *stubReasoner) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestAssessorHeuristicPath(t *testing.T) {
	a := New(nil, discard())
	assert.Equal(t, models.RiskSourceHeuristic, a.Source())

	got, err := a.Assess(context.Background(), ent(models.EntityDomain, "example.com", ""), nil)
	require.NoError(t, err)
	assert.Equal(t, LevelLow, got.RiskLevel)
}

func TestAssessorExternalPath(t *testing.T) {
	r := &stubReasoner{text: "Risk: High\nThe email appears in a breach."}
	a := New(r, discard())
	assert.Equal(t, models.RiskSourceLLM, a.Source())

	e := ent(models.EntityEmail, "alice@example.com", "Scanned email: alice@example.com")
	related := []models.Entity{
		{Type: models.EntityUsername, Value: "alice", Description: models.StringPtr("Username derived from alice@example.com")},
		{Type: models.EntityDomain, Value: "example.com"},
	}

	got, err := a.Assess(context.Background(), e, related)
	require.NoError(t, err)
	assert.Equal(t, &models.RiskSummary{
		RiskLevel:  "Unknown (LLM)",
		Summary:    "Risk: High\nThe email appears in a breach.",
		KeySignals: []string{"LLM generated – see summary."},
		Source:     models.RiskSourceLLM,
	}, got)

	assert.Contains(t, r.prompt, "    type: email\n    value: alice@example.com\n    description: Scanned email: alice@example.com")
	assert.Contains(t, r.prompt, "- username: alice (Username derived from alice@example.com)\n- domain: example.com (no description)")
}

func TestAssessorExternalFailureIsNotMasked(t *testing.T) {
	boom := errors.New("503 service unavailable")
	a := New(&stubReasoner{err: boom}, discard())

	got, err := a.Assess(context.Background(), ent(models.EntityPhone, "+15550100", ""), nil)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrReasoning)
	assert.ErrorIs(t, err, boom)
}

func TestBuildPromptDefaults(t *testing.T) {
	p := BuildPrompt(ent(models.EntityBreach, "phone-breach-collection", ""), nil)
	assert.Contains(t, p, "description: N/A")
	assert.Contains(t, p, "Related entities:\nNone\n")
	assert.True(t, strings.HasPrefix(p, "\nYou are an analyst in a cyber intelligence team."))
	assert.Contains(t, p, "1. Rate overall risk as Low, Medium or High.")
}
