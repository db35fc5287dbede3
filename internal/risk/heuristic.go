package risk

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// Heuristic weights and thresholds.
const (
	baseScore        = 0.3
	identityBonus    = 0.2 // email and username
	breachBonus      = 0.3
	maxScore         = 1.0
	lowUpperBound    = 0.4
	mediumUpperBound = 0.7
)

// Risk levels produced by the heuristic.
const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"
)

// Score returns the heuristic risk score of e in [0.3, 1.0].
func Score(e *models.Entity) float64 {
	score := baseScore
	if e.Type == models.EntityEmail || e.Type == models.EntityUsername {
		score += identityBonus
	}
	if mentionsBreach(e) {
		score += breachBonus
	}
	return min(score, maxScore)
}

// Level maps a score to Low, Medium or High.
func Level(score float64) string {
	switch {
	case score < lowUpperBound:
		return LevelLow
	case score < mediumUpperBound:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Heuristic builds the local risk summary from entity attributes and the
// number of related entities.
func Heuristic(e *models.Entity, related []models.Entity) *models.RiskSummary {
	level := Level(Score(e))

	breachSignal := "No explicit breach in description"
	if mentionsBreach(e) {
		breachSignal = "Description mentions possible breach"
	}

	return &models.RiskSummary{
		RiskLevel: level,
		Summary: fmt.Sprintf("This %s '%s' has an estimated %s risk level based on basic heuristic signals and its relationships.",
			e.Type, e.Value, level),
		KeySignals: []string{
			fmt.Sprintf("Type is %s", e.Type),
			breachSignal,
			fmt.Sprintf("%d related entities detected in graph", len(related)),
		},
		Source: models.RiskSourceHeuristic,
	}
}

func mentionsBreach(e *models.Entity) bool {
	return e.Description != nil && strings.Contains(strings.ToLower(*e.Description), "breach")
}
