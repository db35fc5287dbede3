// Package risk derives a qualitative risk verdict for an entity.
//
// The strategy is fixed when the Assessor is built: with a reasoner every
// summary comes from the external service, without one every summary comes
// from the local heuristic. A failing external call is reported, not
// replaced by a heuristic verdict.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// ErrReasoning wraps runtime failures of the external reasoning service.
var ErrReasoning = errors.New("reasoning service failed")

// Fixed fields of an externally generated summary.
const (
	LevelExternal  = "Unknown (LLM)"
	SignalExternal = "LLM generated – see summary."
)

// Reasoner is the external narrative generator.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Assessor produces risk summaries.
type Assessor struct {
	reasoner Reasoner
	logger   *slog.Logger
}

// New returns an Assessor. A nil reasoner selects the heuristic strategy.
func New(reasoner Reasoner, logger *slog.Logger) *Assessor {
	a := &Assessor{reasoner: reasoner, logger: logger.With("component", "risk")}
	a.logger.Info("risk strategy selected", "source", a.Source())
	return a
}

// Source reports which strategy this Assessor uses.
func (a *Assessor) Source() models.RiskSource {
	if a.reasoner == nil {
		return models.RiskSourceHeuristic
	}
	return models.RiskSourceLLM
}

// Assess summarizes the risk of e given its related entities. It performs no
// writes and caches nothing.
func (a *Assessor) Assess(ctx context.Context, e *models.Entity, related []models.Entity) (*models.RiskSummary, error) {
	if a.reasoner == nil {
		return Heuristic(e, related), nil
	}

	text, err := a.reasoner.Complete(ctx, BuildPrompt(e, related))
	if err != nil {
		a.logger.Error("reasoning call failed", "entity_id", e.ID, "error", err)
		return nil, fmt.Errorf("%w: entity %d: %w", ErrReasoning, e.ID, err)
	}

	return &models.RiskSummary{
		RiskLevel:  LevelExternal,
		Summary:    text,
		KeySignals: []string{SignalExternal},
		Source:     models.RiskSourceLLM,
	}, nil
}

// BuildPrompt renders the analyst prompt sent to the reasoning service.
func BuildPrompt(e *models.Entity, related []models.Entity) string {
	relatedText := "None"
	if len(related) > 0 {
		lines := make([]string, 0, len(related))
		for _, r := range related {
			lines = append(lines, fmt.Sprintf("- %s: %s (%s)", r.Type, r.Value, r.DescriptionOr("no description")))
		}
		relatedText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`
You are an analyst in a cyber intelligence team.

Entity:
    type: %s
    value: %s
    description: %s

Related entities:
%s

Task:
1. Rate overall risk as Low, Medium or High.
2. Give a short 3–4 line summary.
3. List 3 key signals justifying your assessment.
`, e.Type, e.Value, e.DescriptionOr("N/A"), relatedText)
}
