package models

// RiskSource identifies which strategy produced a RiskSummary.
type RiskSource string

const (
	RiskSourceHeuristic RiskSource = "heuristic"
	RiskSourceLLM       RiskSource = "llm"
)

// RiskSummary is a derived, never persisted verdict for one entity.
type RiskSummary struct {
	RiskLevel  string     `json:"risk_level"`
	Summary    string     `json:"summary"`
	KeySignals []string   `json:"key_signals"`
	Source     RiskSource `json:"source"`
}

// SimilarEntity pairs an entity with its similarity score for a query.
type SimilarEntity struct {
	Entity Entity  `json:"entity"`
	Score  float64 `json:"score"`
}
