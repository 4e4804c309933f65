package models

// BehaviorPattern is a detected risk flag or healthy-habit affirmation.
// IsPositive distinguishes the two: positive patterns never contribute to
// the aggregate risk level.
type BehaviorPattern struct {
	PatternType PatternType        `json:"pattern_type"`
	Description string             `json:"description"`
	Severity    RiskLevel          `json:"severity"`
	Details     map[string]float64 `json:"details"`
	IsPositive  bool               `json:"is_positive"`
}

// BehaviorResult is the aggregate output of a behavior analysis run.
type BehaviorResult struct {
	Patterns        []BehaviorPattern `json:"patterns"`
	RiskLevel       RiskLevel         `json:"risk_level"`
	CoachingMessage string            `json:"coaching_message"`
	Summary         string            `json:"summary"`
}

// NegativeCount returns the number of detected risk flags.
func (r *BehaviorResult) NegativeCount() int {
	n := 0
	for _, p := range r.Patterns {
		if !p.IsPositive {
			n++
		}
	}
	return n
}

// PositiveCount returns the number of healthy-habit affirmations.
func (r *BehaviorResult) PositiveCount() int {
	return len(r.Patterns) - r.NegativeCount()
}
