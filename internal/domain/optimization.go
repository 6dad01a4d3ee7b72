package domain

import "time"

// OptimizationResult is the output of a rule evaluation over an alert.
// Derived and recomputed on demand; not authoritative state.
type OptimizationResult struct {
	AlertID             string    `json:"alert_id,omitempty"`
	OriginalMatchScore  float64   `json:"original_match_score"`
	OriginalSafetyScore float64   `json:"original_safety_score"`
	SentimentScore      float64   `json:"sentiment_score"`     // [-1,1]
	WhaleConcentration  float64   `json:"whale_concentration"` // [0,1]
	MemeVirality        float64   `json:"meme_virality"`       // [0,1]
	MemeAgeHours        float64   `json:"meme_age_hours"`
	CoinAgeHours        float64   `json:"coin_age_hours"`
	BlacklistedKeywords []string  `json:"blacklisted_keywords"`
	ShouldTrigger       bool      `json:"should_trigger"`
	RejectionReasons    []string  `json:"rejection_reasons"` // one per failed rule, rule order
	OptimizedScore      float64   `json:"optimized_score"`   // [0,1]
	EvaluatedAt         time.Time `json:"evaluated_at"`
}
