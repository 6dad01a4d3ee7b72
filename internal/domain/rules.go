package domain

import "fmt"

// Rule names accepted by RuleSet.Update.
const (
	RuleMinimumMatchScore         = "minimum_match_score"
	RuleMinimumSafetyScore        = "minimum_safety_score"
	RuleMaximumWhaleConcentration = "maximum_whale_concentration"
	RuleMinimumSentimentScore     = "minimum_sentiment_score"
	RuleMinimumMemeVirality       = "minimum_meme_virality"
	RuleKeywordBlacklist          = "keyword_blacklist"
	RuleMinimumMemeAgeHours       = "minimum_meme_age_hours"
	RuleMinimumCoinAgeHours       = "minimum_coin_age_hours"
)

// RuleSet holds the thresholds used by the alert optimizer.
// Persisted as a single flat JSON document.
type RuleSet struct {
	MinimumMatchScore         float64  `json:"minimum_match_score"`
	MinimumSafetyScore        float64  `json:"minimum_safety_score"`
	MaximumWhaleConcentration float64  `json:"maximum_whale_concentration"` // fraction, not percent
	MinimumSentimentScore     float64  `json:"minimum_sentiment_score"`
	MinimumMemeVirality       float64  `json:"minimum_meme_virality"`
	KeywordBlacklist          []string `json:"keyword_blacklist"`
	MinimumMemeAgeHours       float64  `json:"minimum_meme_age_hours"`
	MinimumCoinAgeHours       float64  `json:"minimum_coin_age_hours"`
}

// DefaultRules returns the stock rule set.
func DefaultRules() RuleSet {
	return RuleSet{
		MinimumMatchScore:         0.6,
		MinimumSafetyScore:        0.4,
		MaximumWhaleConcentration: 0.8,
		MinimumSentimentScore:     -0.5, // somewhat negative sentiment is tolerated
		MinimumMemeVirality:       0.3,
		KeywordBlacklist:          []string{"scam", "rugpull", "fake", "honeypot"},
		MinimumMemeAgeHours:       0,
		MinimumCoinAgeHours:       0,
	}
}

// Update sets the named rule to value. The name must be a known rule and
// the value's type must match the rule's type exactly (float64 for
// thresholds, []string for the blacklist). On any mismatch the rule set
// is left unchanged and an error is returned.
func (r *RuleSet) Update(name string, value any) error {
	switch name {
	case RuleMinimumMatchScore, RuleMinimumSafetyScore, RuleMaximumWhaleConcentration,
		RuleMinimumSentimentScore, RuleMinimumMemeVirality,
		RuleMinimumMemeAgeHours, RuleMinimumCoinAgeHours:
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("rule %s: expected float64, got %T", name, value)
		}
		switch name {
		case RuleMinimumMatchScore:
			r.MinimumMatchScore = f
		case RuleMinimumSafetyScore:
			r.MinimumSafetyScore = f
		case RuleMaximumWhaleConcentration:
			r.MaximumWhaleConcentration = f
		case RuleMinimumSentimentScore:
			r.MinimumSentimentScore = f
		case RuleMinimumMemeVirality:
			r.MinimumMemeVirality = f
		case RuleMinimumMemeAgeHours:
			r.MinimumMemeAgeHours = f
		case RuleMinimumCoinAgeHours:
			r.MinimumCoinAgeHours = f
		}
		return nil

	case RuleKeywordBlacklist:
		list, ok := value.([]string)
		if !ok {
			return fmt.Errorf("rule %s: expected []string, got %T", name, value)
		}
		r.KeywordBlacklist = append([]string(nil), list...)
		return nil

	default:
		return fmt.Errorf("unknown rule: %s", name)
	}
}
