package domain

import "time"

// CorrelationSource identifies how a correlation was derived.
type CorrelationSource string

const (
	SourceAlert  CorrelationSource = "alert"
	SourceManual CorrelationSource = "manual"
	SourceTweet  CorrelationSource = "tweet"
)

// ConfirmationStatus is the review state of a correlation.
type ConfirmationStatus string

const (
	StatusPotential ConfirmationStatus = "potential"
	StatusConfirmed ConfirmationStatus = "confirmed"
	StatusRejected  ConfirmationStatus = "rejected"
)

// ValidConfirmationStatus reports whether s is a known confirmation status.
func ValidConfirmationStatus(s ConfirmationStatus) bool {
	switch s {
	case StatusPotential, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// Correlation is a recorded association between a SocialSignal and a
// TokenRecord. ID is deterministic over (source, signal id, token address)
// so re-running correlation never produces duplicates.
type Correlation struct {
	ID                 string             `json:"id"`
	Source             CorrelationSource  `json:"source"`
	Signal             SocialSignal       `json:"signal"`
	Token              TokenRecord        `json:"token"`
	Keywords           []string           `json:"keywords"`
	MatchScore         float64            `json:"match_score"`     // [0,1]
	SentimentScore     float64            `json:"sentiment_score"` // [-1,1]
	ViralScore         float64            `json:"viral_score"`     // [0,1]
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          *time.Time         `json:"updated_at,omitempty"`
}
