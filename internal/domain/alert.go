package domain

import "time"

// AlertStatus is the lifecycle state of an alert.
// triggered and pending are active; dismissed and resolved are terminal
// for active tracking but remain queryable in the persisted store.
type AlertStatus string

const (
	AlertTriggered AlertStatus = "triggered"
	AlertPending   AlertStatus = "pending"
	AlertDismissed AlertStatus = "dismissed"
	AlertResolved  AlertStatus = "resolved"
)

// ValidAlertStatus reports whether s is a known alert status.
func ValidAlertStatus(s AlertStatus) bool {
	switch s {
	case AlertTriggered, AlertPending, AlertDismissed, AlertResolved:
		return true
	}
	return false
}

// Active reports whether s keeps an alert in the active set.
func (s AlertStatus) Active() bool {
	return s == AlertTriggered || s == AlertPending
}

// AlertMatch is the keyword match that triggered an alert.
type AlertMatch struct {
	Keyword string    `json:"keyword"`
	Score   float64   `json:"score"` // [0,1]
	Type    MatchType `json:"type"`
}

// SafetyReport is the on-chain safety assessment attached to an alert.
type SafetyReport struct {
	Score       float64  `json:"score"` // [0,1], higher is safer
	RiskFactors []string `json:"risk_factors"`
}

// Alert is a triggered, persisted notification that a signal and token
// appear linked above the match threshold. The signal and token are
// snapshots taken at creation time.
type Alert struct {
	ID           string              `json:"id"`
	Status       AlertStatus         `json:"status"`
	Signal       SocialSignal        `json:"signal"`
	Token        TokenRecord         `json:"token"`
	Match        AlertMatch          `json:"match"`
	Safety       SafetyReport        `json:"safety"`
	Keywords     []string            `json:"keywords"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    *time.Time          `json:"updated_at,omitempty"`
	Optimization *OptimizationResult `json:"optimization,omitempty"`
}
