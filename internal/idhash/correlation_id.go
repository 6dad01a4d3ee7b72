// Package idhash computes deterministic correlation identifiers.
//
// Correlation IDs are a pure function of their inputs so that re-running
// the correlation engine over the same signals and tokens can never
// produce duplicate records. The full set of existing IDs is loaded
// before a batch generates new ones.
package idhash

import (
	"fmt"

	"meme-token-radar/internal/domain"
)

// AlertCorrelationID returns the correlation ID for an alert-derived
// correlation. Formula: "alert-" + alert ID.
func AlertCorrelationID(alertID string) string {
	return "alert-" + alertID
}

// CorrelationID computes the deterministic ID for an engine-derived
// correlation. Formula: "<source>-<signalID>-<tokenAddress>".
func CorrelationID(source domain.CorrelationSource, signalID, tokenAddress string) string {
	return fmt.Sprintf("%s-%s-%s", source, signalID, tokenAddress)
}
