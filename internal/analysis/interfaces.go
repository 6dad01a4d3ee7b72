// Package analysis declares the external scoring collaborators consumed
// by the correlation engine and the alert optimizer. Implementations are
// out of scope here; deterministic fakes live in the stub subpackage.
package analysis

import "context"

// SentimentAnalyzer scores text sentiment in [-1, 1].
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (float64, error)
}

// ViralityPredictor predicts spread likelihood in [0, 1].
// Author is optional and may be empty.
type ViralityPredictor interface {
	Predict(ctx context.Context, text, author string) (float64, error)
}

// SafetyResult is the output of a contract safety analysis.
type SafetyResult struct {
	OverallScore float64  // [0,1], higher is safer
	RiskFactors  []string
}

// SafetyAnalyzer analyzes a token contract for scam indicators.
type SafetyAnalyzer interface {
	Analyze(ctx context.Context, address, blockchain string) (*SafetyResult, error)
}

// WhaleResult is the output of a holder concentration analysis.
type WhaleResult struct {
	TopHolderPercentage float64 // [0,100]
	Top5Percentage      float64 // [0,100]
	HolderCount         int
}

// WhaleAnalyzer analyzes holder concentration for a token.
type WhaleAnalyzer interface {
	Analyze(ctx context.Context, address, blockchain string) (*WhaleResult, error)
}
