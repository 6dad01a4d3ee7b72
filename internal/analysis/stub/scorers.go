// Package stub provides deterministic fake scorers for tests and local
// runs without external collaborators. Scores are derived by hashing the
// inputs, so the same signal or token always scores the same. Never use
// these as production logic.
package stub

import (
	"context"
	"hash/fnv"
	"strings"

	"meme-token-radar/internal/analysis"
)

// unit maps a hash of the inputs onto [0, 1).
func unit(parts ...string) float64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return float64(h.Sum64()%10000) / 10000
}

// SentimentAnalyzer is a deterministic fake returning values in [-1, 1].
// Err, if set, is returned on every call.
type SentimentAnalyzer struct {
	Err error
}

func (a *SentimentAnalyzer) Analyze(_ context.Context, text string) (float64, error) {
	if a.Err != nil {
		return 0, a.Err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return unit("sentiment", text)*2 - 1, nil
}

// ViralityPredictor is a deterministic fake returning values in [0, 1].
type ViralityPredictor struct {
	Err error
}

func (p *ViralityPredictor) Predict(_ context.Context, text, author string) (float64, error) {
	if p.Err != nil {
		return 0, p.Err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return unit("virality", text, author), nil
}

// SafetyAnalyzer is a deterministic fake keyed by token address.
type SafetyAnalyzer struct {
	Err error
}

func (a *SafetyAnalyzer) Analyze(_ context.Context, address, blockchain string) (*analysis.SafetyResult, error) {
	if a.Err != nil {
		return nil, a.Err
	}

	score := unit("safety", address, blockchain)
	var factors []string
	if score < 0.5 {
		factors = append(factors, "New Contract")
	}
	if score < 0.3 {
		factors = append(factors, "Ownership Not Renounced")
	}
	return &analysis.SafetyResult{OverallScore: score, RiskFactors: factors}, nil
}

// WhaleAnalyzer is a deterministic fake keyed by token address.
type WhaleAnalyzer struct {
	Err error
}

func (a *WhaleAnalyzer) Analyze(_ context.Context, address, blockchain string) (*analysis.WhaleResult, error) {
	if a.Err != nil {
		return nil, a.Err
	}

	top5 := unit("whale", address, blockchain) * 100
	top1 := top5 * 0.4
	return &analysis.WhaleResult{
		TopHolderPercentage: top1,
		Top5Percentage:      top5,
		HolderCount:         50 + int(unit("holders", address)*1000),
	}, nil
}

// Verify interface compliance at compile time.
var (
	_ analysis.SentimentAnalyzer = (*SentimentAnalyzer)(nil)
	_ analysis.ViralityPredictor = (*ViralityPredictor)(nil)
	_ analysis.SafetyAnalyzer    = (*SafetyAnalyzer)(nil)
	_ analysis.WhaleAnalyzer     = (*WhaleAnalyzer)(nil)
)
