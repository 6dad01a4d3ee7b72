// Package matcher scores keywords against token names and symbols.
package matcher

import (
	"strings"

	"meme-token-radar/internal/domain"
)

// SignificantScore is the threshold below which callers treat a match as
// no significant match. The matcher itself returns raw scores; filtering
// is the caller's responsibility.
const SignificantScore = 0.5

// Result is the outcome of matching one keyword against one token.
type Result struct {
	Matched bool
	Score   float64 // [0,1]
	Type    domain.MatchType
}

// Match scores keyword against a token name and symbol.
// All inputs are compared case-insensitively.
//
// Exact match on either side scores 1.0. Substring containment scores
// max(len(keyword)/len(name), len(keyword)/len(symbol)) * 0.8, where the
// ratio is computed only for the side containing the keyword; the absent
// side contributes 0. No containment returns no match.
//
// Pure and deterministic: idempotent correlation IDs are derived from
// its output downstream.
func Match(keyword, name, symbol string) Result {
	kw := strings.ToLower(keyword)
	nameLower := strings.ToLower(name)
	symbolLower := strings.ToLower(symbol)

	if kw == "" {
		return Result{}
	}

	inName := nameLower != "" && strings.Contains(nameLower, kw)
	inSymbol := symbolLower != "" && strings.Contains(symbolLower, kw)
	if !inName && !inSymbol {
		return Result{}
	}

	if kw == nameLower {
		return Result{Matched: true, Score: 1.0, Type: domain.MatchTypeName}
	}
	if kw == symbolLower {
		return Result{Matched: true, Score: 1.0, Type: domain.MatchTypeSymbol}
	}

	var nameRatio, symbolRatio float64
	if inName {
		nameRatio = float64(len(kw)) / float64(len(nameLower))
	}
	if inSymbol {
		symbolRatio = float64(len(kw)) / float64(len(symbolLower))
	}

	score := nameRatio
	if symbolRatio > score {
		score = symbolRatio
	}
	score *= 0.8

	matchType := domain.MatchTypeSymbol
	if inName {
		matchType = domain.MatchTypeName
	}

	return Result{Matched: true, Score: score, Type: matchType}
}
