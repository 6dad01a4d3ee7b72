package matcher

import (
	"sort"

	"meme-token-radar/internal/domain"
)

// FindMatches matches a keyword set against a list of tokens.
// Each token is matched at most once: the first keyword that produces any
// match claims the token and further keywords are not tried. Results are
// sorted by score descending. Scores are raw; callers apply their own
// acceptance threshold.
func FindMatches(keywords []string, tokens []*domain.TokenRecord) []*domain.TokenMatch {
	var matches []*domain.TokenMatch

	for _, token := range tokens {
		for _, keyword := range keywords {
			res := Match(keyword, token.Name, token.Symbol)
			if !res.Matched {
				continue
			}

			matches = append(matches, &domain.TokenMatch{
				Token:   *token,
				Keyword: keyword,
				Score:   res.Score,
				Type:    res.Type,
			})
			break
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}
