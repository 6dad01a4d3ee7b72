// Package keywords extracts candidate coin keywords from social text.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

var hashtagRe = regexp.MustCompile(`#(\w+)`)

// Common words that never name a coin. Kept short on purpose: false
// positives are cheap because the matcher filters against real token
// names downstream.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "this": {}, "that": {}, "with": {},
	"just": {}, "like": {}, "about": {}, "going": {}, "what": {}, "when": {},
	"where": {}, "will": {}, "have": {}, "has": {}, "its": {}, "it's": {},
	"you": {}, "your": {}, "all": {}, "are": {}, "was": {}, "were": {},
	"not": {}, "but": {}, "can": {}, "out": {}, "get": {}, "got": {},
	"one": {}, "new": {}, "now": {}, "look": {}, "very": {}, "much": {},
	"from": {}, "they": {}, "them": {}, "there": {}, "here": {}, "more": {},
}

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9']*`)

// Extract returns normalized keywords from content: hashtags first, then
// words of three or more characters that are not stopwords. Results are
// lowercased, deduplicated, and sorted for deterministic output.
func Extract(content string) []string {
	seen := make(map[string]struct{})
	var keywords []string

	add := func(kw string) {
		kw = strings.ToLower(kw)
		if len(kw) < 3 {
			return
		}
		if _, stop := stopwords[kw]; stop {
			return
		}
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	for _, m := range hashtagRe.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	for _, w := range wordRe.FindAllString(content, -1) {
		add(w)
	}

	sort.Strings(keywords)
	return keywords
}
