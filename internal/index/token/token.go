// Package token normalizes free text into a token sequence. The same
// function is used for corpus documents and incoming queries; BM25 scoring
// depends on that symmetry.
package token

import (
	"regexp"
	"strings"
)

// tokenPattern splits text into alphanumeric runs.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// stopWords are common English function words dropped from every token
// stream. The set is deliberately small; aggressive stopping hurts short
// product queries.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "their": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "were": {}, "will": {}, "with": {}, "you": {},
	"your": {},
}

// Tokenize lowercases text, extracts maximal alphanumeric runs, and drops
// stop words and single-character tokens. Pure and deterministic.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	matches := tokenPattern.FindAllString(lower, -1)

	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) <= 1 {
			continue
		}
		if _, stop := stopWords[m]; stop {
			continue
		}
		tokens = append(tokens, m)
	}
	return tokens
}
