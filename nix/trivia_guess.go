package nix

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// guessSimilarityThreshold is the minimum normalized similarity for a
// non-numeric guess to count as correct.
const guessSimilarityThreshold = 0.8

// guessMatches reports whether a free-text guess matches the answer.
//
// Digit-only guesses must match the answer exactly - "2" must not
// match "20". Anything else is compared case-insensitively with a
// normalized Levenshtein similarity, so minor typos still count.
func guessMatches(guess string, answer string) bool {
	if guess == "" {
		return false
	}
	if isDigits(guess) {
		return guess == answer
	}
	similarity := strutil.Similarity(
		strings.ToLower(answer),
		strings.ToLower(guess),
		metrics.NewLevenshtein(),
	)
	return similarity >= guessSimilarityThreshold
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
