package nix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuessMatchesNumeric(t *testing.T) {
	t.Parallel()
	// digit-only guesses must match exactly - no fuzzy matching, so
	// "2" can't match "20"
	assert.True(t, guessMatches("4", "4"))
	assert.True(t, guessMatches("1889", "1889"))
	assert.False(t, guessMatches("2", "20"))
	assert.False(t, guessMatches("20", "2"))
	assert.False(t, guessMatches("1888", "1889"))
}

func TestGuessMatchesFuzzy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		guess  string
		answer string
		want   bool
	}{
		{"exact", "paris", "paris", true},
		{"case insensitive", "PARIS", "Paris", true},
		{"minor typo", "pariss", "Paris", true},
		{"single omission", "frace", "France", true},
		{"wrong answer", "london", "Paris", false},
		{"empty guess", "", "Paris", false},
		{
			"similarity exactly at threshold",
			"abcdx",
			"abcde",
			true,
		},
		{
			"similarity below threshold",
			"abcxx",
			"abcde",
			false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(
			tt.name,
			func(t *testing.T) {
				t.Parallel()
				assert.Equal(
					t,
					tt.want,
					guessMatches(tt.guess, tt.answer),
					"guess=%q answer=%q",
					tt.guess,
					tt.answer,
				)
			},
		)
	}
}

func TestIsDigits(t *testing.T) {
	t.Parallel()
	assert.True(t, isDigits("123"))
	assert.False(t, isDigits("12a"))
	assert.False(t, isDigits("1.5"))
	assert.False(t, isDigits(""))
	assert.True(t, isDigits("0"))
}
