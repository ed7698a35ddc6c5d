package tfidf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and splits", "Smart Farming IoT", []string{"smart", "farming", "iot"}},
		{"strips punctuation", "AI-driven, cutting-edge drugs!", []string{"aidriven", "cuttingedge", "drugs"}},
		{"drops short tokens", "an AI to go far", []string{"far"}},
		{"keeps repeats", "farm farm farm", []string{"farm", "farm", "farm"}},
		{"keeps digits and underscore", "web3 snake_case 42", []string{"web3", "snake_case"}},
		{"collapses whitespace runs", "  remote\t\npatient   care ", []string{"remote", "patient", "care"}},
		{"drops non-ascii letters", "café naïve", []string{"caf", "nave"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	in := "Remote patient monitoring, telemedicine & diagnostics"
	assert.Equal(t, Tokenize(in), Tokenize(in))
}
