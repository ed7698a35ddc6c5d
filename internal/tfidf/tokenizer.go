package tfidf

import (
	"strings"
	"unicode"
)

// MinTokenLength is the shortest token kept by Tokenize; shorter ones are dropped.
const MinTokenLength = 3

// Tokenize lowercases text, removes every rune that is neither an ASCII word
// character ([A-Za-z0-9_]) nor whitespace, splits on whitespace runs, and
// drops tokens shorter than MinTokenLength. Repeated tokens are kept.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(text))

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
