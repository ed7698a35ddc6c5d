package keyword

import (
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/foundermatch/internal/tfidf"
)

// Suggestion is one candidate replacement for a misspelled term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Ratio     float64 `json:"ratio"`
}

// SpellCheckResult is the outcome of checking a query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []Suggestion
	HasCorrections  bool
	MisspelledTerms []string
}

// SpellChecker corrects query terms against a TermDictionary using
// Damerau-Levenshtein distance.
type SpellChecker struct {
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu    sync.RWMutex
	dict  TermDictionary
	terms []string
	known map[string]struct{}
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms seen in fewer than f documents.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps the suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker returns a checker with no dictionary; call Reset before Check
// to get corrections.
func NewSpellChecker(opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		known:          map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset loads the terms of dict, replacing the previous dictionary.
func (s *SpellChecker) Reset(dict TermDictionary) error {
	terms, err := dict.GetAllTerms()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		known[strings.ToLower(t)] = struct{}{}
	}
	s.mu.Lock()
	s.dict = dict
	s.terms = terms
	s.known = known
	s.mu.Unlock()
	return nil
}

// Size returns the number of dictionary terms.
func (s *SpellChecker) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms)
}

// Check tokenizes query the way the vectorizer does and replaces every unknown
// token with its best suggestion. Tokens without a suggestion are kept.
func (s *SpellChecker) Check(query string) *SpellCheckResult {
	result := &SpellCheckResult{
		OriginalQuery:   query,
		Suggestions:     []Suggestion{},
		MisspelledTerms: []string{},
	}
	tokens := tfidf.Tokenize(query)
	corrected := make([]string, 0, len(tokens))

	s.mu.RLock()
	known := s.known
	s.mu.RUnlock()

	for _, tok := range tokens {
		if _, ok := known[tok]; ok {
			corrected = append(corrected, tok)
			continue
		}
		suggestions := s.Suggest(tok)
		if len(suggestions) == 0 {
			corrected = append(corrected, tok)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, tok)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}
	result.CorrectedQuery = strings.Join(corrected, " ")
	return result
}

// Suggest returns dictionary terms within the maximum distance of term, best
// first: smaller distance, then higher frequency, then higher ratio, then
// alphabetical.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	term = strings.ToLower(term)

	s.mu.RLock()
	dict, terms := s.dict, s.terms
	s.mu.RUnlock()
	if dict == nil {
		return nil
	}

	termLen := len([]rune(term))
	var out []Suggestion
	for _, candidate := range terms {
		lower := strings.ToLower(candidate)
		if lower == term {
			continue
		}
		diff := len([]rune(lower)) - termLen
		if diff < 0 {
			diff = -diff
		}
		if diff > s.maxDistance {
			continue
		}
		distance := DamerauLevenshteinDistance(term, lower)
		if distance > s.maxDistance {
			continue
		}
		freq, err := dict.GetTermFrequency(candidate)
		if err != nil || freq < s.minFreq {
			continue
		}
		out = append(out, Suggestion{
			Term:      lower,
			Distance:  distance,
			Frequency: freq,
			Ratio:     Ratio(term, lower),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if a.Ratio != b.Ratio {
			return a.Ratio > b.Ratio
		}
		return a.Term < b.Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}
