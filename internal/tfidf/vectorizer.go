// Package tfidf provides a TF-IDF vectorizer over a fixed, fitted vocabulary.
//
// A Vectorizer is fitted once on a corpus; Transform then maps any text into a
// dense vector of length VocabularySize, weighting each in-vocabulary token by
// term frequency times inverse document frequency. Tokens that were not seen at
// fit time cannot be represented and are dropped.
package tfidf

import (
	"errors"
	"math"
)

// ErrEmptyCorpus is returned by Fit when there are no documents.
var ErrEmptyCorpus = errors.New("tfidf: empty corpus")

// Vectorizer holds a fitted vocabulary and IDF table.
// A Vectorizer is not safe for concurrent Fit; Transform on a fitted
// Vectorizer only reads and may be called concurrently.
type Vectorizer struct {
	vocabulary map[string]int
	terms      []string  // index -> token
	docFreq    []int     // index -> document frequency
	idf        []float64 // index -> idf
}

// NewVectorizer returns an unfitted Vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{vocabulary: make(map[string]int)}
}

// Fit builds the vocabulary and IDF table from documents, replacing any previous fit.
// Vocabulary indices follow first appearance. idf = ln(N / df), where df counts the
// documents containing a token at least once.
func (v *Vectorizer) Fit(documents []string) error {
	if len(documents) == 0 {
		return ErrEmptyCorpus
	}

	vocabulary := make(map[string]int)
	var terms []string
	var docFreq []int
	for _, doc := range documents {
		seen := make(map[string]struct{})
		for _, token := range Tokenize(doc) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			idx, ok := vocabulary[token]
			if !ok {
				idx = len(terms)
				vocabulary[token] = idx
				terms = append(terms, token)
				docFreq = append(docFreq, 0)
			}
			docFreq[idx]++
		}
	}

	n := float64(len(documents))
	idf := make([]float64, len(terms))
	for i, df := range docFreq {
		idf[i] = math.Log(n / float64(df))
	}

	v.vocabulary = vocabulary
	v.terms = terms
	v.docFreq = docFreq
	v.idf = idf
	return nil
}

// Transform returns the TF-IDF vector of document. The vector has VocabularySize
// entries; an unfitted Vectorizer yields an empty vector.
func (v *Vectorizer) Transform(document string) []float64 {
	vec := make([]float64, len(v.terms))
	if len(vec) == 0 {
		return vec
	}
	termFreq := make(map[int]int)
	for _, token := range Tokenize(document) {
		if idx, ok := v.vocabulary[token]; ok {
			termFreq[idx]++
		}
	}
	for idx, tf := range termFreq {
		vec[idx] = float64(tf) * v.idf[idx]
	}
	return vec
}

// Fitted reports whether Fit has succeeded at least once.
func (v *Vectorizer) Fitted() bool {
	return v.idf != nil
}

// VocabularySize returns the number of distinct tokens seen at fit time.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Vocabulary returns the fitted tokens in index order.
func (v *Vectorizer) Vocabulary() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Index returns the vector position of token.
func (v *Vectorizer) Index(token string) (int, bool) {
	idx, ok := v.vocabulary[token]
	return idx, ok
}

// DocumentFrequency returns the number of fitted documents containing token.
func (v *Vectorizer) DocumentFrequency(token string) (int, bool) {
	idx, ok := v.vocabulary[token]
	if !ok {
		return 0, false
	}
	return v.docFreq[idx], true
}

// IDF returns the inverse document frequency of token.
func (v *Vectorizer) IDF(token string) (float64, bool) {
	idx, ok := v.vocabulary[token]
	if !ok {
		return 0, false
	}
	return v.idf[idx], true
}
