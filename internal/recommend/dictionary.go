package recommend

import (
	"github.com/hyperjump/foundermatch/internal/keyword"
	"github.com/hyperjump/foundermatch/internal/tfidf"
)

// vocabularyDictionary exposes a fitted vocabulary as a spell-check dictionary.
type vocabularyDictionary struct {
	vectorizer *tfidf.Vectorizer
}

func (d vocabularyDictionary) GetAllTerms() ([]string, error) {
	return d.vectorizer.Vocabulary(), nil
}

func (d vocabularyDictionary) GetTermFrequency(term string) (int, error) {
	df, _ := d.vectorizer.DocumentFrequency(term)
	return df, nil
}

func (d vocabularyDictionary) ContainsTerm(term string) (bool, error) {
	_, ok := d.vectorizer.Index(term)
	return ok, nil
}

// Dictionary returns the fitted vocabulary of the current snapshot as a term
// dictionary for spell checking.
func (e *Engine) Dictionary() (keyword.TermDictionary, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	return st.dictionary(), nil
}

func (st *snapshot) dictionary() keyword.TermDictionary {
	return vocabularyDictionary{vectorizer: st.vectorizer}
}
