// Package keyword provides BM25 keyword search over startups and spelling
// correction of queries against a term dictionary.
package keyword

import (
	"context"

	"github.com/hyperjump/foundermatch/internal/models"
)

// KeywordIndex defines keyword search operations over the startup corpus.
type KeywordIndex interface {
	// Replace swaps the whole indexed corpus for startups.
	Replace(ctx context.Context, startups []*models.Startup) error
	Search(ctx context.Context, query, industry string, limit int) ([]*KeywordResult, error)
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}

// TermDictionary provides the known terms for spell checking.
type TermDictionary interface {
	// GetAllTerms returns every known term.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the document frequency for a term.
	GetTermFrequency(term string) (int, error)
	ContainsTerm(term string) (bool, error)
}
