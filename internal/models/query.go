package models

import (
	"strings"

	"github.com/hyperjump/foundermatch/internal/validation"
)

const (
	// DefaultLimit is the number of results returned when a request does not set one.
	DefaultLimit = 5
	// MaxLimit caps the number of results of a single request.
	MaxLimit = 100
)

// SearchRequest is a free-text startup search with an optional exact industry filter.
type SearchRequest struct {
	Query    string `json:"query" validate:"required,max=500"`
	Industry string `json:"industry,omitempty" validate:"max=100"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0"`
	UserID   string `json:"user_id,omitempty" validate:"max=128"`
	Fuzzy    bool   `json:"fuzzy,omitempty"` // correct misspelled terms before searching
}

// Validate trims the query, checks field rules, and normalizes the limit.
func (q *SearchRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if err := validation.ValidateStruct(q); err != nil {
		return err
	}
	q.Limit = normalizeLimit(q.Limit)
	return nil
}

// RecommendRequest asks for recommendations for a profile. When the profile carries
// no search history and UserID is set, the stored history of that user is used.
type RecommendRequest struct {
	UserID  string       `json:"user_id,omitempty" validate:"max=128"`
	Profile *UserProfile `json:"profile,omitempty"`
	Limit   int          `json:"limit,omitempty" validate:"gte=0"`
}

// Validate checks field rules and normalizes the limit.
func (r *RecommendRequest) Validate() error {
	if err := validation.ValidateStruct(r); err != nil {
		return err
	}
	r.Limit = normalizeLimit(r.Limit)
	return nil
}

// KeywordSearchRequest is a BM25 search over the startup corpus.
type KeywordSearchRequest struct {
	Query    string `json:"query" validate:"required,max=500"`
	Industry string `json:"industry,omitempty" validate:"max=100"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0"`
}

// Validate trims the query, checks field rules, and normalizes the limit.
func (q *KeywordSearchRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if err := validation.ValidateStruct(q); err != nil {
		return err
	}
	q.Limit = normalizeLimit(q.Limit)
	return nil
}

// HybridSearchRequest fuses TF-IDF similarity with BM25 keyword scores. Nil
// weights default to 0.5 each.
type HybridSearchRequest struct {
	Query          string   `json:"query" validate:"required,max=500"`
	Industry       string   `json:"industry,omitempty" validate:"max=100"`
	Limit          int      `json:"limit,omitempty" validate:"gte=0"`
	KeywordWeight  *float64 `json:"keyword_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
	SemanticWeight *float64 `json:"semantic_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// DefaultFusionWeight is the keyword and semantic weight used when a hybrid
// request leaves it unset.
const DefaultFusionWeight = 0.5

// Validate trims the query, checks field rules, normalizes the limit and fills
// in default weights.
func (q *HybridSearchRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if err := validation.ValidateStruct(q); err != nil {
		return err
	}
	q.Limit = normalizeLimit(q.Limit)
	if q.KeywordWeight == nil {
		w := DefaultFusionWeight
		q.KeywordWeight = &w
	}
	if q.SemanticWeight == nil {
		w := DefaultFusionWeight
		q.SemanticWeight = &w
	}
	return nil
}

func normalizeLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// HistoryRequest appends one query to a user's search history.
type HistoryRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// Validate trims the query and checks field rules.
func (h *HistoryRequest) Validate() error {
	h.Query = strings.TrimSpace(h.Query)
	return validation.ValidateStruct(h)
}
