package models

// ScoredStartup is a ranked hit: the startup, its similarity score, and its 1-based rank.
type ScoredStartup struct {
	Startup *Startup `json:"startup"`
	Score   float64  `json:"score"`
	Rank    int      `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*ScoredStartup `json:"results"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
	Query     string           `json:"query"`
	Industry  string           `json:"industry,omitempty"`
	// CorrectedQuery is the query actually searched when spelling correction changed it.
	CorrectedQuery string   `json:"corrected_query,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	// AutoFuzzy indicates that correction was applied automatically because the
	// exact query matched nothing in the vocabulary.
	AutoFuzzy bool `json:"auto_fuzzy,omitempty"`
}

// RecommendResponse is the response for a recommendation request.
type RecommendResponse struct {
	Results   []*ScoredStartup `json:"results"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
	// Basis says what the ranking was built from: "search_history", "skills" or "preferences".
	Basis string `json:"basis"`
	// Terms holds the profile search terms when Basis is not "search_history".
	Terms string `json:"terms,omitempty"`
}

// KeywordResult is a single BM25 hit.
type KeywordResult struct {
	Startup *Startup `json:"startup"`
	Score   float64  `json:"score"`
	Rank    int      `json:"rank"`
}

// KeywordResponse is the response for a keyword search request.
type KeywordResponse struct {
	Results   []*KeywordResult `json:"results"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
	Query     string           `json:"query"`
}

// HybridResult is a startup ranked by the weighted sum of its normalized BM25
// score and its TF-IDF cosine similarity.
type HybridResult struct {
	Startup       *Startup `json:"startup"`
	Score         float64  `json:"score"`
	KeywordScore  float64  `json:"keyword_score"`
	SemanticScore float64  `json:"semantic_score"`
	Rank          int      `json:"rank"`
}

// HybridResponse is the response for a hybrid search request.
type HybridResponse struct {
	Results        []*HybridResult `json:"results"`
	Total          int             `json:"total"`
	QueryTime      int64           `json:"query_time_ms"`
	Query          string          `json:"query"`
	KeywordWeight  float64         `json:"keyword_weight"`
	SemanticWeight float64         `json:"semantic_weight"`
}
