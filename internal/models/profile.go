package models

import "time"

// SearchQuery is one entry of a user's search history.
type SearchQuery struct {
	Query     string `json:"query" yaml:"query"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"` // unix milliseconds
}

// SearchHistory is the ordered list of a user's past queries, oldest first.
type SearchHistory struct {
	UserID  string        `json:"user_id,omitempty"`
	Queries []SearchQuery `json:"queries"`
}

// Texts returns the free-text query of every history entry.
func (h SearchHistory) Texts() []string {
	out := make([]string, len(h.Queries))
	for i, q := range h.Queries {
		out[i] = q.Query
	}
	return out
}

// Preferences are the industries and tags a user said they care about.
type Preferences struct {
	Industries []string `json:"industries,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// UserProfile is what the recommender knows about a user. Either the skills
// fields or the preferences may be set; the recommend package turns whichever
// is present into search terms.
type UserProfile struct {
	ID            string        `json:"id,omitempty"`
	SearchHistory SearchHistory `json:"search_history"`
	Preferences   *Preferences  `json:"preferences,omitempty"`
	Skills        []string      `json:"skills,omitempty"`
	Interests     []string      `json:"interests,omitempty"`
	Role          string        `json:"role,omitempty"`
}

// NewSearchQuery returns a history entry stamped with t.
func NewSearchQuery(query string, t time.Time) SearchQuery {
	return SearchQuery{Query: query, Timestamp: t.UnixMilli()}
}
