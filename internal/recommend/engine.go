// Package recommend ranks startups against user search history, user profiles,
// and free-text queries using TF-IDF vectors and cosine similarity.
package recommend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/foundermatch/internal/models"
	"github.com/hyperjump/foundermatch/internal/tfidf"
	"github.com/hyperjump/foundermatch/internal/vector"
	"go.uber.org/zap"
)

// DefaultTopN is used when a caller asks for zero or fewer results.
const DefaultTopN = 5

var (
	// ErrNotInitialized is returned by queries before the first successful Initialize.
	ErrNotInitialized = errors.New("recommend: engine not initialized")
	// ErrEmptyCorpus is returned by Initialize when there are no startups.
	ErrEmptyCorpus = errors.New("recommend: empty startup corpus")
	// ErrEmptySearchHistory is returned when a profile has no queries to average.
	ErrEmptySearchHistory = errors.New("recommend: empty search history")
)

// Engine owns a fitted vectorizer and the cached vectors of a startup corpus.
//
// Queries read an immutable snapshot under a shared lock. Initialize builds the
// next snapshot without holding the lock and swaps it in under the exclusive
// lock, so readers never see a vocabulary that does not match the cached vectors.
type Engine struct {
	mu     sync.RWMutex
	state  *snapshot
	logger *zap.Logger
}

type snapshot struct {
	vectorizer *tfidf.Vectorizer
	startups   []*models.Startup
	byID       map[string]*models.Startup
	index      *vector.MemoryIndex
	fittedAt   time.Time
	// fallback marks a snapshot of the built-in dataset.
	fallback bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output (fits, query sizes).
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an uninitialized engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize fits the engine on startups, replacing any previous corpus, fit, and
// vectors. Each startup contributes one document built by Startup.Document. On
// error the previous state is kept.
func (e *Engine) Initialize(startups []*models.Startup) error {
	next, err := e.fit(startups)
	if err != nil {
		return err
	}
	e.install(next)
	return nil
}

// fit builds a snapshot for startups without touching the served state.
func (e *Engine) fit(startups []*models.Startup) (*snapshot, error) {
	if len(startups) == 0 {
		return nil, ErrEmptyCorpus
	}
	corpus := make([]*models.Startup, len(startups))
	copy(corpus, startups)

	documents := make([]string, len(corpus))
	ids := make([]string, len(corpus))
	byID := make(map[string]*models.Startup, len(corpus))
	for i, s := range corpus {
		documents[i] = s.Document()
		ids[i] = s.ID
		if _, dup := byID[s.ID]; !dup {
			byID[s.ID] = s
		}
	}

	vectorizer := tfidf.NewVectorizer()
	if err := vectorizer.Fit(documents); err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	vectors := make([][]float64, len(documents))
	for i, doc := range documents {
		vectors[i] = vectorizer.Transform(doc)
	}
	index, err := vector.NewMemoryIndex(vectorizer.VocabularySize())
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}
	if err := index.Add(ids, vectors); err != nil {
		return nil, fmt.Errorf("index corpus vectors: %w", err)
	}

	return &snapshot{
		vectorizer: vectorizer,
		startups:   corpus,
		byID:       byID,
		index:      index,
		fittedAt:   time.Now(),
	}, nil
}

// install swaps next in as the served snapshot.
func (e *Engine) install(next *snapshot) {
	e.mu.Lock()
	e.state = next
	e.mu.Unlock()

	e.logger.Debug("engine initialized",
		zap.Int("startups", len(next.startups)),
		zap.Int("vocabulary", next.vectorizer.VocabularySize()),
		zap.Bool("fallback", next.fallback))
}

func (e *Engine) current() (*snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return nil, ErrNotInitialized
	}
	return e.state, nil
}

// BuildUserProfile returns the element-wise mean of the TF-IDF vectors of every
// query in history.
func (e *Engine) BuildUserProfile(history models.SearchHistory) ([]float64, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	return st.userProfile(history)
}

func (st *snapshot) userProfile(history models.SearchHistory) ([]float64, error) {
	if len(history.Queries) == 0 {
		return nil, ErrEmptySearchHistory
	}
	vectors := make([][]float64, len(history.Queries))
	for i, q := range history.Queries {
		vectors[i] = st.vectorizer.Transform(q.Query)
	}
	return vector.Mean(vectors), nil
}

// RecommendStartups ranks the corpus against the mean vector of the profile's
// search history and returns the best topN. Ties keep corpus order.
func (e *Engine) RecommendStartups(profile models.UserProfile, topN int) ([]*models.ScoredStartup, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	query, err := st.userProfile(profile.SearchHistory)
	if err != nil {
		return nil, err
	}
	return st.rank(query, topN, nil)
}

// SearchStartups ranks the corpus against query and returns the best topN. When
// industry is non-empty only startups whose Industry equals it exactly are
// considered, and the filter applies before truncation.
func (e *Engine) SearchStartups(query, industry string, topN int) ([]*models.ScoredStartup, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	var keep func(int) bool
	if industry != "" {
		keep = func(i int) bool { return st.startups[i].Industry == industry }
	}
	return st.rank(st.vectorizer.Transform(query), topN, keep)
}

func (st *snapshot) rank(query []float64, topN int, keep func(int) bool) ([]*models.ScoredStartup, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	hits, err := st.index.Search(query, topN, keep)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ScoredStartup, len(hits))
	for i, h := range hits {
		out[i] = &models.ScoredStartup{
			Startup: st.startups[h.Position],
			Score:   h.Score,
			Rank:    i + 1,
		}
	}
	return out, nil
}

// Initialized reports whether the engine has a fitted corpus.
func (e *Engine) Initialized() bool {
	_, err := e.current()
	return err == nil
}

// Stats describes the current snapshot.
type Stats struct {
	Startups       int       `json:"startups"`
	VocabularySize int       `json:"vocabulary_size"`
	FittedAt       time.Time `json:"fitted_at"`
}

// Stats returns corpus and vocabulary sizes, or zero values when uninitialized.
func (e *Engine) Stats() Stats {
	st, err := e.current()
	if err != nil {
		return Stats{}
	}
	return Stats{
		Startups:       len(st.startups),
		VocabularySize: st.vectorizer.VocabularySize(),
		FittedAt:       st.fittedAt,
	}
}

// servingFallback reports whether the current snapshot holds the built-in dataset.
func (e *Engine) servingFallback() bool {
	st, err := e.current()
	return err == nil && st.fallback
}

// Lookup returns the startup with id from the current corpus.
func (e *Engine) Lookup(id string) (*models.Startup, bool) {
	st, err := e.current()
	if err != nil {
		return nil, false
	}
	s, ok := st.byID[id]
	return s, ok
}

// Startups returns the current corpus in order, or nil when uninitialized.
func (e *Engine) Startups() []*models.Startup {
	st, err := e.current()
	if err != nil {
		return nil
	}
	out := make([]*models.Startup, len(st.startups))
	copy(out, st.startups)
	return out
}

// Vocabulary returns the fitted tokens, or nil when uninitialized.
func (e *Engine) Vocabulary() []string {
	st, err := e.current()
	if err != nil {
		return nil
	}
	return st.vectorizer.Vocabulary()
}
