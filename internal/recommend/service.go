package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/foundermatch/internal/config"
	"github.com/hyperjump/foundermatch/internal/corpus"
	"github.com/hyperjump/foundermatch/internal/keyword"
	"github.com/hyperjump/foundermatch/internal/metrics"
	"github.com/hyperjump/foundermatch/internal/models"
	"github.com/hyperjump/foundermatch/internal/storage"
)

// BasisSearchHistory is the RecommendResponse.Basis of history-based rankings.
// Profile-based rankings report ProfileKind.String().
const BasisSearchHistory = "search_history"

// Service is the application layer over the engine: it loads the corpus from
// storage, keeps the keyword index and spell checker in step with the engine,
// and records search history.
type Service struct {
	engine   *Engine
	storage  storage.Storage
	keywords keyword.KeywordIndex
	spell    *keyword.SpellChecker
	config   *config.RecommendConfig
	fallback bool
	logger   *zap.Logger

	reloadMu sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithFallback serves the built-in dataset while storage holds no startups.
func WithFallback(enabled bool) ServiceOption {
	return func(s *Service) { s.fallback = enabled }
}

// NewService wires engine, storage and keyword index together. cfg must have
// defaults applied.
func NewService(
	engine *Engine,
	store storage.Storage,
	keywords keyword.KeywordIndex,
	cfg *config.RecommendConfig,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		engine:   engine,
		storage:  store,
		keywords: keywords,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.spell = keyword.NewSpellChecker(keyword.WithMaxDistance(cfg.SpellMaxDistance))
	return s
}

// Engine returns the underlying engine.
func (s *Service) Engine() *Engine { return s.engine }

// Reload refits the engine on every stored startup in insertion order, then
// rebuilds the keyword index and the spelling dictionary. When storage is empty
// and the fallback is enabled the built-in dataset is used instead. The new fit
// is served only once every step has succeeded; on error the previous engine
// state keeps serving and the keyword index is restored to its corpus.
func (s *Service) Reload(ctx context.Context) (Stats, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	stats, err := s.reload(ctx)
	metrics.RecordReload(time.Since(start), stats.Startups, stats.VocabularySize, err)
	if err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		return s.engine.Stats(), err
	}
	s.logger.Info("corpus reloaded",
		zap.Int("startups", stats.Startups),
		zap.Int("vocabulary", stats.VocabularySize),
		zap.Bool("fallback", s.UsingFallback()),
		zap.Duration("took", time.Since(start)))
	return stats, nil
}

func (s *Service) reload(ctx context.Context) (Stats, error) {
	startups, err := s.storage.AllStartups(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load startups: %w", err)
	}
	fallback := false
	if len(startups) == 0 && s.fallback {
		startups, err = corpus.Fallback()
		if err != nil {
			return Stats{}, err
		}
		fallback = true
		s.logger.Warn("no startups in storage, serving the built-in dataset",
			zap.Int("startups", len(startups)))
	}

	next, err := s.engine.fit(startups)
	if err != nil {
		return Stats{}, err
	}
	next.fallback = fallback

	if err := s.keywords.Replace(ctx, startups); err != nil {
		s.restoreKeywords()
		return Stats{}, fmt.Errorf("rebuild keyword index: %w", err)
	}
	if err := s.spell.Reset(next.dictionary()); err != nil {
		s.restoreKeywords()
		return Stats{}, fmt.Errorf("refresh spelling dictionary: %w", err)
	}
	s.engine.install(next)
	return s.engine.Stats(), nil
}

// restoreKeywords reindexes the corpus the engine still serves after a failed
// reload touched the keyword index.
func (s *Service) restoreKeywords() {
	served := s.engine.Startups()
	if len(served) == 0 {
		return
	}
	if err := s.keywords.Replace(context.Background(), served); err != nil {
		s.logger.Error("failed to restore keyword index", zap.Error(err))
	}
}

// limit applies the configured default and cap to a requested result count.
func (s *Service) limit(requested int) int {
	if requested <= 0 {
		requested = s.config.DefaultTopN
	}
	if requested > s.config.MaxTopN {
		requested = s.config.MaxTopN
	}
	return requested
}

// Search ranks the corpus against the request query. With Fuzzy set the query
// is spelling-corrected first; otherwise, when auto-fuzzy is enabled and nothing
// scored above zero, the corrected query is tried once. The original query is
// recorded in the user's history when UserID is set.
func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (resp *models.SearchResponse, err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("search", time.Since(start), err) }()

	req.Limit = s.limit(req.Limit)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	limit := req.Limit

	resp = &models.SearchResponse{Query: req.Query, Industry: req.Industry}
	query := req.Query
	if req.Fuzzy {
		if check := s.spell.Check(query); check.HasCorrections {
			query = check.CorrectedQuery
			resp.CorrectedQuery = query
			resp.Suggestions = suggestionTerms(check)
			metrics.SpellCorrections.WithLabelValues("requested").Inc()
		}
	}

	results, err := s.engine.SearchStartups(query, req.Industry, limit)
	if err != nil {
		return nil, err
	}

	if !req.Fuzzy && s.config.AutoFuzzyOrDefault() && allZero(results) {
		if check := s.spell.Check(query); check.HasCorrections {
			retry, retryErr := s.engine.SearchStartups(check.CorrectedQuery, req.Industry, limit)
			if retryErr == nil && !allZero(retry) {
				results = retry
				resp.CorrectedQuery = check.CorrectedQuery
				resp.Suggestions = suggestionTerms(check)
				resp.AutoFuzzy = true
				metrics.SpellCorrections.WithLabelValues("auto").Inc()
				s.logger.Debug("auto fuzzy applied",
					zap.String("query", req.Query),
					zap.String("corrected", check.CorrectedQuery))
			}
		}
	}

	if req.UserID != "" {
		if recErr := s.RecordSearch(ctx, req.UserID, req.Query); recErr != nil {
			s.logger.Warn("failed to record search", zap.String("user_id", req.UserID), zap.Error(recErr))
		}
	}

	resp.Results = results
	resp.Total = len(results)
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// Recommend ranks the corpus for a user. Search history comes from the request
// profile, or from storage for the user when the profile carries none. Without
// any history the profile's skills or preferences are used as a search query.
// ErrEmptySearchHistory is returned when none of these yield anything.
func (s *Service) Recommend(ctx context.Context, req *models.RecommendRequest) (resp *models.RecommendResponse, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrEmptySearchHistory) {
			metrics.RecordOperation("recommend", time.Since(start), metrics.ErrEmpty)
			return
		}
		metrics.RecordOperation("recommend", time.Since(start), err)
	}()

	req.Limit = s.limit(req.Limit)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	limit := req.Limit

	var history models.SearchHistory
	userID := req.UserID
	if req.Profile != nil {
		history = req.Profile.SearchHistory
		if userID == "" {
			userID = req.Profile.ID
		}
	}
	if len(history.Queries) == 0 && userID != "" {
		history, err = s.storage.SearchHistory(ctx, userID, s.config.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("load search history: %w", err)
		}
	}

	resp = &models.RecommendResponse{}
	var results []*models.ScoredStartup
	if len(history.Queries) > 0 {
		results, err = s.engine.RecommendStartups(models.UserProfile{ID: userID, SearchHistory: history}, limit)
		resp.Basis = BasisSearchHistory
	} else {
		terms := TermsFromProfile(req.Profile)
		if terms.Empty() {
			return nil, ErrEmptySearchHistory
		}
		results, err = s.engine.SearchStartups(terms.Query(), "", limit)
		resp.Basis = terms.Kind().String()
		resp.Terms = terms.Query()
	}
	if err != nil {
		return nil, err
	}
	metrics.RecommendBasis.WithLabelValues(resp.Basis).Inc()

	resp.Results = results
	resp.Total = len(results)
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// KeywordSearch runs a BM25 search over title, description, industry and tags.
// Hits whose startup is no longer in the engine corpus are dropped.
func (s *Service) KeywordSearch(ctx context.Context, req *models.KeywordSearchRequest) (resp *models.KeywordResponse, err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("keyword_search", time.Since(start), err) }()

	req.Limit = s.limit(req.Limit)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.engine.Initialized() {
		return nil, ErrNotInitialized
	}
	hits, err := s.keywords.Search(ctx, req.Query, req.Industry, req.Limit)
	if err != nil {
		return nil, err
	}
	resp = &models.KeywordResponse{Query: req.Query, Results: make([]*models.KeywordResult, 0, len(hits))}
	for _, h := range hits {
		st, ok := s.engine.Lookup(h.ID)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, &models.KeywordResult{
			Startup: st,
			Score:   h.Score,
			Rank:    len(resp.Results) + 1,
		})
	}
	resp.Total = len(resp.Results)
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// RecordSearch appends query to the user's stored search history.
func (s *Service) RecordSearch(ctx context.Context, userID, query string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id is required")
	}
	h := &models.HistoryRequest{Query: query}
	if err := h.Validate(); err != nil {
		return err
	}
	if err := s.storage.AppendSearchQuery(ctx, userID, models.NewSearchQuery(h.Query, time.Now())); err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	metrics.SearchQueriesRecorded.Inc()
	return nil
}

// History returns the user's most recent limit queries, oldest first. limit <= 0
// uses the configured history limit.
func (s *Service) History(ctx context.Context, userID string, limit int) (models.SearchHistory, error) {
	if limit <= 0 {
		limit = s.config.HistoryLimit
	}
	return s.storage.SearchHistory(ctx, userID, limit)
}

// AddStartup stores a new startup and reloads the engine. A missing id is
// replaced by a random UUID.
func (s *Service) AddStartup(ctx context.Context, in *models.StartupInput) (*models.Startup, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	st := in.ToStartup()
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if err := s.storage.CreateStartup(ctx, st); err != nil {
		return nil, err
	}
	if _, err := s.Reload(ctx); err != nil {
		return st, fmt.Errorf("startup stored but reload failed: %w", err)
	}
	return st, nil
}

// DeleteStartup removes a stored startup and reloads the engine.
func (s *Service) DeleteStartup(ctx context.Context, id string) error {
	if err := s.storage.DeleteStartup(ctx, id); err != nil {
		return err
	}
	if _, err := s.Reload(ctx); err != nil && !errors.Is(err, ErrEmptyCorpus) {
		return fmt.Errorf("startup deleted but reload failed: %w", err)
	}
	return nil
}

// GetStartup returns a startup from storage, or from the fallback corpus while
// it is being served.
func (s *Service) GetStartup(ctx context.Context, id string) (*models.Startup, error) {
	st, err := s.storage.GetStartup(ctx, id)
	if errors.Is(err, storage.ErrNotFound) && s.UsingFallback() {
		if fb, ok := s.engine.Lookup(id); ok {
			return fb, nil
		}
	}
	return st, err
}

// ListStartups returns a page of the corpus currently served by the engine.
func (s *Service) ListStartups(ctx context.Context, offset, limit int) ([]*models.Startup, int, error) {
	if s.UsingFallback() {
		all := s.engine.Startups()
		return page(all, offset, limit), len(all), nil
	}
	total, err := s.storage.CountStartups(ctx)
	if err != nil {
		return nil, 0, err
	}
	list, err := s.storage.ListStartups(ctx, offset, limit)
	return list, int(total), err
}

func page(all []*models.Startup, offset, limit int) []*models.Startup {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*models.Startup{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

// UsingFallback reports whether the engine serves the built-in dataset.
func (s *Service) UsingFallback() bool {
	return s.engine.servingFallback()
}

// Status summarises engine and storage state.
type Status struct {
	Initialized    bool      `json:"initialized"`
	Startups       int       `json:"startups"`
	VocabularySize int       `json:"vocabulary_size"`
	FittedAt       time.Time `json:"fitted_at"`
	UsingFallback  bool      `json:"using_fallback"`
	StoredStartups int64     `json:"stored_startups"`
	SearchQueries  int64     `json:"search_queries"`
	KeywordDocs    uint64    `json:"keyword_docs"`
	SpellingTerms  int       `json:"spelling_terms"`
}

// Status reports engine and storage counters.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	stats := s.engine.Stats()
	st := &Status{
		Initialized:    s.engine.Initialized(),
		Startups:       stats.Startups,
		VocabularySize: stats.VocabularySize,
		FittedAt:       stats.FittedAt,
		UsingFallback:  s.UsingFallback(),
		SpellingTerms:  s.spell.Size(),
	}
	var err error
	if st.StoredStartups, err = s.storage.CountStartups(ctx); err != nil {
		return nil, err
	}
	if st.SearchQueries, err = s.storage.CountSearchQueries(ctx); err != nil {
		return nil, err
	}
	if st.KeywordDocs, err = s.keywords.DocCount(); err != nil {
		return nil, err
	}
	return st, nil
}

func allZero(results []*models.ScoredStartup) bool {
	for _, r := range results {
		if r.Score > 0 {
			return false
		}
	}
	return true
}

// suggestionTerms returns the distinct suggested terms in ranking order.
func suggestionTerms(check *keyword.SpellCheckResult) []string {
	seen := make(map[string]struct{}, len(check.Suggestions))
	out := make([]string, 0, len(check.Suggestions))
	for _, sg := range check.Suggestions {
		if _, ok := seen[sg.Term]; ok {
			continue
		}
		seen[sg.Term] = struct{}{}
		out = append(out, sg.Term)
	}
	return out
}
