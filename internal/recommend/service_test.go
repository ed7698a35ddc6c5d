package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/foundermatch/internal/config"
	"github.com/hyperjump/foundermatch/internal/keyword"
	"github.com/hyperjump/foundermatch/internal/models"
	"github.com/hyperjump/foundermatch/internal/storage"
	"github.com/hyperjump/foundermatch/internal/validation"
)

type testService struct {
	*Service
	store *storage.SQLiteStorage
}

func newTestService(t *testing.T, fallback bool) *testService {
	t.Helper()
	idx, err := keyword.NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return newTestServiceWithIndex(t, fallback, idx)
}

func newTestServiceWithIndex(t *testing.T, fallback bool, idx keyword.KeywordIndex) *testService {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default().Recommend
	svc := NewService(NewEngine(), store, idx, &cfg, WithFallback(fallback))
	return &testService{Service: svc, store: store}
}

// flakyKeywords fails the next failures calls to Replace.
type flakyKeywords struct {
	keyword.KeywordIndex
	failures int
}

func (f *flakyKeywords) Replace(ctx context.Context, startups []*models.Startup) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.KeywordIndex.Replace(ctx, startups)
}

func newFlakyKeywords(t *testing.T) *flakyKeywords {
	t.Helper()
	idx, err := keyword.NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return &flakyKeywords{KeywordIndex: idx}
}

func seed(t *testing.T, store storage.Storage, startups []*models.Startup) {
	t.Helper()
	for _, s := range startups {
		require.NoError(t, store.CreateStartup(context.Background(), s))
	}
}

func TestService_ReloadUsesFallbackWhenStorageIsEmpty(t *testing.T) {
	svc := newTestService(t, true)
	stats, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Startups)
	assert.True(t, svc.UsingFallback())

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Initialized)
	assert.Equal(t, int64(0), status.StoredStartups)
	assert.Equal(t, uint64(10), status.KeywordDocs)
	assert.Equal(t, status.VocabularySize, status.SpellingTerms)
}

func TestService_ReloadWithoutFallback(t *testing.T) {
	svc := newTestService(t, false)
	_, err := svc.Reload(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
	assert.False(t, svc.Engine().Initialized())

	_, err = svc.Search(context.Background(), &models.SearchRequest{Query: "farming"})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = svc.KeywordSearch(context.Background(), &models.KeywordSearchRequest{Query: "farming"})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestService_ReloadKeywordFailureKeepsEngineUninitialized(t *testing.T) {
	kw := newFlakyKeywords(t)
	kw.failures = 1
	svc := newTestServiceWithIndex(t, true, kw)

	_, err := svc.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, svc.Engine().Initialized())
	assert.False(t, svc.UsingFallback())

	stats, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Startups)
	assert.True(t, svc.UsingFallback())
}

func TestService_ReloadKeywordFailureKeepsPreviousCorpus(t *testing.T) {
	kw := newFlakyKeywords(t)
	svc := newTestServiceWithIndex(t, true, kw)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, svc.UsingFallback())

	seed(t, svc.store, twoStartups())
	kw.failures = 1
	stats, err := svc.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, 10, stats.Startups)
	assert.True(t, svc.UsingFallback())
	assert.Equal(t, 10, svc.Engine().Stats().Startups)

	docs, err := kw.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), docs)

	list, total, err := svc.ListStartups(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Len(t, list, 10)

	stats, err = svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Startups)
	assert.False(t, svc.UsingFallback())
}

func TestService_ReloadFromStorageKeepsInsertionOrder(t *testing.T) {
	svc := newTestService(t, true)
	seed(t, svc.store, twoStartups())

	stats, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Startups)
	assert.False(t, svc.UsingFallback())

	resp, err := svc.Search(context.Background(), &models.SearchRequest{Query: "blockchain"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "1", resp.Results[0].Startup.ID)
	assert.Equal(t, "2", resp.Results[1].Startup.ID)
	assert.False(t, resp.AutoFuzzy)
}

func TestService_Search(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Search(context.Background(), &models.SearchRequest{Query: "telemedicine for rural patients", Limit: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "3", resp.Results[0].Startup.ID)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Empty(t, resp.CorrectedQuery)

	resp, err = svc.Search(context.Background(), &models.SearchRequest{Query: "payments", Industry: "Fintech"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "4", resp.Results[0].Startup.ID)
	assert.Equal(t, "Fintech", resp.Industry)
}

func TestService_SearchDefaultLimit(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Search(context.Background(), &models.SearchRequest{Query: "startup"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, config.Default().Recommend.DefaultTopN)
}

func TestService_SearchValidation(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), &models.SearchRequest{Query: "   "})
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
}

func TestService_SearchAutoFuzzy(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Search(context.Background(), &models.SearchRequest{Query: "telemedecine"})
	require.NoError(t, err)
	assert.True(t, resp.AutoFuzzy)
	assert.Equal(t, "telemedicine", resp.CorrectedQuery)
	assert.Contains(t, resp.Suggestions, "telemedicine")
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "3", resp.Results[0].Startup.ID)
	assert.Greater(t, resp.Results[0].Score, 0.0)
	assert.Equal(t, "telemedecine", resp.Query)
}

func TestService_SearchAutoFuzzyDisabled(t *testing.T) {
	svc := newTestService(t, true)
	off := false
	svc.config.AutoFuzzy = &off
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Search(context.Background(), &models.SearchRequest{Query: "telemedecine"})
	require.NoError(t, err)
	assert.False(t, resp.AutoFuzzy)
	assert.Empty(t, resp.CorrectedQuery)
	for _, r := range resp.Results {
		assert.Equal(t, 0.0, r.Score)
	}
}

func TestService_SearchRequestedFuzzy(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Search(context.Background(), &models.SearchRequest{Query: "smart farmng", Fuzzy: true})
	require.NoError(t, err)
	assert.False(t, resp.AutoFuzzy)
	assert.Equal(t, "smart farming", resp.CorrectedQuery)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "1", resp.Results[0].Startup.ID)
}

func TestService_SearchRecordsHistory(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Search(ctx, &models.SearchRequest{Query: "solar energy", UserID: "u1"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, &models.SearchRequest{Query: "off-grid households", UserID: "u1"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, &models.SearchRequest{Query: "anonymous"})
	require.NoError(t, err)

	h, err := svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"solar energy", "off-grid households"}, h.Texts())

	n, err := svc.store.CountSearchQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestService_RecommendFromRequestHistory(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Recommend(context.Background(), &models.RecommendRequest{
		Profile: &models.UserProfile{SearchHistory: models.SearchHistory{Queries: []models.SearchQuery{
			{Query: "adaptive learning"}, {Query: "students lessons"},
		}}},
		Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, BasisSearchHistory, resp.Basis)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "5", resp.Results[0].Startup.ID)
}

func TestService_RecommendFromStoredHistory(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()
	_, err := svc.Reload(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.RecordSearch(ctx, "u2", "mobile payments"))
	require.NoError(t, svc.RecordSearch(ctx, "u2", "micro loans merchants"))

	resp, err := svc.Recommend(ctx, &models.RecommendRequest{UserID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, BasisSearchHistory, resp.Basis)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "4", resp.Results[0].Startup.ID)
	assert.Equal(t, config.Default().Recommend.DefaultTopN, resp.Total)
}

func TestService_RecommendFromProfileTerms(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.Recommend(context.Background(), &models.RecommendRequest{
		Profile: &models.UserProfile{ID: "new-user", Skills: []string{"payments"}, Role: "lending"},
	})
	require.NoError(t, err)
	assert.Equal(t, "skills", resp.Basis)
	assert.Equal(t, "payments lending", resp.Terms)
	assert.Equal(t, "4", resp.Results[0].Startup.ID)

	resp, err = svc.Recommend(context.Background(), &models.RecommendRequest{
		Profile: &models.UserProfile{Preferences: &models.Preferences{Tags: []string{"telemedicine"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "preferences", resp.Basis)
	assert.Equal(t, "3", resp.Results[0].Startup.ID)
}

func TestService_RecommendNothingUsable(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	_, err = svc.Recommend(context.Background(), &models.RecommendRequest{UserID: "nobody"})
	assert.ErrorIs(t, err, ErrEmptySearchHistory)
	_, err = svc.Recommend(context.Background(), &models.RecommendRequest{})
	assert.ErrorIs(t, err, ErrEmptySearchHistory)
}

func TestService_KeywordSearch(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)

	resp, err := svc.KeywordSearch(context.Background(), &models.KeywordSearchRequest{Query: "telemedicine doctors"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "3", resp.Results[0].Startup.ID)
	assert.Equal(t, 1, resp.Results[0].Rank)

	resp, err = svc.KeywordSearch(context.Background(), &models.KeywordSearchRequest{Query: "telemedicine", Industry: "Fintech"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestService_AddAndDeleteStartup(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()
	_, err := svc.Reload(ctx)
	require.NoError(t, err)
	require.True(t, svc.UsingFallback())

	st, err := svc.AddStartup(ctx, &models.StartupInput{
		Title:       "OceanWatch",
		Description: "satellite monitoring of illegal fishing",
		Industry:    "Environment",
		Tags:        []string{"satellites", "oceans"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.False(t, svc.UsingFallback())
	assert.Equal(t, 1, svc.Engine().Stats().Startups)

	got, err := svc.GetStartup(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "OceanWatch", got.Title)

	resp, err := svc.Search(ctx, &models.SearchRequest{Query: "illegal fishing"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, st.ID, resp.Results[0].Startup.ID)

	require.NoError(t, svc.DeleteStartup(ctx, st.ID))
	assert.True(t, svc.UsingFallback())
	assert.Equal(t, 10, svc.Engine().Stats().Startups)

	assert.ErrorIs(t, svc.DeleteStartup(ctx, st.ID), storage.ErrNotFound)
}

func TestService_AddStartupValidation(t *testing.T) {
	svc := newTestService(t, true)
	_, err := svc.AddStartup(context.Background(), &models.StartupInput{Title: "x"})
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
}

func TestService_DeleteLastStartupWithoutFallbackKeepsServing(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()
	seed(t, svc.store, twoStartups()[:1])
	_, err := svc.Reload(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStartup(ctx, "1"))
	assert.Equal(t, 1, svc.Engine().Stats().Startups)
}

func TestService_GetAndListWhileUsingFallback(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()
	_, err := svc.Reload(ctx)
	require.NoError(t, err)

	st, err := svc.GetStartup(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "MediConnect", st.Title)
	_, err = svc.GetStartup(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, total, err := svc.ListStartups(ctx, 8, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	require.Len(t, list, 2)
	assert.Equal(t, "9", list[0].ID)

	list, _, err = svc.ListStartups(ctx, 20, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_ListStartupsFromStorage(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()
	seed(t, svc.store, mixedStartups())
	_, err := svc.Reload(ctx)
	require.NoError(t, err)

	list, total, err := svc.ListStartups(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, list, 2)
	assert.Equal(t, "h1", list[0].ID)
	assert.Equal(t, "a2", list[1].ID)
}

func TestService_RecordSearchRequiresUser(t *testing.T) {
	svc := newTestService(t, true)
	assert.Error(t, svc.RecordSearch(context.Background(), " ", "query"))
	assert.Error(t, svc.RecordSearch(context.Background(), "u1", ""))
}
