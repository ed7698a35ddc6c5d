package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/foundermatch/internal/models"
)

func newStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func startup(id, industry string, tags ...string) *models.Startup {
	return &models.Startup{
		ID:          id,
		Title:       "Startup " + id,
		Description: "Description of " + id,
		Industry:    industry,
		Tags:        tags,
	}
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	s := startup("s1", "Agriculture", "iot", "agritech")
	s.Location = "Nairobi"
	s.FundingStage = "Seed"
	if err := store.CreateStartup(ctx, s); err != nil {
		t.Fatal(err)
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if err := store.CreateStartup(ctx, startup("s1", "Agriculture")); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate id: err = %v, want ErrConflict", err)
	}

	got, err := store.GetStartup(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Startup s1" || got.Location != "Nairobi" || got.FundingStage != "Seed" {
		t.Errorf("got %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "iot" || got.Tags[1] != "agritech" {
		t.Errorf("tags = %v", got.Tags)
	}

	s.Title = "Updated"
	if err := store.UpsertStartup(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetStartup(ctx, "s1")
	if got.Title != "Updated" {
		t.Errorf("expected Updated, got %s", got.Title)
	}

	list, err := store.ListStartups(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 startup, got %d", len(list))
	}

	if err := store.DeleteStartup(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetStartup(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetStartup after delete: err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteStartup(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_NilTagsRoundTripAsEmpty(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if err := store.CreateStartup(ctx, startup("s1", "Fintech")); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetStartup(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("tags = %#v, want empty slice", got.Tags)
	}
}

func TestSQLiteStorage_InsertionOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := store.CreateStartup(ctx, startup(id, "Healthcare")); err != nil {
			t.Fatal(err)
		}
	}
	// updating a row must not move it to the end
	if err := store.UpsertStartup(ctx, startup("c", "Fintech")); err != nil {
		t.Fatal(err)
	}

	all, err := store.AllStartups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b"}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("all[%d] = %s, want %s", i, all[i].ID, id)
		}
	}

	page, err := store.ListStartups(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "a" {
		t.Errorf("page = %v", page)
	}
	n, err := store.CountStartups(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountStartups = %d, %v", n, err)
	}
}

func TestSQLiteStorage_ReplaceSource(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	src := "/corpus/startups.yaml"

	if err := store.CreateStartup(ctx, startup("manual", "Fintech")); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceSource(ctx, src, []*models.Startup{
		startup("y1", "Agriculture"), startup("y2", "Agriculture"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceSource(ctx, src, []*models.Startup{
		startup("y2", "Healthcare"), startup("y3", "Healthcare"),
	}); err != nil {
		t.Fatal(err)
	}

	all, err := store.AllStartups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	want := []string{"manual", "y2", "y3"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if all[1].Industry != "Healthcare" || all[1].Source != src {
		t.Errorf("y2 = %+v", all[1])
	}

	removed, err := store.DeleteStartupsBySource(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if err := store.ReplaceSource(ctx, src, nil); err != nil {
		t.Fatal(err)
	}
	n, _ := store.CountStartups(ctx)
	if n != 1 {
		t.Errorf("CountStartups = %d, want 1", n)
	}
}

func TestSQLiteStorage_SearchHistory(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	queries := []models.SearchQuery{
		{Query: "iot farming", Timestamp: 1000},
		{Query: "telemedicine", Timestamp: 2000},
		{Query: "fintech payments", Timestamp: 3000},
	}
	for _, q := range queries {
		if err := store.AppendSearchQuery(ctx, "u1", q); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.AppendSearchQuery(ctx, "u2", models.SearchQuery{Query: "other"}); err != nil {
		t.Fatal(err)
	}

	all, err := store.SearchHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if all.UserID != "u1" || len(all.Queries) != 3 || all.Queries[0].Query != "iot farming" {
		t.Errorf("history = %+v", all)
	}

	recent, err := store.SearchHistory(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent.Queries) != 2 || recent.Queries[0].Query != "telemedicine" || recent.Queries[1].Query != "fintech payments" {
		t.Errorf("recent = %+v, want the last two in chronological order", recent.Queries)
	}

	none, err := store.SearchHistory(ctx, "nobody", 5)
	if err != nil {
		t.Fatal(err)
	}
	if none.Queries == nil || len(none.Queries) != 0 {
		t.Errorf("unknown user history = %#v", none.Queries)
	}

	u2, _ := store.SearchHistory(ctx, "u2", 0)
	if len(u2.Queries) != 1 || u2.Queries[0].Timestamp == 0 {
		t.Errorf("zero timestamp should be replaced: %+v", u2.Queries)
	}

	n, err := store.CountSearchQueries(ctx)
	if err != nil || n != 4 {
		t.Errorf("CountSearchQueries = %d, %v", n, err)
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.CreateStartup(ctx, startup("m1", "Edtech")); err != nil {
		t.Fatal(err)
	}
	n, err := store.CountStartups(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountStartups = %d, %v", n, err)
	}
}
