package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/foundermatch/internal/models"
)

func sampleStartups() []*models.Startup {
	return []*models.Startup{
		{ID: "s1", Title: "AgroTech", Description: "Revolutionizing farming with IoT sensors", Industry: "Agriculture", Tags: []string{"agritech", "iot"}},
		{ID: "s2", Title: "PharmaPlus", Description: "Telemedicine platform for rural clinics", Industry: "Healthcare", Tags: []string{"telemedicine", "health"}},
		{ID: "s3", Title: "SoilScan", Description: "Soil sensors for precision farming", Industry: "Agriculture", Tags: []string{"sensors"}},
	}
}

func newMemIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveIndex_SearchFindsDescription(t *testing.T) {
	idx := newMemIndex(t)
	ctx := context.Background()
	if err := idx.Replace(ctx, sampleStartups()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := idx.Search(ctx, "telemedicine", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s2" {
		t.Fatalf("results = %+v, want only s2", results)
	}
}

func TestBleveIndex_SearchFindsTitle(t *testing.T) {
	idx := newMemIndex(t)
	ctx := context.Background()
	if err := idx.Replace(ctx, sampleStartups()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := idx.Search(ctx, "soilscan", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].ID != "s3" {
		t.Fatalf("first result = %+v, want s3", results)
	}
}

func TestBleveIndex_IndustryFilter(t *testing.T) {
	idx := newMemIndex(t)
	ctx := context.Background()
	if err := idx.Replace(ctx, sampleStartups()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := idx.Search(ctx, "sensors farming", "Agriculture", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	results, err = idx.Search(ctx, "sensors farming", "Healthcare", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Healthcare filter returned %d results, want 0", len(results))
	}

	// The filter is exact and case-sensitive.
	results, err = idx.Search(ctx, "sensors", "agriculture", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("lowercase industry returned %d results, want 0", len(results))
	}
}

func TestBleveIndex_ReplaceDropsOldDocuments(t *testing.T) {
	idx := newMemIndex(t)
	ctx := context.Background()
	if err := idx.Replace(ctx, sampleStartups()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	next := []*models.Startup{{ID: "n1", Title: "FinFlow", Description: "Payments for small merchants", Industry: "Fintech"}}
	if err := idx.Replace(ctx, next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	count, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if count != 1 {
		t.Errorf("DocCount = %d, want 1", count)
	}
	results, err := idx.Search(ctx, "telemedicine", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("old startup still indexed: %+v", results)
	}
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx := newMemIndex(t)
	results, err := idx.Search(context.Background(), "   ", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty query returned %d results", len(results))
	}
}

func TestBleveIndex_ReopenFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	ctx := context.Background()

	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if err := idx.Replace(ctx, sampleStartups()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	count, err := reopened.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if count != 3 {
		t.Errorf("DocCount after reopen = %d, want 3", count)
	}
}

func TestBleveIndex_TermFrequencySaturates(t *testing.T) {
	idx := newMemIndex(t)
	ctx := context.Background()
	// Classic tf-idf ranks "short" first: sqrt(1/1) > sqrt(10/11).
	startups := []*models.Startup{
		{ID: "short", Title: "solar"},
		{ID: "repeated", Title: "solar solar solar solar solar solar solar solar solar solar grid"},
		{ID: "wind", Title: "wind turbine farm repair"},
		{ID: "water", Title: "ocean water desalination plant"},
	}
	if err := idx.Replace(ctx, startups); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	results, err := idx.Search(ctx, "solar", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].ID != "repeated" || results[1].ID != "short" {
		t.Errorf("order = [%s %s], want [repeated short]", results[0].ID, results[1].ID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores = %v, %v, want strictly decreasing", results[0].Score, results[1].Score)
	}
}

func TestBuildMapping_UsesBM25(t *testing.T) {
	if got := buildMapping().ScoringModel; got != "bm25" {
		t.Errorf("ScoringModel = %q, want bm25", got)
	}
}
