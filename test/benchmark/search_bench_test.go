package benchmark

import (
	"fmt"
	"testing"

	"github.com/hyperjump/foundermatch/internal/recommend"
	"github.com/hyperjump/foundermatch/internal/tfidf"
	"github.com/hyperjump/foundermatch/internal/vector"
)

func BenchmarkFuse(b *testing.B) {
	kw := make(map[string]float64)
	sem := make(map[string]float64)
	order := make(map[string]int)
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("s%03d", i)
		kw[id] = float64(i) / 100
		sem[id] = float64(100-i) / 100
		order[id] = i
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = recommend.Fuse(kw, sem, 0.5, 0.5, order)
	}
}

func BenchmarkMemoryIndexSearch(b *testing.B) {
	idx, _ := vector.NewMemoryIndex(384)
	vecs := make([][]float64, 1000)
	ids := make([]string, 1000)
	for i := 0; i < 1000; i++ {
		vecs[i] = make([]float64, 384)
		vecs[i][0] = float64(i) / 1000
		vecs[i][i%384] += 0.5
		ids[i] = fmt.Sprintf("s%04d", i)
	}
	_ = idx.Add(ids, vecs)
	query := make([]float64, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(query, 10, nil)
	}
}

func BenchmarkVectorizer_Transform(b *testing.B) {
	docs := make([]string, 500)
	for i := range docs {
		docs[i] = fmt.Sprintf("startup %d builds tooling%d for market%d with sensors and analytics", i, i%50, i%7)
	}
	v := tfidf.NewVectorizer()
	if err := v.Fit(docs); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Transform("benchmark query about sensors and analytics tooling7")
	}
}
