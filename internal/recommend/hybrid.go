package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/hyperjump/foundermatch/internal/keyword"
	"github.com/hyperjump/foundermatch/internal/metrics"
	"github.com/hyperjump/foundermatch/internal/models"
)

// FusedScore is one startup's combined keyword and semantic score.
type FusedScore struct {
	ID            string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores scales BM25 scores into [0,1] by dividing by the best
// score in the result set.
func NormalizeKeywordScores(results []*keyword.KeywordResult) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// Fuse merges keyword and semantic score maps into weighted scores, best first.
// order gives each id's corpus position and breaks ties; ids missing from order
// sort after every known id, by id.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64, order map[string]int) []*FusedScore {
	byID := make(map[string]*FusedScore, len(semanticScores))
	for id, score := range keywordScores {
		byID[id] = &FusedScore{ID: id, KeywordScore: score}
	}
	for id, score := range semanticScores {
		if r, ok := byID[id]; ok {
			r.SemanticScore = score
			continue
		}
		byID[id] = &FusedScore{ID: id, SemanticScore: score}
	}

	out := make([]*FusedScore, 0, len(byID))
	for _, r := range byID {
		r.Score = keywordWeight*r.KeywordScore + semanticWeight*r.SemanticScore
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		pi, iok := order[out[i].ID]
		pj, jok := order[out[j].ID]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return out[i].ID < out[j].ID
		}
	})
	return out
}

// HybridSearch ranks the corpus by a weighted sum of TF-IDF cosine similarity
// and max-normalized BM25 score. Both sides see the whole filtered corpus
// before the result is cut to the requested limit.
func (s *Service) HybridSearch(ctx context.Context, req *models.HybridSearchRequest) (resp *models.HybridResponse, err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation("hybrid_search", time.Since(start), err) }()

	req.Limit = s.limit(req.Limit)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	corpusSize := s.engine.Stats().Startups
	if corpusSize == 0 {
		return nil, ErrNotInitialized
	}

	semantic, err := s.engine.SearchStartups(req.Query, req.Industry, corpusSize)
	if err != nil {
		return nil, err
	}
	semanticScores := make(map[string]float64, len(semantic))
	for _, r := range semantic {
		semanticScores[r.Startup.ID] = r.Score
	}

	hits, err := s.keywords.Search(ctx, req.Query, req.Industry, corpusSize)
	if err != nil {
		return nil, err
	}
	keywordScores := NormalizeKeywordScores(hits)

	order := make(map[string]int, corpusSize)
	for i, st := range s.engine.Startups() {
		if _, dup := order[st.ID]; !dup {
			order[st.ID] = i
		}
	}

	fused := Fuse(keywordScores, semanticScores, *req.KeywordWeight, *req.SemanticWeight, order)
	resp = &models.HybridResponse{
		Query:          req.Query,
		KeywordWeight:  *req.KeywordWeight,
		SemanticWeight: *req.SemanticWeight,
		Results:        make([]*models.HybridResult, 0, min(req.Limit, len(fused))),
	}
	for _, f := range fused {
		if len(resp.Results) == req.Limit {
			break
		}
		st, ok := s.engine.Lookup(f.ID)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, &models.HybridResult{
			Startup:       st,
			Score:         f.Score,
			KeywordScore:  f.KeywordScore,
			SemanticScore: f.SemanticScore,
			Rank:          len(resp.Results) + 1,
		})
	}
	resp.Total = len(resp.Results)
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}
