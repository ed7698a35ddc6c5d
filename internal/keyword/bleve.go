package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	bleveindex "github.com/blevesearch/bleve_index_api"
	"github.com/hyperjump/foundermatch/internal/models"
)

const (
	startupType = "startup"
	// replaceBatchSize bounds the number of operations per bleve batch.
	replaceBatchSize = 500
)

// bleveStartup is the indexed form of a startup.
type bleveStartup struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Industry      string `json:"industry"`
	IndustryExact string `json:"industry_exact"`
	Tags          string `json:"tags"`
}

// BleveType lets bleve pick the startup document mapping.
func (bleveStartup) BleveType() string { return startupType }

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path or
// ":memory:" creates an in-memory scorch index. Hits are scored with BM25. If
// you change the mapping, remove the index directory; the next reload
// repopulates it.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := buildMapping()
	if path == "" || path == ":memory:" {
		index, err := bleve.NewUsing("", im, scorch.Name, scorch.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.ScoringModel = bleveindex.BM25Scoring

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer lowercases and tokenizes without stemming, so "agri"
	// does not match "agriculture" and scores stay comparable to the TF-IDF path.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("description", text)
	docMapping.AddFieldMappingsAt("industry", text)
	docMapping.AddFieldMappingsAt("tags", text)

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keywordanalyzer.Name
	exact.IncludeInAll = false
	docMapping.AddFieldMappingsAt("industry_exact", exact)

	im.AddDocumentMapping(startupType, docMapping)
	im.DefaultType = startupType
	im.DefaultMapping = docMapping
	return im
}

// Replace removes every indexed document and indexes startups in their place.
func (b *BleveIndex) Replace(ctx context.Context, startups []*models.Startup) error {
	existing, err := b.allIDs()
	if err != nil {
		return err
	}

	batch := b.index.NewBatch()
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("bleve batch: %w", err)
		}
		batch.Reset()
		return nil
	}

	for _, id := range existing {
		batch.Delete(id)
		if batch.Size() >= replaceBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	for _, s := range startups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(s.ID, toBleveStartup(s)); err != nil {
			return fmt.Errorf("index startup %s: %w", s.ID, err)
		}
		if batch.Size() >= replaceBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func toBleveStartup(s *models.Startup) bleveStartup {
	return bleveStartup{
		Title:         s.Title,
		Description:   s.Description,
		Industry:      s.Industry,
		IndustryExact: s.Industry,
		Tags:          strings.Join(s.Tags, " "),
	}
}

func (b *BleveIndex) allIDs() ([]string, error) {
	count, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("bleve doc count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve list ids: %w", err)
	}
	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Search runs a BM25 match query over title, description, industry and tags and
// returns up to limit results. A non-empty industry restricts hits to startups
// whose industry equals it exactly.
func (b *BleveIndex) Search(ctx context.Context, query, industry string, limit int) ([]*KeywordResult, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []*KeywordResult{}, nil
	}
	var q blevequery.Query = bleve.NewMatchQuery(query)
	if industry != "" {
		tq := bleve.NewTermQuery(industry)
		tq.SetField("industry_exact")
		q = bleve.NewConjunctionQuery(q, tq)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
