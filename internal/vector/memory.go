package vector

import (
	"fmt"
	"sort"
)

// MemoryIndex is an ordered in-memory vector index with brute-force cosine search.
// Entries keep insertion order, and ties in Search resolve to that order.
// A MemoryIndex is built once and then only read; it is safe for concurrent Search.
type MemoryIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float64
}

// VectorResult is a single search hit. Position is the insertion index of the entry.
type VectorResult struct {
	ID       string
	Position int
	Score    float64
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
// A zero dimension is allowed (a vocabulary with no usable tokens).
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions < 0 {
		return nil, fmt.Errorf("dimensions must not be negative")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		ids:        make([]string, 0),
		vectors:    make([][]float64, 0),
	}, nil
}

// Add appends vectors with the given IDs. Vectors are copied.
func (m *MemoryIndex) Add(ids []string, vectors [][]float64) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for i, id := range ids {
		if len(vectors[i]) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), m.dimensions)
		}
		vec := make([]float64, m.dimensions)
		copy(vec, vectors[i])
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search scores every entry accepted by keep (nil keeps all) against query and
// returns the top k by cosine similarity, highest first. Equal scores keep
// insertion order. k <= 0 returns every accepted entry.
func (m *MemoryIndex) Search(query []float64, k int, keep func(position int) bool) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	scores := make([]*VectorResult, 0, len(m.ids))
	for i, vec := range m.vectors {
		if keep != nil && !keep(i) {
			continue
		}
		scores = append(scores, &VectorResult{ID: m.ids[i], Position: i, Score: CosineSimilarity(query, vec)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > 0 && k < len(scores) {
		scores = scores[:k]
	}
	return scores, nil
}

// Vector returns the stored vector at position.
func (m *MemoryIndex) Vector(position int) []float64 {
	return m.vectors[position]
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	return len(m.ids)
}

// Dimensions returns the vector length the index accepts.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}
