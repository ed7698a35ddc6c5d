package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero a", []float64{0, 0}, []float64{1, 1}, 0},
		{"zero both", []float64{0, 0}, []float64{0, 0}, 0},
		{"length mismatch", []float64{1}, []float64{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDotAndNorm(t *testing.T) {
	assert.Equal(t, 11.0, Dot([]float64{1, 2}, []float64{3, 4}))
	assert.Equal(t, 0.0, Dot([]float64{1}, []float64{3, 4}))
	assert.InDelta(t, 5.0, L2Norm([]float64{3, 4}), 1e-12)
}

func TestMean(t *testing.T) {
	assert.Nil(t, Mean(nil))
	assert.Equal(t, []float64{2, 3}, Mean([][]float64{{1, 2}, {3, 4}}))
	assert.Equal(t, []float64{1, 0}, Mean([][]float64{{1, 0}}))
}
