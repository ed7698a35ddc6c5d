// Package vector provides dense-vector similarity helpers and an ordered in-memory index.
package vector

import "math"

// Dot returns the inner product of a and b, or 0 when their lengths differ.
func Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// L2Norm returns the Euclidean norm of x.
func L2Norm(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a,b) / (|a| * |b|). It returns exactly 0 when either
// norm is zero or the lengths differ, so zero vectors stay sortable instead of NaN.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	normA, normB := L2Norm(a), L2Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}

// Mean returns the element-wise arithmetic mean of vectors, which must all have
// the same length. It returns nil when vectors is empty.
func Mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i := range mean {
			if i < len(vec) {
				mean[i] += vec[i]
			}
		}
	}
	n := float64(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
