// Package flat provides an exact brute-force vector index that answers top-k
// queries by scanning all vectors and scoring via dot product. Inputs are
// expected to be unit-normalized, making the dot product the cosine
// similarity. It is both the small-corpus index and the exact fallback behind
// the HNSW graph.
package flat

import (
	"fmt"
	"sort"
)

// Candidate is one scored entry, identified by its ordinal position in the
// vector set the index was built from.
type Candidate struct {
	Ordinal int
	Score   float64
}

// Index is an exact cosine-similarity index over a fixed vector set.
type Index struct {
	dim  int
	vecs [][]float32
}

// New builds a flat index over the given unit vectors. All vectors must share
// the same dimension.
func New(vectors [][]float32, dim int) (*Index, error) {
	for i := range vectors {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("flat: vector %d has dim %d, want %d", i, len(vectors[i]), dim)
		}
	}

	return &Index{dim: dim, vecs: vectors}, nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	return len(i.vecs)
}

// Search returns up to k candidates ordered by descending score, ties broken
// by ascending ordinal for determinism.
func (i *Index) Search(query []float32, k int) []Candidate {
	if k <= 0 || len(i.vecs) == 0 {
		return nil
	}

	scored := make([]Candidate, len(i.vecs))
	for j := range i.vecs {
		scored[j] = Candidate{Ordinal: j, Score: dot(query, i.vecs[j])}
	}

	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].Ordinal < scored[b].Ordinal
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
