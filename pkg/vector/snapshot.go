package vector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shelfworksco/stacks/pkg/vector/flat"
	"github.com/shelfworksco/stacks/pkg/vector/hnsw"
)

// DefaultFlatThreshold is the corpus size below which a snapshot stays flat.
// ANN graphs carry build and memory overhead that an exact scan beats at
// small scale.
const DefaultFlatThreshold = 2000

// BuildOptions controls snapshot construction.
type BuildOptions struct {
	// Dimension is the embedding dimension shared by all documents.
	Dimension int

	// FlatThreshold is the document count at which the hybrid HNSW+flat
	// variant replaces the flat-only one. Defaults to
	// DefaultFlatThreshold if zero.
	FlatThreshold int

	// HNSW holds graph parameters for the hybrid variant.
	HNSW hnsw.Config
}

// Snapshot is one immutable, fully-built index state: all documents of one
// granularity, the exact flat structure, and optionally an HNSW graph when
// the corpus crossed the flat threshold at build time. A snapshot never
// changes after NewSnapshot returns, so any number of readers may query it
// while a replacement is being built.
type Snapshot struct {
	granularity Granularity
	docs        []Document
	dim         int
	flat        *flat.Index
	graph       *hnsw.Graph
	builtAt     time.Time
}

// NewSnapshot builds a snapshot from the given documents. Documents are
// sorted by id and their embeddings unit-normalized, so candidate ordinals
// tie-break in id order and dot products are cosine similarities. The input
// slice is not retained.
func NewSnapshot(granularity Granularity, docs []Document, opts BuildOptions) (*Snapshot, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("snapshot: dimension must be positive, got %d", opts.Dimension)
	}

	threshold := opts.FlatThreshold
	if threshold <= 0 {
		threshold = DefaultFlatThreshold
	}

	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].ID < sorted[b].ID })

	vecs := make([][]float32, len(sorted))
	for i := range sorted {
		if len(sorted[i].Embedding) != opts.Dimension {
			return nil, fmt.Errorf("snapshot: document %s has dim %d, want %d",
				sorted[i].ID, len(sorted[i].Embedding), opts.Dimension)
		}
		vecs[i] = unit(sorted[i].Embedding)
	}

	flatIdx, err := flat.New(vecs, opts.Dimension)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		granularity: granularity,
		docs:        sorted,
		dim:         opts.Dimension,
		flat:        flatIdx,
		builtAt:     time.Now().UTC(),
	}

	if len(sorted) >= threshold {
		graph, err := hnsw.Build(vecs, opts.Dimension, opts.HNSW)
		if err != nil {
			return nil, err
		}
		s.graph = graph
	}

	return s, nil
}

// TopK returns up to k hits ordered by descending score, ties broken by
// ascending id. When exact is true, or the snapshot is flat-only, or the
// graph under-returns, the exact flat scan answers the query.
func (s *Snapshot) TopK(query []float32, k int, exact bool) ([]Hit, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	q := unit(query)

	if !exact && s.graph != nil {
		if cands := s.graph.Search(q, k, 0); len(cands) >= k || len(cands) == s.Len() {
			return s.hits(cands), nil
		}
		// Graph returned fewer than k candidates; fall through to the
		// exact scan.
	}

	cands := s.flat.Search(q, k)
	out := make([]Hit, len(cands))
	for i, c := range cands {
		out[i] = s.hit(c.Ordinal, c.Score)
	}
	return out, nil
}

func (s *Snapshot) hits(cands []hnsw.Candidate) []Hit {
	out := make([]Hit, len(cands))
	for i, c := range cands {
		out[i] = s.hit(c.Ordinal, c.Score)
	}
	return out
}

func (s *Snapshot) hit(ordinal int, score float64) Hit {
	doc := s.docs[ordinal]
	return Hit{ID: doc.ID, PaperID: doc.PaperID, Score: clamp01(score)}
}

// Len returns the snapshot's document count.
func (s *Snapshot) Len() int {
	return len(s.docs)
}

// Granularity returns the unit the snapshot indexes.
func (s *Snapshot) Granularity() Granularity {
	return s.granularity
}

// Hybrid reports whether an ANN graph is in use in addition to the exact
// fallback.
func (s *Snapshot) Hybrid() bool {
	return s.graph != nil
}

// BuiltAt returns the snapshot's build timestamp.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func unit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	n := math.Sqrt(sum)
	out := make([]float32, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	inv := float32(1.0 / n)
	for i := range v {
		out[i] = v[i] * inv
	}
	return out
}
