// Package hashing implements pkg/embeddings' Embedder with a fully offline
// feature-hashing model. Tokens and token bigrams are hashed into a
// fixed-dimension bucket space and the resulting vector is L2-normalized, so
// identical texts always map to identical unit vectors with no model files
// and no network access.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/shelfworksco/stacks/pkg/embeddings"
)

// DefaultDimension matches the dimension of common sentence-embedding models
// so configs can switch providers without reindexing surprises.
const DefaultDimension = 384

// Embedder is a deterministic, process-local text embedder.
type Embedder struct {
	dim int
}

// Config holds configuration for the hashing embedder.
type Config struct {
	// Dimension is the output vector length. Defaults to DefaultDimension
	// if zero.
	Dimension int
}

// NewEmbedder creates a new offline hashing embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	dim := cfg.Dimension
	if dim == 0 {
		dim = DefaultDimension
	}

	return &Embedder{dim: dim}, nil
}

// Embed converts text into a unit-length vector embedding.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, embeddings.ErrEmptyInput
	}

	vec := make([]float32, e.dim)
	for i, tok := range tokens {
		addFeature(vec, tok)
		if i+1 < len(tokens) {
			addFeature(vec, tok+" "+tokens[i+1])
		}
	}

	normalize(vec)
	return vec, nil
}

// Dimension reports the configured output vector length.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

// addFeature hashes a token into a bucket and a sign. The second hash bit
// decides the sign so that colliding features partially cancel instead of
// systematically inflating buckets.
func addFeature(vec []float32, token string) {
	h := fnv.New64a()
	h.Write([]byte(token))
	sum := h.Sum64()

	bucket := int(sum % uint64(len(vec)))
	if (sum>>63)&1 == 1 {
		vec[bucket] -= 1
	} else {
		vec[bucket] += 1
	}
}

// tokenize lowercases the text and splits it on any non-letter, non-digit
// rune. Tokens of a single rune are kept; pure whitespace yields nothing.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	n := math.Sqrt(sum)
	if n == 0 {
		return
	}
	inv := float32(1.0 / n)
	for i := range vec {
		vec[i] *= inv
	}
}

// Ensure Embedder implements embeddings.Embedder
var _ embeddings.Embedder = (*Embedder)(nil)
