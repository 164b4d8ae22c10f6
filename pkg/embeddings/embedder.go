// Package embeddings
package embeddings

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when the input text normalizes to nothing and no
// meaningful embedding can be produced. Callers batching many units should
// skip the unit rather than abort the whole batch.
var ErrEmptyInput = errors.New("embedding input is empty")

// Embedder provides text embedding capabilities. For a fixed model and
// dimension, Embed is deterministic: the same text always yields the same
// vector.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the length of vectors produced by Embed.
	Dimension() int

	// Close releases any resources held by the embedder.
	Close() error
}
