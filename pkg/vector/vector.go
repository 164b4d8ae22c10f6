// Package vector provides the in-process nearest-neighbor index over text
// embeddings: an exact flat scan for small corpora and a hybrid HNSW+flat
// structure at scale, wrapped in immutable snapshots that are swapped
// atomically by the index manager.
package vector

import "errors"

// Granularity is the unit being indexed and searched.
type Granularity string

const (
	// GranularityPaper indexes one embedding per whole paper.
	GranularityPaper Granularity = "paper"

	// GranularityParagraph indexes one embedding per paragraph.
	GranularityParagraph Granularity = "paragraph"
)

// Valid reports whether g is a recognized granularity.
func (g Granularity) Valid() bool {
	return g == GranularityPaper || g == GranularityParagraph
}

// Document represents one indexed unit with its embedding.
type Document struct {
	// ID is a unique identifier for the unit: the paper id at paper
	// granularity, the paragraph id at paragraph granularity.
	ID string

	// PaperID is the owning paper. Equal to ID at paper granularity.
	PaperID string

	// Embedding is the vector representation of the unit's text.
	Embedding []float32
}

// Hit is a single nearest-neighbor result.
type Hit struct {
	// ID is the matched document id.
	ID string

	// PaperID is the owning paper of the matched document.
	PaperID string

	// Score is the cosine similarity clamped to [0,1], 1 meaning an
	// identical direction.
	Score float64
}

var (
	// ErrDimensionMismatch is returned when a query vector's length does
	// not match the index dimension. Fatal to that query only.
	ErrDimensionMismatch = errors.New("query vector dimension mismatch")

	// ErrNoDocuments is returned when a snapshot build is attempted with
	// an empty document set.
	ErrNoDocuments = errors.New("no documents to index")
)
