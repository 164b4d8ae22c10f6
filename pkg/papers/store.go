package papers

import "context"

// NotFoundError is returned when a paper or paragraph doesn't exist in the
// store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "record not found"
	}
	return "record not found: " + e.ID
}

// Store defines the interface for persisting and retrieving papers and their
// paragraph breakdowns. The index manager enumerates the corpus through it at
// rebuild time and the search service hydrates results through it per query.
type Store interface {
	// PutPaper stores a paper together with its paragraph breakdown,
	// replacing any previous record with the same id.
	PutPaper(ctx context.Context, paper *Paper, paragraphs []*Paragraph) error

	// GetPaper retrieves a paper by id.
	GetPaper(ctx context.Context, id string) (*Paper, error)

	// ListPapers returns all papers in the corpus.
	ListPapers(ctx context.Context) ([]*Paper, error)

	// GetParagraph retrieves a paragraph by id.
	GetParagraph(ctx context.Context, id string) (*Paragraph, error)

	// ListParagraphs returns all paragraphs across the corpus.
	ListParagraphs(ctx context.Context) ([]*Paragraph, error)

	// DeletePaper removes a paper and its paragraphs. The live index
	// reflects the removal after the next rebuild.
	DeletePaper(ctx context.Context, id string) error

	// CountPapers returns the corpus size.
	CountPapers(ctx context.Context) (int, error)

	// FilterOptions enumerates distinct filterable values in the corpus.
	FilterOptions(ctx context.Context) (*FilterOptions, error)

	// Close closes the store and releases any resources.
	Close() error
}
