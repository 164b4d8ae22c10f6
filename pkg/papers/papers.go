// Package papers defines the bibliographic data model and the metadata store
// boundary consumed by the index manager and the search service.
package papers

import (
	"slices"
	"strings"
	"time"
)

// Paper is one bibliographic record. Immutable once indexed except via a full
// rebuild.
type Paper struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Abstract        string    `json:"abstract"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	Conference      string    `json:"conference,omitempty"`
	Journal         string    `json:"journal,omitempty"`
	Keywords        []string  `json:"keywords,omitempty"`
	IngestedAt      time.Time `json:"ingested_at"`
}

// EmbeddingText is the text unit embedded for paper-granularity indexing.
// The abstract alone represents the paper, so a query equal to a stored
// abstract embeds to the same vector and matches with a perfect score.
// Title and keywords stand in only when a record carries no abstract.
func (p *Paper) EmbeddingText() string {
	if p.Abstract != "" {
		return p.Abstract
	}
	parts := make([]string, 0, 2)
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, strings.Join(p.Keywords, " "))
	}
	return strings.Join(parts, "\n")
}

// Paragraph is one unit of a paper's body text. Its lifetime is tied to the
// paper's presence in the corpus.
type Paragraph struct {
	ID             string `json:"id"`
	PaperID        string `json:"paper_id"`
	Section        string `json:"section"`
	ParagraphIndex int    `json:"paragraph_index"`
	Text           string `json:"text"`

	// Context is the concatenation of neighboring paragraphs; may equal
	// Text for papers with a single paragraph.
	Context string `json:"context"`
}

// EmbeddingText is the text unit embedded for paragraph-granularity indexing.
// The context window is preferred so a paragraph is retrievable by terms just
// outside its own boundaries.
func (p *Paragraph) EmbeddingText() string {
	if p.Context != "" {
		return p.Context
	}
	return p.Text
}

// Filter is the closed set of recognized metadata criteria. All supplied
// fields are combined as a conjunction; a nil or zero field never excludes
// results on that dimension.
type Filter struct {
	YearMin    *int     `json:"year_min,omitempty"`
	YearMax    *int     `json:"year_max,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Conference string   `json:"conference,omitempty"`
	Journal    string   `json:"journal,omitempty"`
}

// Matches evaluates the filter as a pure predicate over one paper. String
// comparisons are case-sensitive and exact; author and keyword criteria are
// subset matches against the paper's respective sets.
func (f *Filter) Matches(p *Paper) bool {
	if f == nil {
		return true
	}

	if f.YearMin != nil && (p.PublicationYear == nil || *p.PublicationYear < *f.YearMin) {
		return false
	}
	if f.YearMax != nil && (p.PublicationYear == nil || *p.PublicationYear > *f.YearMax) {
		return false
	}

	for _, author := range f.Authors {
		if !slices.Contains(p.Authors, author) {
			return false
		}
	}
	for _, keyword := range f.Keywords {
		if !slices.Contains(p.Keywords, keyword) {
			return false
		}
	}

	if f.Conference != "" && p.Conference != f.Conference {
		return false
	}
	if f.Journal != "" && p.Journal != f.Journal {
		return false
	}

	return true
}

// FilterOptions enumerates the distinct values available for each filter
// dimension across the corpus, for search UIs.
type FilterOptions struct {
	Years       []int    `json:"years"`
	Authors     []string `json:"authors"`
	Keywords    []string `json:"keywords"`
	Conferences []string `json:"conferences"`
	Journals    []string `json:"journals"`
}
