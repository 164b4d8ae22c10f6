// Package inmemory provides a map-backed papers.Store for tests and
// single-process development setups.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shelfworksco/stacks/pkg/papers"
)

// Store implements papers.Store using in-memory maps.
type Store struct {
	// mu guards both maps below.
	mu sync.RWMutex

	papersByID     map[string]*papers.Paper
	paragraphsByID map[string]*papers.Paragraph
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		papersByID:     make(map[string]*papers.Paper),
		paragraphsByID: make(map[string]*papers.Paragraph),
	}
}

// PutPaper stores a paper and its paragraphs, replacing any previous record
// with the same id.
func (s *Store) PutPaper(_ context.Context, paper *papers.Paper, paragraphs []*papers.Paragraph) error {
	if paper == nil {
		return errors.New("cannot store nil paper")
	}
	if paper.ID == "" {
		return errors.New("paper id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeParagraphsLocked(paper.ID)
	s.papersByID[paper.ID] = paper
	for _, p := range paragraphs {
		s.paragraphsByID[p.ID] = p
	}
	return nil
}

// GetPaper retrieves a paper by id.
func (s *Store) GetPaper(_ context.Context, id string) (*papers.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paper, ok := s.papersByID[id]
	if !ok {
		return nil, papers.NotFoundError{ID: id}
	}
	return paper, nil
}

// ListPapers returns all papers ordered by id.
func (s *Store) ListPapers(_ context.Context) ([]*papers.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*papers.Paper, 0, len(s.papersByID))
	for _, p := range s.papersByID {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// GetParagraph retrieves a paragraph by id.
func (s *Store) GetParagraph(_ context.Context, id string) (*papers.Paragraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	para, ok := s.paragraphsByID[id]
	if !ok {
		return nil, papers.NotFoundError{ID: id}
	}
	return para, nil
}

// ListParagraphs returns all paragraphs ordered by id.
func (s *Store) ListParagraphs(_ context.Context) ([]*papers.Paragraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*papers.Paragraph, 0, len(s.paragraphsByID))
	for _, p := range s.paragraphsByID {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// DeletePaper removes a paper and its paragraphs.
func (s *Store) DeletePaper(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.papersByID[id]; !ok {
		return papers.NotFoundError{ID: id}
	}
	delete(s.papersByID, id)
	s.removeParagraphsLocked(id)
	return nil
}

// CountPapers returns the corpus size.
func (s *Store) CountPapers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.papersByID), nil
}

// FilterOptions enumerates distinct filterable values in the corpus.
func (s *Store) FilterOptions(_ context.Context) (*papers.FilterOptions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := make(map[int]struct{})
	authors := make(map[string]struct{})
	keywords := make(map[string]struct{})
	conferences := make(map[string]struct{})
	journals := make(map[string]struct{})

	for _, p := range s.papersByID {
		if p.PublicationYear != nil {
			years[*p.PublicationYear] = struct{}{}
		}
		for _, a := range p.Authors {
			authors[a] = struct{}{}
		}
		for _, k := range p.Keywords {
			keywords[k] = struct{}{}
		}
		if p.Conference != "" {
			conferences[p.Conference] = struct{}{}
		}
		if p.Journal != "" {
			journals[p.Journal] = struct{}{}
		}
	}

	opts := &papers.FilterOptions{
		Years:       sortedInts(years),
		Authors:     sortedStrings(authors),
		Keywords:    sortedStrings(keywords),
		Conferences: sortedStrings(conferences),
		Journals:    sortedStrings(journals),
	}
	return opts, nil
}

// Close releases resources; a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) removeParagraphsLocked(paperID string) {
	for id, p := range s.paragraphsByID {
		if p.PaperID == paperID {
			delete(s.paragraphsByID, id)
		}
	}
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Ensure Store implements papers.Store
var _ papers.Store = (*Store)(nil)
