// Package search orchestrates semantic queries over the live index: query
// embedding, over-fetched nearest-neighbor retrieval, metadata filtering,
// paragraph aggregation, ranking, and pagination.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/embeddings"
	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/papers"
	"github.com/shelfworksco/stacks/pkg/vector"
)

// ErrEmptyQuery rejects requests whose query text is blank.
var ErrEmptyQuery = errors.New("search query cannot be empty")

// Options tunes the search service.
type Options struct {
	// DefaultLimit is used when a request carries no limit. Defaults to 10.
	DefaultLimit int

	// OverfetchFactor is the initial multiple of (limit+offset) candidates
	// requested before filtering. Defaults to 4.
	OverfetchFactor int

	// MaxOverfetchFactor caps the doubling retry when filters reject too
	// many candidates. Defaults to 32.
	MaxOverfetchFactor int

	// MaxParagraphsPerPaper caps the matching paragraphs attached to one
	// result. Defaults to 3.
	MaxParagraphsPerPaper int

	// SimilarityThreshold drops hits scoring below it before filtering.
	// Zero keeps everything.
	SimilarityThreshold float64
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 10
	}
	if o.OverfetchFactor <= 0 {
		o.OverfetchFactor = 4
	}
	if o.MaxOverfetchFactor <= 0 {
		o.MaxOverfetchFactor = 32
	}
	// The cap must admit at least the first pass.
	if o.MaxOverfetchFactor < o.OverfetchFactor {
		o.MaxOverfetchFactor = o.OverfetchFactor
	}
	if o.MaxParagraphsPerPaper <= 0 {
		o.MaxParagraphsPerPaper = 3
	}
	return o
}

// Request is one search call.
type Request struct {
	Query         string
	Filters       *papers.Filter
	UseParagraphs bool
	Limit         int
	Offset        int
}

// ParagraphMatch is one qualifying paragraph hit attached to a result.
type ParagraphMatch struct {
	Section        string  `json:"section"`
	ParagraphIndex int     `json:"paragraph_index"`
	Text           string  `json:"text"`
	Score          float64 `json:"score"`
	Context        string  `json:"context"`
}

// Result is one ranked paper.
type Result struct {
	PaperID         string   `json:"paper_id"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	PublicationYear *int     `json:"publication_year,omitempty"`
	Conference      string   `json:"conference,omitempty"`
	Journal         string   `json:"journal,omitempty"`
	Abstract        string   `json:"abstract"`
	Keywords        []string `json:"keywords,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`

	// MatchingParagraphs is populated in paragraph mode, capped at
	// MaxParagraphsPerPaper and ordered best first.
	MatchingParagraphs []ParagraphMatch `json:"matching_paragraphs,omitempty"`

	// MoreParagraphs counts qualifying paragraph hits beyond the cap.
	MoreParagraphs int `json:"more_paragraphs,omitempty"`
}

// Response is the full outcome of one search call. TotalCount reflects the
// complete filtered set, not just the returned page.
type Response struct {
	Results         []Result `json:"results"`
	TotalCount      int      `json:"total_count"`
	Query           string   `json:"query"`
	ExecutionTimeMS float64  `json:"execution_time_ms"`
}

// Service performs semantic search against the index manager's live
// snapshots, hydrating results from the metadata store.
type Service struct {
	manager  *index.Manager
	store    papers.Store
	embedder embeddings.Embedder
	logger   *zap.Logger
	opts     Options
}

// NewService creates a search service.
func NewService(manager *index.Manager, store papers.Store, embedder embeddings.Embedder, logger *zap.Logger, opts Options) *Service {
	return &Service{
		manager:  manager,
		store:    store,
		embedder: embedder,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

// Search runs one query. It returns index.ErrIndexNotReady when the
// requested granularity has never been built, and ErrEmptyQuery for blank
// input.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	granularity := vector.GranularityPaper
	if req.UseParagraphs {
		granularity = vector.GranularityParagraph
	}

	snap, err := s.manager.Live(granularity)
	if err != nil {
		return nil, err
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	s.logger.Debug("search request",
		zap.String("query", query),
		zap.String("granularity", string(granularity)),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	// Over-fetch to compensate for filter rejection, doubling the factor
	// (bounded) when too few candidates survive.
	need := limit + offset
	var entries []entry
	for factor := s.opts.OverfetchFactor; ; factor *= 2 {
		fetch := need * factor
		if fetch > snap.Len() {
			fetch = snap.Len()
		}

		hits, err := snap.TopK(emb, fetch, false)
		if err != nil {
			return nil, err
		}

		entries, err = s.assemble(ctx, hits, req.Filters, req.UseParagraphs)
		if err != nil {
			return nil, err
		}

		if len(entries) >= need || fetch >= snap.Len() || factor >= s.opts.MaxOverfetchFactor {
			break
		}
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].score != entries[b].score {
			return entries[a].score > entries[b].score
		}
		return entries[a].paper.ID < entries[b].paper.ID
	})

	total := len(entries)
	page := paginate(entries, offset, limit)

	results := make([]Result, 0, len(page))
	for _, e := range page {
		result, err := s.hydrate(ctx, e)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return &Response{
		Results:         results,
		TotalCount:      total,
		Query:           query,
		ExecutionTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}

// entry is one paper that survived filtering, with its representative score
// and, in paragraph mode, its qualifying paragraph hits (best first, capped).
type entry struct {
	paper          *papers.Paper
	score          float64
	paragraphHits  []vector.Hit
	moreParagraphs int
}

// assemble applies the similarity threshold and metadata filter to raw hits
// and groups paragraph hits by owning paper.
func (s *Service) assemble(ctx context.Context, hits []vector.Hit, filter *papers.Filter, byParagraph bool) ([]entry, error) {
	cache := make(map[string]*papers.Paper)

	lookup := func(id string) (*papers.Paper, error) {
		if p, ok := cache[id]; ok {
			return p, nil
		}
		p, err := s.store.GetPaper(ctx, id)
		if err != nil {
			var notFound papers.NotFoundError
			if errors.As(err, &notFound) {
				// Indexed unit whose paper left the corpus after
				// the last rebuild; drop it.
				s.logger.Warn("dropping hit without metadata", zap.String("paper_id", id))
				cache[id] = nil
				return nil, nil
			}
			return nil, err
		}
		cache[id] = p
		return p, nil
	}

	if !byParagraph {
		entries := make([]entry, 0, len(hits))
		for _, hit := range hits {
			if hit.Score < s.opts.SimilarityThreshold {
				continue
			}
			paper, err := lookup(hit.ID)
			if err != nil {
				return nil, err
			}
			if paper == nil || !filter.Matches(paper) {
				continue
			}
			entries = append(entries, entry{paper: paper, score: hit.Score})
		}
		return entries, nil
	}

	groups := make(map[string]*entry)
	order := make([]string, 0)
	for _, hit := range hits {
		if hit.Score < s.opts.SimilarityThreshold {
			continue
		}
		paper, err := lookup(hit.PaperID)
		if err != nil {
			return nil, err
		}
		if paper == nil || !filter.Matches(paper) {
			continue
		}

		g, ok := groups[paper.ID]
		if !ok {
			g = &entry{paper: paper}
			groups[paper.ID] = g
			order = append(order, paper.ID)
		}
		g.paragraphHits = append(g.paragraphHits, hit)
		if hit.Score > g.score {
			g.score = hit.Score
		}
	}

	entries := make([]entry, 0, len(groups))
	for _, id := range order {
		g := groups[id]
		sort.Slice(g.paragraphHits, func(a, b int) bool {
			if g.paragraphHits[a].Score != g.paragraphHits[b].Score {
				return g.paragraphHits[a].Score > g.paragraphHits[b].Score
			}
			return g.paragraphHits[a].ID < g.paragraphHits[b].ID
		})
		if len(g.paragraphHits) > s.opts.MaxParagraphsPerPaper {
			g.moreParagraphs = len(g.paragraphHits) - s.opts.MaxParagraphsPerPaper
			g.paragraphHits = g.paragraphHits[:s.opts.MaxParagraphsPerPaper]
		}
		entries = append(entries, *g)
	}
	return entries, nil
}

// hydrate turns one entry into a Result, loading paragraph records for the
// kept hits.
func (s *Service) hydrate(ctx context.Context, e entry) (Result, error) {
	result := Result{
		PaperID:         e.paper.ID,
		Title:           e.paper.Title,
		Authors:         e.paper.Authors,
		PublicationYear: e.paper.PublicationYear,
		Conference:      e.paper.Conference,
		Journal:         e.paper.Journal,
		Abstract:        e.paper.Abstract,
		Keywords:        e.paper.Keywords,
		SimilarityScore: e.score,
		MoreParagraphs:  e.moreParagraphs,
	}

	for _, hit := range e.paragraphHits {
		para, err := s.store.GetParagraph(ctx, hit.ID)
		if err != nil {
			var notFound papers.NotFoundError
			if errors.As(err, &notFound) {
				s.logger.Warn("dropping paragraph without metadata", zap.String("paragraph_id", hit.ID))
				continue
			}
			return Result{}, err
		}
		result.MatchingParagraphs = append(result.MatchingParagraphs, ParagraphMatch{
			Section:        para.Section,
			ParagraphIndex: para.ParagraphIndex,
			Text:           para.Text,
			Score:          hit.Score,
			Context:        para.Context,
		})
	}

	return result, nil
}

// FilterOptions exposes the store's distinct filterable values for UIs.
func (s *Service) FilterOptions(ctx context.Context) (*papers.FilterOptions, error) {
	return s.store.FilterOptions(ctx)
}

func paginate(entries []entry, offset, limit int) []entry {
	if offset >= len(entries) {
		return nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}
