package search

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/embeddings/hashing"
	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/papers"
	"github.com/shelfworksco/stacks/pkg/papers/inmemory"
	"github.com/shelfworksco/stacks/pkg/vector"
)

func year(y int) *int { return &y }

func corpus() []*papers.Paper {
	return []*papers.Paper{
		{
			ID:              "p-quantum",
			Title:           "Quantum Computing with Superconducting Qubits",
			Abstract:        "We study quantum error correction for superconducting qubits in noisy quantum computers.",
			Authors:         []string{"Alice Smith"},
			PublicationYear: year(2021),
			Conference:      "QIP",
			Keywords:        []string{"quantum", "qubits"},
		},
		{
			ID:              "p-neural",
			Title:           "Convolutional Neural Networks for Image Recognition",
			Abstract:        "Deep convolutional neural networks achieve strong accuracy on image recognition benchmarks.",
			Authors:         []string{"Bob Jones"},
			PublicationYear: year(2019),
			Conference:      "CVPR",
			Keywords:        []string{"vision", "neural networks"},
		},
		{
			ID:              "p-database",
			Title:           "Indexing Structures for Modern Database Systems",
			Abstract:        "A survey of b-tree and log-structured indexing structures in database storage engines.",
			Authors:         []string{"Alice Smith", "Carol White"},
			PublicationYear: year(2021),
			Journal:         "TODS",
			Keywords:        []string{"databases", "indexing"},
		},
	}
}

var _ = Describe("Options", func() {
	It("fills zero values with defaults", func() {
		o := Options{}.withDefaults()
		Expect(o.DefaultLimit).To(Equal(10))
		Expect(o.OverfetchFactor).To(Equal(4))
		Expect(o.MaxOverfetchFactor).To(Equal(32))
		Expect(o.MaxParagraphsPerPaper).To(Equal(3))
	})

	It("raises the overfetch cap to at least the initial factor", func() {
		o := Options{OverfetchFactor: 64}.withDefaults()
		Expect(o.MaxOverfetchFactor).To(BeNumerically(">=", 64))

		o = Options{OverfetchFactor: 8, MaxOverfetchFactor: 2}.withDefaults()
		Expect(o.MaxOverfetchFactor).To(Equal(8))
	})
})

var _ = Describe("Service", func() {
	var (
		store   *inmemory.Store
		manager *index.Manager
		service *Service
		ctx     context.Context
	)

	newService := func(opts Options) *Service {
		embedder, err := hashing.NewEmbedder(hashing.Config{Dimension: 64})
		Expect(err).NotTo(HaveOccurred())
		return NewService(manager, store, embedder, zap.NewNop(), opts)
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewStore()

		for _, p := range corpus() {
			Expect(store.PutPaper(ctx, p, nil)).To(Succeed())
		}

		embedder, err := hashing.NewEmbedder(hashing.Config{Dimension: 64})
		Expect(err).NotTo(HaveOccurred())
		manager = index.NewManager(store, embedder, vector.BuildOptions{}, zap.NewNop())
		service = newService(Options{})
	})

	rebuild := func(g vector.Granularity) {
		_, err := manager.Rebuild(ctx, g)
		Expect(err).NotTo(HaveOccurred())
	}

	It("rejects empty and whitespace-only queries", func() {
		rebuild(vector.GranularityPaper)

		_, err := service.Search(ctx, Request{Query: ""})
		Expect(err).To(MatchError(ErrEmptyQuery))

		_, err = service.Search(ctx, Request{Query: "   "})
		Expect(err).To(MatchError(ErrEmptyQuery))
	})

	It("fails before the index is built", func() {
		_, err := service.Search(ctx, Request{Query: "anything"})
		Expect(err).To(MatchError(index.ErrIndexNotReady))
	})

	It("fails for an unbuilt granularity independently", func() {
		rebuild(vector.GranularityPaper)

		_, err := service.Search(ctx, Request{Query: "anything", UseParagraphs: true})
		Expect(err).To(MatchError(index.ErrIndexNotReady))
	})

	It("ranks the topically closest paper first", func() {
		rebuild(vector.GranularityPaper)

		resp, err := service.Search(ctx, Request{Query: "quantum error correction for qubits"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Results).NotTo(BeEmpty())
		Expect(resp.Results[0].PaperID).To(Equal("p-quantum"))
		Expect(resp.TotalCount).To(Equal(3))
		Expect(resp.Query).To(Equal("quantum error correction for qubits"))

		for i := 1; i < len(resp.Results); i++ {
			Expect(resp.Results[i].SimilarityScore).To(BeNumerically("<=", resp.Results[i-1].SimilarityScore))
		}
	})

	It("scores a query equal to a stored abstract as a perfect match", func() {
		rebuild(vector.GranularityPaper)

		resp, err := service.Search(ctx, Request{Query: corpus()[0].Abstract})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Results).NotTo(BeEmpty())
		Expect(resp.Results[0].PaperID).To(Equal("p-quantum"))
		Expect(resp.Results[0].SimilarityScore).To(BeNumerically("~", 1.0, 1e-4))
	})

	It("hydrates full paper metadata into results", func() {
		rebuild(vector.GranularityPaper)

		resp, err := service.Search(ctx, Request{Query: "superconducting qubits"})
		Expect(err).NotTo(HaveOccurred())

		top := resp.Results[0]
		Expect(top.Title).To(Equal("Quantum Computing with Superconducting Qubits"))
		Expect(top.Authors).To(Equal([]string{"Alice Smith"}))
		Expect(top.PublicationYear).To(HaveValue(Equal(2021)))
		Expect(top.Conference).To(Equal("QIP"))
		Expect(top.SimilarityScore).To(BeNumerically(">", 0))
		Expect(top.SimilarityScore).To(BeNumerically("<=", 1))
	})

	Describe("filtering", func() {
		BeforeEach(func() {
			rebuild(vector.GranularityPaper)
		})

		It("applies the year range", func() {
			resp, err := service.Search(ctx, Request{
				Query:   "research",
				Filters: &papers.Filter{YearMin: year(2020)},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.TotalCount).To(Equal(2))
			for _, r := range resp.Results {
				Expect(*r.PublicationYear).To(BeNumerically(">=", 2020))
			}
		})

		It("combines criteria as a conjunction", func() {
			resp, err := service.Search(ctx, Request{
				Query: "research",
				Filters: &papers.Filter{
					YearMin: year(2021),
					Authors: []string{"Alice Smith"},
					Journal: "TODS",
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.TotalCount).To(Equal(1))
			Expect(resp.Results[0].PaperID).To(Equal("p-database"))
		})

		It("returns an empty result set when nothing matches", func() {
			resp, err := service.Search(ctx, Request{
				Query:   "research",
				Filters: &papers.Filter{Conference: "NoSuchVenue"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(BeEmpty())
			Expect(resp.TotalCount).To(BeZero())
		})
	})

	Describe("pagination", func() {
		BeforeEach(func() {
			rebuild(vector.GranularityPaper)
		})

		It("slices the ordered result sequence", func() {
			full, err := service.Search(ctx, Request{Query: "research papers"})
			Expect(err).NotTo(HaveOccurred())
			Expect(full.Results).To(HaveLen(3))

			page, err := service.Search(ctx, Request{Query: "research papers", Limit: 1, Offset: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Results).To(HaveLen(1))
			Expect(page.TotalCount).To(Equal(3))
			Expect(page.Results[0].PaperID).To(Equal(full.Results[1].PaperID))
		})

		It("returns an empty page past the end", func() {
			resp, err := service.Search(ctx, Request{Query: "research papers", Limit: 5, Offset: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(BeEmpty())
			Expect(resp.TotalCount).To(Equal(3))
		})
	})

	It("drops hits below the similarity threshold", func() {
		rebuild(vector.GranularityPaper)

		strict := newService(Options{SimilarityThreshold: 0.9999})
		resp, err := strict.Search(ctx, Request{Query: "completely unrelated nonsense tokens"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Results).To(BeEmpty())
		Expect(resp.TotalCount).To(BeZero())
	})

	Describe("paragraph search", func() {
		BeforeEach(func() {
			quantum := corpus()[0]
			paragraphs := make([]*papers.Paragraph, 5)
			for i := range paragraphs {
				paragraphs[i] = &papers.Paragraph{
					ID:             fmt.Sprintf("p-quantum:p%d", i),
					PaperID:        "p-quantum",
					Section:        "results",
					ParagraphIndex: i,
					Text:           fmt.Sprintf("Qubit coherence measurement %d shows quantum error rates improving.", i),
				}
			}
			Expect(store.PutPaper(ctx, quantum, paragraphs)).To(Succeed())

			neural := corpus()[1]
			Expect(store.PutPaper(ctx, neural, []*papers.Paragraph{
				{ID: "p-neural:p0", PaperID: "p-neural", Section: "methods", ParagraphIndex: 0,
					Text: "Convolutional layers extract image features hierarchically."},
			})).To(Succeed())

			rebuild(vector.GranularityParagraph)
		})

		It("groups paragraph hits by paper and caps attached matches", func() {
			resp, err := service.Search(ctx, Request{
				Query:         "qubit coherence quantum error",
				UseParagraphs: true,
				Limit:         10,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).NotTo(BeEmpty())

			top := resp.Results[0]
			Expect(top.PaperID).To(Equal("p-quantum"))
			Expect(top.MatchingParagraphs).To(HaveLen(3))
			Expect(top.MoreParagraphs).To(Equal(2))

			for i := 1; i < len(top.MatchingParagraphs); i++ {
				Expect(top.MatchingParagraphs[i].Score).To(BeNumerically("<=", top.MatchingParagraphs[i-1].Score))
			}

			// The representative score is the best paragraph's score.
			Expect(top.SimilarityScore).To(Equal(top.MatchingParagraphs[0].Score))
		})

		It("counts each paper once", func() {
			resp, err := service.Search(ctx, Request{
				Query:         "qubit coherence quantum error",
				UseParagraphs: true,
				Limit:         10,
			})
			Expect(err).NotTo(HaveOccurred())

			seen := make(map[string]bool)
			for _, r := range resp.Results {
				Expect(seen[r.PaperID]).To(BeFalse())
				seen[r.PaperID] = true
			}
		})

		It("attaches section labels and paragraph text", func() {
			resp, err := service.Search(ctx, Request{
				Query:         "qubit coherence",
				UseParagraphs: true,
			})
			Expect(err).NotTo(HaveOccurred())

			top := resp.Results[0]
			Expect(top.MatchingParagraphs).NotTo(BeEmpty())
			Expect(top.MatchingParagraphs[0].Section).To(Equal("results"))
			Expect(top.MatchingParagraphs[0].Text).To(ContainSubstring("coherence"))
		})
	})

	It("exposes the store's filter options", func() {
		opts, err := service.FilterOptions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Years).To(Equal([]int{2019, 2021}))
		Expect(opts.Conferences).To(ContainElements("QIP", "CVPR"))
		Expect(opts.Journals).To(Equal([]string{"TODS"}))
	})
})
