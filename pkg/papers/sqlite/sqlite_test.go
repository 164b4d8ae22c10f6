package sqlite

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shelfworksco/stacks/pkg/papers"
)

func year(y int) *int { return &y }

var _ = Describe("Store", func() {
	var (
		store *Store
		ctx   context.Context
	)

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "stacks-sqlite-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(dir)
		})

		store, err = NewStore(filepath.Join(dir, "stacks.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = store.Close()
		})

		ctx = context.Background()
	})

	paper := func(id string) *papers.Paper {
		return &papers.Paper{
			ID:              id,
			Title:           "Title " + id,
			Authors:         []string{"First Author", "Second Author"},
			Abstract:        "Abstract for " + id,
			PublicationYear: year(2022),
			Conference:      "SIGMOD",
			Keywords:        []string{"databases", "indexing"},
		}
	}

	paras := func(id string) []*papers.Paragraph {
		return []*papers.Paragraph{
			{ID: id + ":p0", PaperID: id, Section: "introduction", ParagraphIndex: 0, Text: "first block", Context: "first block\n\nsecond block"},
			{ID: id + ":p1", PaperID: id, Section: "results", ParagraphIndex: 1, Text: "second block", Context: "first block\n\nsecond block"},
		}
	}

	It("round-trips a paper with all fields", func() {
		Expect(store.PutPaper(ctx, paper("a"), paras("a"))).To(Succeed())

		got, err := store.GetPaper(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Title).To(Equal("Title a"))
		Expect(got.Authors).To(Equal([]string{"First Author", "Second Author"}))
		Expect(got.PublicationYear).To(HaveValue(Equal(2022)))
		Expect(got.Conference).To(Equal("SIGMOD"))
		Expect(got.Keywords).To(Equal([]string{"databases", "indexing"}))
	})

	It("round-trips papers with optional fields unset", func() {
		minimal := &papers.Paper{ID: "m", Title: "Minimal"}
		Expect(store.PutPaper(ctx, minimal, nil)).To(Succeed())

		got, err := store.GetPaper(ctx, "m")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PublicationYear).To(BeNil())
		Expect(got.Conference).To(BeEmpty())
		Expect(got.Journal).To(BeEmpty())
	})

	It("returns NotFoundError for a missing paper", func() {
		_, err := store.GetPaper(ctx, "missing")
		Expect(err).To(MatchError(papers.NotFoundError{ID: "missing"}))
	})

	It("replaces the paper and its paragraphs on re-put", func() {
		Expect(store.PutPaper(ctx, paper("a"), paras("a"))).To(Succeed())

		updated := paper("a")
		updated.Title = "Updated Title"
		Expect(store.PutPaper(ctx, updated, []*papers.Paragraph{
			{ID: "a:p0", PaperID: "a", Text: "only block"},
		})).To(Succeed())

		got, err := store.GetPaper(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Title).To(Equal("Updated Title"))

		all, err := store.ListParagraphs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Text).To(Equal("only block"))
	})

	It("lists papers and paragraphs ordered by id", func() {
		Expect(store.PutPaper(ctx, paper("b"), paras("b"))).To(Succeed())
		Expect(store.PutPaper(ctx, paper("a"), paras("a"))).To(Succeed())

		all, err := store.ListPapers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
		Expect(all[0].ID).To(Equal("a"))

		pgs, err := store.ListParagraphs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(pgs).To(HaveLen(4))
		Expect(pgs[0].ID).To(Equal("a:p0"))
	})

	It("retrieves a paragraph with its context", func() {
		Expect(store.PutPaper(ctx, paper("a"), paras("a"))).To(Succeed())

		got, err := store.GetParagraph(ctx, "a:p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Section).To(Equal("results"))
		Expect(got.ParagraphIndex).To(Equal(1))
		Expect(got.Context).To(ContainSubstring("first block"))
	})

	It("cascades paragraph deletion with the paper", func() {
		Expect(store.PutPaper(ctx, paper("a"), paras("a"))).To(Succeed())
		Expect(store.DeletePaper(ctx, "a")).To(Succeed())

		remaining, err := store.ListParagraphs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(BeEmpty())

		Expect(store.DeletePaper(ctx, "a")).NotTo(Succeed())
	})

	It("counts papers", func() {
		Expect(store.PutPaper(ctx, paper("a"), nil)).To(Succeed())
		Expect(store.PutPaper(ctx, paper("b"), nil)).To(Succeed())

		n, err := store.CountPapers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("enumerates distinct filter options", func() {
		a := paper("a")
		b := paper("b")
		b.PublicationYear = year(2018)
		b.Conference = ""
		b.Journal = "VLDB Journal"

		Expect(store.PutPaper(ctx, a, nil)).To(Succeed())
		Expect(store.PutPaper(ctx, b, nil)).To(Succeed())

		opts, err := store.FilterOptions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Years).To(Equal([]int{2018, 2022}))
		Expect(opts.Conferences).To(Equal([]string{"SIGMOD"}))
		Expect(opts.Journals).To(Equal([]string{"VLDB Journal"}))
		Expect(opts.Authors).To(ContainElements("First Author", "Second Author"))
	})
})
