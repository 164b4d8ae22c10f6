package hashing

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shelfworksco/stacks/pkg/embeddings"
)

var _ = Describe("Embedder", func() {
	var (
		embedder *Embedder
		ctx      context.Context
	)

	BeforeEach(func() {
		var err error
		embedder, err = NewEmbedder(Config{})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	It("defaults to the standard dimension", func() {
		Expect(embedder.Dimension()).To(Equal(DefaultDimension))
	})

	It("honors a configured dimension", func() {
		small, err := NewEmbedder(Config{Dimension: 64})
		Expect(err).NotTo(HaveOccurred())

		vec, err := small.Embed(ctx, "semantic search")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveLen(64))
	})

	It("produces unit-length vectors", func() {
		vec, err := embedder.Embed(ctx, "hierarchical navigable small world graphs")
		Expect(err).NotTo(HaveOccurred())

		var sum float64
		for _, x := range vec {
			sum += float64(x) * float64(x)
		}
		Expect(math.Sqrt(sum)).To(BeNumerically("~", 1.0, 1e-5))
	})

	It("is deterministic", func() {
		a, err := embedder.Embed(ctx, "attention is all you need")
		Expect(err).NotTo(HaveOccurred())
		b, err := embedder.Embed(ctx, "attention is all you need")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("ignores case and punctuation differences", func() {
		a, err := embedder.Embed(ctx, "Dense Passage Retrieval!")
		Expect(err).NotTo(HaveOccurred())
		b, err := embedder.Embed(ctx, "dense passage retrieval")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("distinguishes unrelated texts", func() {
		a, err := embedder.Embed(ctx, "graph algorithms for nearest neighbor search")
		Expect(err).NotTo(HaveOccurred())
		b, err := embedder.Embed(ctx, "pretrained bidirectional language models")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).NotTo(Equal(b))
	})

	It("rejects empty input", func() {
		_, err := embedder.Embed(ctx, "")
		Expect(err).To(MatchError(embeddings.ErrEmptyInput))
	})

	It("rejects input with no tokens after normalization", func() {
		_, err := embedder.Embed(ctx, "  ... !!! ---  ")
		Expect(err).To(MatchError(embeddings.ErrEmptyInput))
	})
})
