package hnsw

import (
	"math"
	"math/rand"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func randomUnitVectors(rng *rand.Rand, n, dim int) [][]float32 {
	vecs := make([][]float32, n)
	for i := range vecs {
		v := make([]float32, dim)
		var sum float64
		for j := range v {
			v[j] = float32(rng.NormFloat64())
			sum += float64(v[j]) * float64(v[j])
		}
		inv := float32(1.0 / math.Sqrt(sum))
		for j := range v {
			v[j] *= inv
		}
		vecs[i] = v
	}
	return vecs
}

func bruteForce(vecs [][]float32, query []float32, k int) []Candidate {
	scored := make([]Candidate, len(vecs))
	for i, v := range vecs {
		var s float64
		for j := range v {
			s += float64(query[j]) * float64(v[j])
		}
		scored[i] = Candidate{Ordinal: i, Score: s}
	}
	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].Ordinal < scored[b].Ordinal
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

var _ = Describe("Build", func() {
	It("rejects vectors with mismatched dimensions", func() {
		_, err := Build([][]float32{{1, 0}, {1}}, 2, Config{})
		Expect(err).To(HaveOccurred())
	})

	It("builds an empty graph", func() {
		g, err := Build(nil, 4, Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Len()).To(BeZero())
		Expect(g.Search([]float32{1, 0, 0, 0}, 3, 0)).To(BeNil())
	})

	It("is deterministic for a fixed seed", func() {
		rng := rand.New(rand.NewSource(11))
		vecs := randomUnitVectors(rng, 100, 8)

		a, err := Build(vecs, 8, Config{Seed: 3})
		Expect(err).NotTo(HaveOccurred())
		b, err := Build(vecs, 8, Config{Seed: 3})
		Expect(err).NotTo(HaveOccurred())

		q := randomUnitVectors(rng, 1, 8)[0]
		Expect(a.Search(q, 10, 0)).To(Equal(b.Search(q, 10, 0)))
	})
})

var _ = Describe("Search", func() {
	var (
		vecs [][]float32
		g    *Graph
		rng  *rand.Rand
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(23))
		vecs = randomUnitVectors(rng, 120, 12)

		var err error
		g, err = Build(vecs, 12, Config{Seed: 5})
		Expect(err).NotTo(HaveOccurred())
	})

	It("matches the brute-force ranking on small sets", func() {
		for trial := 0; trial < 10; trial++ {
			q := randomUnitVectors(rng, 1, 12)[0]

			got := g.Search(q, 10, 0)
			want := bruteForce(vecs, q, 10)

			Expect(got).To(HaveLen(10))
			gotIDs := make([]int, len(got))
			wantIDs := make([]int, len(want))
			for i := range got {
				gotIDs[i] = got[i].Ordinal
				wantIDs[i] = want[i].Ordinal
			}
			Expect(gotIDs).To(Equal(wantIDs))
		}
	})

	It("orders results by descending score", func() {
		q := randomUnitVectors(rng, 1, 12)[0]
		got := g.Search(q, 20, 0)
		for i := 1; i < len(got); i++ {
			Expect(got[i].Score).To(BeNumerically("<=", got[i-1].Score))
		}
	})

	It("finds an indexed vector as its own nearest neighbor", func() {
		got := g.Search(vecs[37], 1, 0)
		Expect(got).To(HaveLen(1))
		Expect(got[0].Ordinal).To(Equal(37))
		Expect(got[0].Score).To(BeNumerically("~", 1.0, 1e-5))
	})

	It("raises ef to at least k", func() {
		q := randomUnitVectors(rng, 1, 12)[0]
		got := g.Search(q, 30, 1)
		Expect(got).To(HaveLen(30))
	})

	It("returns nothing for non-positive k", func() {
		q := randomUnitVectors(rng, 1, 12)[0]
		Expect(g.Search(q, 0, 0)).To(BeNil())
	})
})
