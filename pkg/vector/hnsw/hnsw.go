// Package hnsw implements a hierarchical navigable small-world graph for
// approximate nearest-neighbor search. Vectors are expected to be
// unit-normalized so the dot product is the cosine similarity. The graph is
// built once from a fixed vector set and is immutable afterwards; level
// assignment uses a seeded source so identical inputs produce identical
// graphs.
package hnsw

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const (
	// DefaultM is the number of bidirectional links per node and layer.
	DefaultM = 32

	// DefaultEfConstruction is the candidate list size during build.
	DefaultEfConstruction = 200

	// DefaultEfSearch is the candidate list size during queries.
	DefaultEfSearch = 128
)

// Config holds the HNSW build and search parameters.
type Config struct {
	// M is the number of links per node per layer. Defaults to DefaultM.
	M int

	// EfConstruction is the dynamic candidate list size used while
	// inserting. Defaults to DefaultEfConstruction.
	EfConstruction int

	// EfSearch is the dynamic candidate list size used while querying.
	// Defaults to DefaultEfSearch.
	EfSearch int

	// Seed drives level assignment. Builds with the same seed and input
	// are identical.
	Seed int64
}

func (c Config) withDefaults() Config {
	if c.M <= 0 {
		c.M = DefaultM
	}
	if c.EfConstruction <= 0 {
		c.EfConstruction = DefaultEfConstruction
	}
	if c.EfSearch <= 0 {
		c.EfSearch = DefaultEfSearch
	}
	return c
}

// Candidate is one scored entry, identified by its ordinal position in the
// vector set the graph was built from.
type Candidate struct {
	Ordinal int
	Score   float64
}

// Graph is an immutable HNSW index over a fixed vector set.
type Graph struct {
	cfg  Config
	dim  int
	vecs [][]float32

	// neighbors[i][l] holds node i's neighbor ordinals at layer l.
	neighbors [][][]int32
	levels    []int
	entry     int32
	maxLevel  int
}

// Build constructs the graph by sequentially inserting all vectors.
func Build(vectors [][]float32, dim int, cfg Config) (*Graph, error) {
	for i := range vectors {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("hnsw: vector %d has dim %d, want %d", i, len(vectors[i]), dim)
		}
	}

	cfg = cfg.withDefaults()
	g := &Graph{
		cfg:       cfg,
		dim:       dim,
		vecs:      vectors,
		neighbors: make([][][]int32, len(vectors)),
		levels:    make([]int, len(vectors)),
		entry:     -1,
		maxLevel:  -1,
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ml := 1.0 / math.Log(float64(cfg.M))

	for i := range vectors {
		g.insert(int32(i), randLevel(rng, ml))
	}

	return g, nil
}

// Len returns the number of indexed vectors.
func (g *Graph) Len() int {
	return len(g.vecs)
}

// Search returns up to k candidates ordered by descending score, ties broken
// by ascending ordinal. ef bounds the candidate list; zero means the
// configured EfSearch, and values below k are raised to k.
func (g *Graph) Search(query []float32, k, ef int) []Candidate {
	if k <= 0 || g.entry < 0 {
		return nil
	}
	if ef <= 0 {
		ef = g.cfg.EfSearch
	}
	if ef < k {
		ef = k
	}

	cur := g.entry
	for l := g.maxLevel; l > 0; l-- {
		cur = g.greedyClosest(query, cur, l)
	}

	found := g.searchLayer(query, cur, ef, 0)
	sort.Slice(found, func(a, b int) bool {
		if found[a].sim != found[b].sim {
			return found[a].sim > found[b].sim
		}
		return found[a].ord < found[b].ord
	})

	if k > len(found) {
		k = len(found)
	}
	out := make([]Candidate, k)
	for i := 0; i < k; i++ {
		out[i] = Candidate{Ordinal: int(found[i].ord), Score: found[i].sim}
	}
	return out
}

func (g *Graph) insert(id int32, level int) {
	g.levels[id] = level
	g.neighbors[id] = make([][]int32, level+1)

	if g.entry < 0 {
		g.entry = id
		g.maxLevel = level
		return
	}

	q := g.vecs[id]
	cur := g.entry

	for l := g.maxLevel; l > level; l-- {
		cur = g.greedyClosest(q, cur, l)
	}

	top := level
	if top > g.maxLevel {
		top = g.maxLevel
	}

	for l := top; l >= 0; l-- {
		found := g.searchLayer(q, cur, g.cfg.EfConstruction, l)
		sort.Slice(found, func(a, b int) bool {
			if found[a].sim != found[b].sim {
				return found[a].sim > found[b].sim
			}
			return found[a].ord < found[b].ord
		})

		m := g.cfg.M
		if m > len(found) {
			m = len(found)
		}

		for _, c := range found[:m] {
			g.neighbors[id][l] = append(g.neighbors[id][l], c.ord)
			g.neighbors[c.ord][l] = append(g.neighbors[c.ord][l], id)
			g.prune(c.ord, l)
		}

		if len(found) > 0 {
			cur = found[0].ord
		}
	}

	if level > g.maxLevel {
		g.entry = id
		g.maxLevel = level
	}
}

// maxConn is the link cap per layer: 2*M on the base layer, M above it.
func (g *Graph) maxConn(level int) int {
	if level == 0 {
		return 2 * g.cfg.M
	}
	return g.cfg.M
}

// prune trims a node's neighbor list back to maxConn, keeping the links most
// similar to the node itself.
func (g *Graph) prune(id int32, level int) {
	links := g.neighbors[id][level]
	limit := g.maxConn(level)
	if len(links) <= limit {
		return
	}

	v := g.vecs[id]
	sort.Slice(links, func(a, b int) bool {
		sa, sb := dot(v, g.vecs[links[a]]), dot(v, g.vecs[links[b]])
		if sa != sb {
			return sa > sb
		}
		return links[a] < links[b]
	})
	g.neighbors[id][level] = links[:limit]
}

// greedyClosest walks a single layer greedily toward the query.
func (g *Graph) greedyClosest(q []float32, start int32, level int) int32 {
	cur := start
	curSim := dot(q, g.vecs[cur])
	for {
		improved := false
		for _, n := range g.neighborsAt(cur, level) {
			if s := dot(q, g.vecs[n]); s > curSim {
				cur, curSim = n, s
				improved = true
			}
		}
		if !improved {
			return cur
		}
	}
}

func (g *Graph) neighborsAt(id int32, level int) []int32 {
	if level > g.levels[id] {
		return nil
	}
	return g.neighbors[id][level]
}

type scored struct {
	ord int32
	sim float64
}

// searchLayer is the ef-bounded best-first search over one layer.
func (g *Graph) searchLayer(q []float32, entry int32, ef, level int) []scored {
	visited := make(map[int32]struct{}, ef*2)
	visited[entry] = struct{}{}

	start := scored{ord: entry, sim: dot(q, g.vecs[entry])}

	// candidates: best-first expansion queue; results: worst-on-top so
	// the weakest of the ef best is evictable in O(log ef).
	candidates := &maxHeap{start}
	results := &minHeap{start}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(scored)
		worst := (*results)[0]
		if c.sim < worst.sim && results.Len() >= ef {
			break
		}

		for _, n := range g.neighborsAt(c.ord, level) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}

			s := scored{ord: n, sim: dot(q, g.vecs[n])}
			if results.Len() < ef {
				heap.Push(candidates, s)
				heap.Push(results, s)
			} else if s.sim > (*results)[0].sim {
				heap.Push(candidates, s)
				heap.Pop(results)
				heap.Push(results, s)
			}
		}
	}

	return *results
}

func randLevel(rng *rand.Rand, ml float64) int {
	u := rng.Float64()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	return int(math.Floor(-math.Log(u) * ml))
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

type maxHeap []scored

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].sim > h[j].sim }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(scored)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type minHeap []scored

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].sim < h[j].sim }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(scored)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
