package vectorindex

import (
	"container/heap"
	"math"
	"math/rand"
)

// hnswSearcher is an in-memory HNSW graph over unit vectors, used for
// mid-sized corpora where brute force gets slow but cluster-based
// indexing is not yet worth its build cost. Tuned for high recall:
// search always explores at least efSearch candidates at the base
// layer.
type hnswSearcher struct {
	m        int // neighbors per node above the base layer
	m0       int // neighbors per node at the base layer
	efSearch int
	efBuild  int
	ml       float64

	nodes    []hnswNode
	entry    int
	maxLevel int
}

type hnswNode struct {
	id        string
	vec       []float32
	neighbors [][]int // layer -> neighbor indexes
}

func newHNSWSearcher(ids []string, vecs [][]float32, m, efSearch int) *hnswSearcher {
	h := &hnswSearcher{
		m:        m,
		m0:       2 * m,
		efSearch: efSearch,
		efBuild:  max(2*efSearch, 100),
		ml:       1 / math.Log(float64(m)),
		entry:    -1,
		maxLevel: -1,
	}
	// Fixed seed keeps the graph, and therefore results, reproducible
	// for identical inputs.
	rng := rand.New(rand.NewSource(42))
	for i := range ids {
		h.insert(ids[i], vecs[i], h.randomLevel(rng))
	}
	return h
}

func (h *hnswSearcher) randomLevel(rng *rand.Rand) int {
	return int(-math.Log(rng.Float64()) * h.ml)
}

func (h *hnswSearcher) insert(id string, vec []float32, level int) {
	node := hnswNode{id: id, vec: vec, neighbors: make([][]int, level+1)}
	idx := len(h.nodes)
	h.nodes = append(h.nodes, node)

	if h.entry < 0 {
		h.entry = idx
		h.maxLevel = level
		return
	}

	ep := h.entry
	for lc := h.maxLevel; lc > level; lc-- {
		ep = h.greedyClosest(vec, ep, lc)
	}

	for lc := min(level, h.maxLevel); lc >= 0; lc-- {
		found := h.searchLayer(vec, ep, h.efBuild, lc)

		limit := h.m
		if lc == 0 {
			limit = h.m0
		}
		count := min(limit, len(found))
		for _, ref := range found[:count] {
			h.nodes[idx].neighbors[lc] = append(h.nodes[idx].neighbors[lc], ref.idx)
			h.link(ref.idx, idx, lc, limit)
		}
		if len(found) > 0 {
			ep = found[0].idx
		}
	}

	if level > h.maxLevel {
		h.entry = idx
		h.maxLevel = level
	}
}

// link adds src as a neighbor of dst at the given layer, pruning dst's
// list back to limit by similarity when it overflows.
func (h *hnswSearcher) link(dst, src, layer, limit int) {
	n := &h.nodes[dst]
	n.neighbors[layer] = append(n.neighbors[layer], src)
	if len(n.neighbors[layer]) <= limit {
		return
	}

	refs := make([]nodeRef, 0, len(n.neighbors[layer]))
	for _, nb := range n.neighbors[layer] {
		refs = append(refs, nodeRef{idx: nb, sim: dot(n.vec, h.nodes[nb].vec)})
	}
	sortRefs(refs)
	kept := make([]int, limit)
	for i := 0; i < limit; i++ {
		kept[i] = refs[i].idx
	}
	n.neighbors[layer] = kept
}

// greedyClosest walks the layer greedily toward the query.
func (h *hnswSearcher) greedyClosest(query []float32, ep, layer int) int {
	cur := ep
	curSim := dot(query, h.nodes[cur].vec)
	for {
		improved := false
		for _, nb := range h.nodes[cur].neighbors[layer] {
			if sim := dot(query, h.nodes[nb].vec); sim > curSim {
				cur, curSim = nb, sim
				improved = true
			}
		}
		if !improved {
			return cur
		}
	}
}

type nodeRef struct {
	idx int
	sim float64
}

// searchLayer is beam search over one layer: expand up to ef candidates,
// return them sorted by descending similarity.
func (h *hnswSearcher) searchLayer(query []float32, ep, ef, layer int) []nodeRef {
	visited := map[int]struct{}{ep: {}}
	start := nodeRef{idx: ep, sim: dot(query, h.nodes[ep].vec)}

	candidates := &maxSimHeap{start}
	results := &minSimHeap{start}

	for candidates.Len() > 0 {
		cand := heap.Pop(candidates).(nodeRef)
		worst := (*results)[0]
		if cand.sim < worst.sim && results.Len() >= ef {
			break
		}

		for _, nb := range h.nodes[cand.idx].neighbors[layer] {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}
			sim := dot(query, h.nodes[nb].vec)
			if results.Len() < ef || sim > (*results)[0].sim {
				heap.Push(candidates, nodeRef{idx: nb, sim: sim})
				heap.Push(results, nodeRef{idx: nb, sim: sim})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]nodeRef, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(nodeRef)
	}
	return out
}

func (h *hnswSearcher) search(query []float32, k int) []scoredRef {
	if len(h.nodes) == 0 {
		return nil
	}

	ep := h.entry
	for lc := h.maxLevel; lc > 0; lc-- {
		ep = h.greedyClosest(query, ep, lc)
	}

	ef := max(h.efSearch, k)
	found := h.searchLayer(query, ep, ef, 0)

	refs := make([]scoredRef, 0, min(k, len(found)))
	for _, ref := range found {
		if len(refs) == k {
			break
		}
		refs = append(refs, scoredRef{id: h.nodes[ref.idx].id, score: ref.sim})
	}
	return refs
}

func sortRefs(refs []nodeRef) {
	// Insertion sort: neighbor lists are tiny.
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && refs[j].sim > refs[j-1].sim; j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}
}

// maxSimHeap pops the most similar candidate first.
type maxSimHeap []nodeRef

func (h maxSimHeap) Len() int            { return len(h) }
func (h maxSimHeap) Less(i, j int) bool  { return h[i].sim > h[j].sim }
func (h maxSimHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxSimHeap) Push(x interface{}) { *h = append(*h, x.(nodeRef)) }
func (h *maxSimHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// minSimHeap pops the least similar result first, bounding the
// result set at ef.
type minSimHeap []nodeRef

func (h minSimHeap) Len() int            { return len(h) }
func (h minSimHeap) Less(i, j int) bool  { return h[i].sim < h[j].sim }
func (h minSimHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minSimHeap) Push(x interface{}) { *h = append(*h, x.(nodeRef)) }
func (h *minSimHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
