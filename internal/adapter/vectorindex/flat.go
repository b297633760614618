package vectorindex

// flatSearcher scans every vector. Exact, and fast enough below a
// thousand entries that nothing cleverer pays for its build cost.
type flatSearcher struct {
	ids  []string
	vecs [][]float32
}

func newFlatSearcher(ids []string, vecs [][]float32) *flatSearcher {
	return &flatSearcher{ids: ids, vecs: vecs}
}

func (f *flatSearcher) search(query []float32, k int) []scoredRef {
	refs := make([]scoredRef, len(f.ids))
	for i, vec := range f.vecs {
		refs[i] = scoredRef{id: f.ids[i], score: dot(query, vec)}
	}
	return topK(refs, k)
}
