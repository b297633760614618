package vectorindex

import (
	"math"
	"math/rand"
)

const (
	ivfIterations  = 10
	ivfMinClusters = 4
)

// ivfSearcher partitions the vectors into k-means clusters and scans
// only the nprobe clusters whose centroids are closest to the query.
// Recall is approximate but queries touch a fraction of the data,
// which is what keeps large indexes responsive.
type ivfSearcher struct {
	ids       []string
	vecs      [][]float32
	centroids [][]float32
	clusters  [][]int
	nprobe    int
}

func newIVFSearcher(ids []string, vecs [][]float32, nprobe int) *ivfSearcher {
	s := &ivfSearcher{ids: ids, vecs: vecs, nprobe: max(nprobe, 1)}
	s.train()
	return s
}

// train runs a fixed number of Lloyd iterations. Centroids are seeded
// from evenly spaced vectors with a deterministic shuffle so repeated
// rebuilds of the same data produce the same partition.
func (s *ivfSearcher) train() {
	n := len(s.vecs)
	nlist := int(math.Sqrt(float64(n)))
	if nlist < ivfMinClusters {
		nlist = ivfMinClusters
	}
	if nlist > n {
		nlist = n
	}

	rng := rand.New(rand.NewSource(42))
	perm := rng.Perm(n)
	dim := len(s.vecs[0])
	s.centroids = make([][]float32, nlist)
	for i := range s.centroids {
		s.centroids[i] = append([]float32(nil), s.vecs[perm[i]]...)
	}

	assign := make([]int, n)
	for iter := 0; iter < ivfIterations; iter++ {
		changed := false
		for i, v := range s.vecs {
			best := s.nearestCentroid(v)
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, nlist)
		counts := make([]int, nlist)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, v := range s.vecs {
			c := assign[i]
			counts[c]++
			for d, x := range v {
				sums[c][d] += float64(x)
			}
		}
		for c := range s.centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range s.centroids[c] {
				s.centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
			s.centroids[c] = normalize(s.centroids[c])
		}
	}

	s.clusters = make([][]int, nlist)
	for i, c := range assign {
		s.clusters[c] = append(s.clusters[c], i)
	}
}

func (s *ivfSearcher) nearestCentroid(v []float32) int {
	best, bestSim := 0, math.Inf(-1)
	for c, cent := range s.centroids {
		if sim := dot(v, cent); sim > bestSim {
			best, bestSim = c, sim
		}
	}
	return best
}

func (s *ivfSearcher) search(query []float32, k int) []scoredRef {
	probes := s.nprobe
	if probes > len(s.centroids) {
		probes = len(s.centroids)
	}

	sims := make([]float64, len(s.centroids))
	order := make([]int, len(s.centroids))
	for c, cent := range s.centroids {
		sims[c] = dot(query, cent)
		order[c] = c
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && sims[order[j]] > sims[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	var scored []scoredRef
	for _, c := range order[:probes] {
		for _, i := range s.clusters[c] {
			scored = append(scored, scoredRef{id: s.ids[i], score: dot(query, s.vecs[i])})
		}
	}
	return topK(scored, k)
}
