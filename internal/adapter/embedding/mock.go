package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// MockEmbedder produces deterministic bag-of-words embeddings: every
// word hashes to a dimension and the counts are normalized. Identical
// texts map to identical unit vectors and texts sharing words score a
// positive similarity, so tests get plausible ranking behavior without
// a backend running.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = e.vector(text)
	}
	return vecs, nil
}

func (e *MockEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dimension)
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return v
	}

	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(w, ".,;:!?\"'()")))
		v[h.Sum32()%uint32(e.dimension)]++
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
