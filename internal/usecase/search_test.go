package usecase

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfind/internal/adapter/cache"
	"docfind/internal/adapter/vectorindex"
	"docfind/internal/domain"
	"docfind/internal/port"
)

// stubEmbedder maps known texts to fixed vectors so ranking is fully
// deterministic.
type stubEmbedder struct {
	vectors map[string][]float32
	dim     int
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int    { return s.dim }
func (s *stubEmbedder) ModelName() string { return "stub" }

func unit(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

// withSim returns a unit vector whose dot product with unit(dim, 0) is
// exactly s.
func withSim(dim int, s float64) []float32 {
	v := make([]float32, dim)
	v[0] = float32(s)
	v[1] = float32(math.Sqrt(1 - s*s))
	return v
}

// blend returns a unit vector between two axes, closer to a the larger
// w is.
func blend(dim, a, b int, w float32) []float32 {
	v := make([]float32, dim)
	v[a] = w
	v[b] = 1 - w
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	n := float32(1)
	if sum > 0 {
		n = float32(1 / math.Sqrt(sum))
	}
	for i := range v {
		v[i] *= n
	}
	return v
}

func newSearchHarness(t *testing.T, emb port.Embedder, withCache bool) (*Engine, *vectorindex.BoltIndex) {
	t.Helper()
	idx, err := vectorindex.Open(filepath.Join(t.TempDir(), "index.db"), 4, "stub", vectorindex.Tuning{}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	var qc *cache.QueryCache
	if withCache {
		qc = cache.NewQueryCache(10, time.Minute)
	}
	return NewEngine(emb, idx, qc, 0.25, 0.15, 0.6, 0.4), idx
}

func chunkItem(doc, filename, text string, index int, vec []float32) port.VectorItem {
	return port.VectorItem{
		ID:     domain.ChunkID(doc, index),
		Vector: vec,
		Text:   text,
		Metadata: port.Metadata{
			Source:     "/docs/" + filename,
			Filename:   filename,
			ChunkIndex: index,
		},
	}
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"revenue report": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, false)

	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "finances.txt", "quarterly revenue grew strongly", 0, blend(4, 0, 1, 0.9)),
		chunkItem("b", "recipes.txt", "how to bake sourdough bread", 0, unit(4, 2)),
	}))

	results, err := engine.Search(context.Background(), "revenue report", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/docs/finances.txt", results[0].Path)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_FilenameBoostWins(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"budget": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, false)

	// identical similarity, low enough that the boost survives the
	// clamp; only the filename differs
	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "notes.txt", "annual planning numbers", 0, withSim(4, 0.6)),
		chunkItem("b", "budget-2026.txt", "annual planning numbers", 0, withSim(4, 0.6)),
	}))

	results, err := engine.Search(context.Background(), "budget", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "budget-2026.txt", results[0].Filename)
	assert.Equal(t, domain.MatchFilename, results[0].Match)
	assert.Equal(t, domain.MatchSemantic, results[1].Match)
	assert.InDelta(t, 0.25, results[0].Score-results[1].Score, 1e-6)
}

func TestSearch_FilenameAndContentBoostsStack(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"budget": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, false)

	// the doc matching in both filename and text starts with lower
	// similarity, but the stacked bonuses carry it past the
	// filename-only doc
	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "budget-2026.txt", "the budget numbers for next year", 0, withSim(4, 0.394)),
		chunkItem("b", "budget-old.txt", "superseded planning figures", 0, withSim(4, 0.5)),
	}))

	results, err := engine.Search(context.Background(), "budget", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "budget-2026.txt", results[0].Filename)
	assert.Equal(t, domain.MatchFilename, results[0].Match)
	assert.InDelta(t, 0.394+0.15+0.25, results[0].Score, 1e-3)
	assert.InDelta(t, 0.5+0.25, results[1].Score, 1e-3)
}

func TestSearch_ContentBoost(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"migration": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, false)

	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "plan.txt", "the database migration starts monday", 0, blend(4, 0, 1, 0.6)),
		chunkItem("b", "other.txt", "unrelated meeting minutes", 0, blend(4, 0, 1, 0.6)),
	}))

	results, err := engine.Search(context.Background(), "migration", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "plan.txt", results[0].Filename)
	assert.Equal(t, domain.MatchContent, results[0].Match)
}

func TestSearch_OneResultPerDocument(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"query": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, false)

	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "long.txt", "first chunk of the long doc", 0, blend(4, 0, 1, 0.9)),
		chunkItem("a", "long.txt", "second chunk of the long doc", 1, blend(4, 0, 1, 0.8)),
		chunkItem("b", "short.txt", "a different doc", 0, blend(4, 0, 1, 0.5)),
	}))

	results, err := engine.Search(context.Background(), "query", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2, "chunks of the same document collapse to one result")
	assert.Equal(t, "/docs/long.txt", results[0].Path)
	assert.Contains(t, results[0].Preview, "first chunk")
}

func TestSearch_ScoreClamped(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"exact": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, false)

	// perfect similarity plus a filename boost would exceed 1 unclamped
	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "exact.txt", "the exact phrase appears here", 0, unit(4, 0)),
	}))

	results, err := engine.Search(context.Background(), "exact", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestSearch_EmptyIndexAndEmptyQuery(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{"q": unit(4, 0)}}
	engine, _ := newSearchHarness(t, emb, false)

	results, err := engine.Search(context.Background(), "q", SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
	callsAfterFirst := emb.calls

	results, err = engine.Search(context.Background(), "   ", SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, callsAfterFirst, emb.calls, "blank query must not reach the embedder")
}

func TestSearch_CacheSkipsEmbedding(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"cached": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, true)

	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "doc.txt", "some cached content", 0, blend(4, 0, 1, 0.8)),
	}))

	first, err := engine.Search(context.Background(), "cached", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Equal(t, 1, emb.calls)

	second, err := engine.Search(context.Background(), "cached", SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls, "repeated query must be served from cache")
	assert.Equal(t, first, second)

	// the reranked ordering is cached under its own key
	reranked, err := engine.Search(context.Background(), "cached", SearchOptions{TopK: 5, Rerank: true})
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls, "rerank flag must not reuse the plain entry")

	again, err := engine.Search(context.Background(), "cached", SearchOptions{TopK: 5, Rerank: true})
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls, "repeated reranked query must be served from cache")
	assert.Equal(t, reranked, again)
}

func TestSearch_RerankPrefersCloserVector(t *testing.T) {
	emb := &stubEmbedder{dim: 4, vectors: map[string][]float32{
		"target": unit(4, 0),
	}}
	engine, idx := newSearchHarness(t, emb, false)

	// the filename boost pushes b ahead in the plain ranking, but a's
	// vector is closer; reranking weighs the raw similarity back in
	require.NoError(t, idx.Upsert([]port.VectorItem{
		chunkItem("a", "close.txt", "semantically nearby content", 0, blend(4, 0, 1, 0.9)),
		chunkItem("b", "target.txt", "loosely related content", 0, blend(4, 0, 1, 0.8)),
	}))

	plain, err := engine.Search(context.Background(), "target", SearchOptions{TopK: 5})
	require.NoError(t, err)
	reranked, err := engine.Search(context.Background(), "target", SearchOptions{TopK: 5, Rerank: true})
	require.NoError(t, err)

	require.Len(t, plain, 2)
	require.Len(t, reranked, 2)
	assert.Equal(t, "target.txt", plain[0].Filename)
	assert.Equal(t, "close.txt", reranked[0].Filename)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short\n\n  text"))

	long := strings.Repeat("word ", 100)
	p := preview(long)
	assert.LessOrEqual(t, len(p), previewLen+3)
	assert.True(t, strings.HasSuffix(p, "..."))
	assert.NotContains(t, p, "\n")
}
