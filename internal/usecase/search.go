package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"docfind/internal/adapter/cache"
	"docfind/internal/domain"
	"docfind/internal/port"
)

const (
	// candidateFactor widens the vector fetch so lexical boosts and
	// per-document dedup still leave enough results to fill topK.
	candidateFactor = 3
	previewLen      = 200
)

// SearchOptions tune a single query.
type SearchOptions struct {
	TopK   int
	Rerank bool
}

// Engine answers queries with hybrid ranking: semantic similarity from
// the vector index, boosted when the query literally appears in the
// filename or chunk text.
type Engine struct {
	embedder      port.Embedder
	index         port.VectorIndex
	cache         *cache.QueryCache
	filenameBoost float64
	contentBoost  float64
	rerankBase    float64
	rerankVector  float64
}

func NewEngine(
	embedder port.Embedder,
	index port.VectorIndex,
	queryCache *cache.QueryCache,
	filenameBoost, contentBoost float64,
	rerankBase, rerankVector float64,
) *Engine {
	return &Engine{
		embedder:      embedder,
		index:         index,
		cache:         queryCache,
		filenameBoost: filenameBoost,
		contentBoost:  contentBoost,
		rerankBase:    rerankBase,
		rerankVector:  rerankVector,
	}
}

// Search runs the query and returns at most opts.TopK results, one per
// document.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	if e.cache != nil {
		if results, ok := e.cache.Get(query, topK, opts.Rerank); ok {
			return results, nil
		}
	}

	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for the query", len(vecs))
	}
	queryVec := normalize(vecs[0])

	hits, err := e.index.Search(queryVec, topK*candidateFactor)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	queryLower := strings.ToLower(query)
	scored := make([]domain.SearchResult, 0, len(hits))
	best := make(map[string]int) // source path -> index into scored

	for _, hit := range hits {
		score, match := e.boost(hit, queryLower)
		if opts.Rerank {
			score = e.rerankBase*score + e.rerankVector*dot(queryVec, hit.Vector)
			score = clamp(score)
		}

		r := domain.SearchResult{
			Path:     hit.Metadata.Source,
			Filename: hit.Metadata.Filename,
			Score:    score,
			Preview:  preview(hit.Text),
			Match:    match,
		}

		// keep only the best chunk per document
		if i, ok := best[r.Path]; ok {
			if r.Score > scored[i].Score {
				scored[i] = r
			}
			continue
		}
		best[r.Path] = len(scored)
		scored = append(scored, r)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	if e.cache != nil {
		e.cache.Put(query, topK, opts.Rerank, scored)
	}
	return scored, nil
}

// boost applies the lexical bonuses on top of the similarity score and
// reports which signal dominated the match. The bonuses are independent
// signals: a candidate matching in both filename and text receives both.
func (e *Engine) boost(hit port.VectorHit, queryLower string) (float64, string) {
	score := hit.Score
	match := domain.MatchSemantic

	if strings.Contains(strings.ToLower(hit.Text), queryLower) {
		score += e.contentBoost
		match = domain.MatchContent
	}
	if strings.Contains(strings.ToLower(hit.Metadata.Filename), queryLower) {
		score += e.filenameBoost
		match = domain.MatchFilename
	}

	return clamp(score), match
}

// preview condenses chunk text into a single short line.
func preview(text string) string {
	fields := strings.Fields(text)
	joined := strings.Join(fields, " ")
	if len(joined) <= previewLen {
		return joined
	}
	cut := joined[:previewLen]
	if i := strings.LastIndexByte(cut, ' '); i > previewLen/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	n := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
