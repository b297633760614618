// Package embedding provides the embedding backends. The provider and
// model are explicit configuration; a misconfigured backend fails at
// construction rather than at the first batch.
package embedding

import (
	"fmt"
	"strings"

	"docfind/config"
	"docfind/internal/port"
)

// New builds the embedder selected by cfg.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, cfg.Dimension)
	case "mock":
		dim := cfg.Dimension
		if dim <= 0 {
			dim = 64
		}
		return NewMockEmbedder(dim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// splitBlank partitions texts into the indexes that carry content and
// those that are blank. Blank inputs get a zero vector instead of a
// round trip to the backend, and the output order matches the input.
func splitBlank(texts []string) (nonBlank []string, blankAt []bool) {
	blankAt = make([]bool, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			blankAt[i] = true
			continue
		}
		nonBlank = append(nonBlank, t)
	}
	return nonBlank, blankAt
}

// mergeBlank re-inserts zero vectors at the blank positions.
func mergeBlank(vecs [][]float32, blankAt []bool, dim int) [][]float32 {
	out := make([][]float32, len(blankAt))
	next := 0
	for i, blank := range blankAt {
		if blank {
			out[i] = make([]float32, dim)
			continue
		}
		out[i] = vecs[next]
		next++
	}
	return out
}
