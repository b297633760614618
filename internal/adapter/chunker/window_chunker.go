// Package chunker splits document text into overlapping windows so that
// context at chunk boundaries survives embedding.
package chunker

import (
	"fmt"
	"strings"

	"docfind/internal/domain"
	"docfind/internal/port"
)

var _ port.Chunker = (*WindowChunker)(nil)

// separators, in preference order, searched backward from a window
// boundary to find a natural break.
var separators = []string{"\n\n", "\n", ". ", " "}

// WindowChunker produces fixed-size overlapping chunks, breaking at the
// best separator available near each window boundary.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a chunker with the given window size and
// overlap, both in bytes of text. overlap must be smaller than size or
// the cursor could stop advancing.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, size), got %d with size %d", overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk splits doc.Text into overlapping chunks. Empty text yields no
// chunks and no error.
func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	text := doc.Text
	if text == "" {
		return nil, nil
	}

	var chunks []domain.Chunk
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			// Final window, emit unchanged.
			chunks = append(chunks, c.newChunk(doc.ID, len(chunks), text[start:]))
			break
		}

		// Look back from end for a natural break, but not past the
		// midpoint: breaking too early would degenerate chunk sizes.
		breakAt := -1
		for _, sep := range separators {
			idx := strings.LastIndex(text[start:end], sep)
			if idx != -1 && idx > c.size/2 {
				breakAt = start + idx + len(sep)
				break
			}
		}

		if breakAt == -1 {
			breakAt = end // no separator, force the cut
		}

		chunks = append(chunks, c.newChunk(doc.ID, len(chunks), text[start:breakAt]))

		next := breakAt - c.overlap
		if next <= start {
			next = start + 1 // guard against a non-advancing cursor
		}
		start = next
	}

	return chunks, nil
}

func (c *WindowChunker) newChunk(docID string, index int, text string) domain.Chunk {
	return domain.Chunk{
		ID:    domain.ChunkID(docID, index),
		DocID: docID,
		Index: index,
		Text:  text,
	}
}
