package port

import "docfind/internal/domain"

// Chunker splits a document's text into overlapping chunks sized for
// embedding quality.
type Chunker interface {
	Chunk(doc domain.Document) ([]domain.Chunk, error)
}
