package port

// VectorIndex persists chunk embeddings with their metadata and answers
// similarity queries. It holds at most one entry per chunk ID.
type VectorIndex interface {
	// Upsert inserts or replaces entries keyed by chunk ID. Idempotent:
	// upserting the same ID twice leaves exactly one entry, holding the
	// latest content.
	Upsert(items []VectorItem) error

	// Search returns the k entries most similar to the query vector,
	// highest similarity first.
	Search(query []float32, k int) ([]VectorHit, error)

	// DocIDs returns the set of parent document IDs currently indexed,
	// derived from stored chunk IDs. Used for change detection.
	DocIDs() (map[string]struct{}, error)

	// Count returns the number of stored vector entries.
	Count() (int, error)

	// Clear removes every entry.
	Clear() error

	Close() error
}

// VectorItem is one entry to store.
type VectorItem struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// Metadata is the record stored alongside every vector.
type Metadata struct {
	Source     string `json:"source"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// VectorHit is one similarity-search result. Vector is the stored
// embedding, exposed so rerankers can recompute fine-grained similarity
// without a second store round-trip.
type VectorHit struct {
	ID       string
	Score    float64
	Text     string
	Metadata Metadata
	Vector   []float32
}
