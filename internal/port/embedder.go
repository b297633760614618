package port

import "context"

// Embedder generates vector embeddings for text.
//
// Implementations must preserve input order in the output and must map
// empty or whitespace-only inputs to the zero vector of the configured
// dimension instead of failing, so batch callers never special-case them.
type Embedder interface {
	// Embed generates one embedding per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the identifier of the embedding model.
	ModelName() string
}
