package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ChunkSeparator joins a document fingerprint and a chunk index into a
// chunk ID, and is what DocIDFromChunkID splits on. Changing it breaks
// every persisted index.
const ChunkSeparator = "_chunk_"

// Document is one indexed source file. Documents are immutable: a new
// modification time yields a new ID, never an in-place update.
type Document struct {
	ID       string
	Path     string
	Filename string
	Ext      string
	Size     int64
	ModTime  time.Time
	Text     string
}

// Chunk is an overlapping slice of a document's text, independently
// embedded and independently retrievable.
type Chunk struct {
	ID    string
	DocID string
	Index int
	Text  string
}

// SearchResult is one ranked answer to a query.
type SearchResult struct {
	Path     string  `json:"path"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Preview  string  `json:"preview"`
	Match    string  `json:"match"`
}

// Match classifications, by dominant ranking signal.
const (
	MatchFilename = "filename"
	MatchContent  = "content"
	MatchSemantic = "semantic"
)

// Stats describes the persisted index.
type Stats struct {
	Vectors   int
	Documents int
	Model     string
	Path      string
}

// Fingerprint derives a document ID from path and modification time.
// Same path and same mtime always produce the same ID, which is what
// makes incremental re-indexing a cheap set lookup.
func Fingerprint(path string, modTime time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", path, modTime.Unix())))
	return hex.EncodeToString(sum[:])
}

// ChunkID builds the composite key for a chunk of a document.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s%s%d", docID, ChunkSeparator, index)
}

// DocIDFromChunkID recovers the parent document ID from a chunk ID.
// IDs without a chunk suffix are returned unchanged.
func DocIDFromChunkID(chunkID string) string {
	if id, _, ok := strings.Cut(chunkID, ChunkSeparator); ok {
		return id
	}
	return chunkID
}
