package port

import "context"

// Extractor produces cleaned plain text from a file on disk.
//
// Extraction failures are per-file: implementations return an error (or
// empty text) and never panic, so one corrupt file cannot abort a batch.
type Extractor interface {
	// Extract reads the file at path and returns its cleaned text.
	// ext is the lowercased filename extension including the dot.
	Extract(ctx context.Context, path, ext string) (string, error)

	// Supported reports whether the extractor handles the extension.
	Supported(ext string) bool
}
