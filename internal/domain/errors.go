package domain

import "errors"

var (
	// ErrFolderNotFound is returned when the selected folder does not exist
	// or is not a directory.
	ErrFolderNotFound = errors.New("folder does not exist")

	// ErrDeniedFolder is returned when the selected folder is a system
	// folder that must not be indexed.
	ErrDeniedFolder = errors.New("folder is on the system deny-list")

	// ErrUnsupportedFile is returned for file types the extractor does not
	// handle.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrNoContent is returned when extraction produced no usable text.
	ErrNoContent = errors.New("no extractable content")

	// ErrDimensionMismatch is returned when a vector does not match the
	// index's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexSchema is returned when a persisted index was written by an
	// incompatible format version or a different embedding model. The
	// caller should rebuild a fresh index rather than read partial data.
	ErrIndexSchema = errors.New("incompatible index schema")

	// ErrModelNotCached is returned at startup when the configured
	// embedding model is not present in the local model cache. There is no
	// network fallback: substituting a different model would silently
	// change vector dimensionality against an existing index.
	ErrModelNotCached = errors.New("embedding model not present in local cache")
)
