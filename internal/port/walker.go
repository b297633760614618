package port

import "time"

// Walker enumerates supported files under a root folder, pruning denied
// subtrees before descending into them.
type Walker interface {
	Walk(root string) ([]FileInfo, error)

	// ValidateRoot rejects a folder before any scanning begins: it must
	// exist, be a directory, and not be a denied system path.
	ValidateRoot(root string) error
}

// FileInfo is the filesystem metadata the pipeline needs per file.
type FileInfo struct {
	Path    string
	Name    string
	Ext     string
	Size    int64
	ModTime time.Time
}
