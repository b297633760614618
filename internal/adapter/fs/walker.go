package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"docfind/internal/domain"
	"docfind/internal/port"
)

var _ port.Walker = (*Walker)(nil)

// Walker enumerates supported files under a root, pruning denied
// directories before descending into them so huge system trees are
// never traversed.
type Walker struct {
	extensions     map[string]struct{}
	excludes       []string
	denyNames      map[string]struct{}
	systemPrefixes []string
}

// NewWalker creates a walker for the given supported extensions,
// doublestar exclude patterns, denied directory names, and denied
// absolute path prefixes.
func NewWalker(extensions, excludes, denyNames, systemPrefixes []string) *Walker {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	deny := make(map[string]struct{}, len(denyNames))
	for _, n := range denyNames {
		deny[strings.ToLower(n)] = struct{}{}
	}
	prefixes := make([]string, 0, len(systemPrefixes))
	for _, p := range systemPrefixes {
		prefixes = append(prefixes, strings.ToUpper(filepath.Clean(p)))
	}
	return &Walker{
		extensions:     exts,
		excludes:       excludes,
		denyNames:      deny,
		systemPrefixes: prefixes,
	}
}

// ValidateRoot rejects a root folder before any scanning begins.
func (w *Walker) ValidateRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrFolderNotFound, root)
	}
	if w.isSystemPath(abs) {
		return fmt.Errorf("%w: %s", domain.ErrDeniedFolder, root)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrFolderNotFound, root)
	}
	return nil
}

// Walk returns every supported file under root. Errors on individual
// entries are skipped; the walk itself only fails if the root is
// unreadable.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []port.FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable entry, keep going
		}

		if d.IsDir() {
			if path != root && w.shouldSkipDir(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := w.extensions[ext]; !ok {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && w.matchesExclude(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		files = append(files, port.FileInfo{
			Path:    path,
			Name:    d.Name(),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})

	return files, err
}

func (w *Walker) shouldSkipDir(path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, denied := w.denyNames[strings.ToLower(name)]; denied {
		return true
	}
	return w.isSystemPath(path)
}

func (w *Walker) isSystemPath(abs string) bool {
	upper := strings.ToUpper(filepath.Clean(abs))
	for _, prefix := range w.systemPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

func (w *Walker) matchesExclude(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.excludes {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
