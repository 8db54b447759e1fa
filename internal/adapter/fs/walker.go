package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"ragstore/internal/domain"
)

// Walker collects corpus files under a root, filtered by doublestar
// include/exclude glob patterns.
type Walker struct {
	includes []string
	excludes []string
	maxBytes int64
}

// NewWalker creates a walker. With no includes, every file matches.
// maxBytes <= 0 disables the size limit.
func NewWalker(includes, excludes []string, maxBytes int64) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
		maxBytes: maxBytes,
	}
}

// FileInfo describes one matched file, relative to the walked root.
type FileInfo struct {
	RelPath string
	ModTime int64
	Size    int64
}

// Walk returns the matching files under root.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.maxBytes > 0 && info.Size() > w.maxBytes {
			return nil
		}
		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{
				RelPath: relPath,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}
		return nil
	})

	return files, err
}

// LoadDocuments reads every matching file under root into a Document whose
// ID is the file's root-relative path and whose metadata records path, size,
// and modification time. The onFile callback, when non-nil, is invoked after
// each file is read (progress reporting).
func (w *Walker) LoadDocuments(root string, onFile func(loaded, total int)) ([]domain.Document, error) {
	files, err := w.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	docs := make([]domain.Document, 0, len(files))
	for i, f := range files {
		data, err := os.ReadFile(filepath.Join(root, f.RelPath))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.RelPath, err)
		}
		docs = append(docs, domain.Document{
			ID:      f.RelPath,
			Content: string(data),
			Metadata: map[string]any{
				"path":     f.RelPath,
				"size":     f.Size,
				"mod_time": f.ModTime,
			},
		})
		if onFile != nil {
			onFile(i+1, len(files))
		}
	}

	return docs, nil
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
