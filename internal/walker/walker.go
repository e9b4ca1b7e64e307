package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// FileInfo represents a regular file found under a root
type FileInfo struct {
	Path    string // Path including the root
	RelPath string // Relative path from root
	Size    int64
}

// Walker enumerates regular files under a root with exclude pattern support
type Walker struct {
	fs       afero.Fs
	root     string
	excludes []string
}

// New creates a new file walker. The root must exist and be a directory.
func New(fs afero.Fs, root string, excludes []string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	if err := ValidateRoot(fs, absRoot); err != nil {
		return nil, err
	}

	absRoot, err = ResolveRoot(fs, absRoot)
	if err != nil {
		return nil, err
	}

	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	return &Walker{
		fs:       fs,
		root:     absRoot,
		excludes: excludes,
	}, nil
}

// ValidateRoot checks that root exists and is a directory
func ValidateRoot(fs afero.Fs, root string) error {
	info, err := fs.Stat(root)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root is not a directory: %s", root)
	}
	return nil
}

// ResolveRoot returns the absolute form of root. On the OS filesystem symlinks
// are resolved too, since the walk does not follow a symlinked root.
func ResolveRoot(fs afero.Fs, root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}
	if _, ok := fs.(*afero.OsFs); !ok {
		return absRoot, nil
	}
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve symlinks: %w", err)
	}
	return resolved, nil
}

// Root returns the absolute root the walker enumerates
func (w *Walker) Root() string {
	return w.root
}

// Walk walks the whole tree and returns every regular file, sorted by RelPath.
// Any traversal error aborts the walk.
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo

	err := afero.Walk(w.fs, w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relPathForward := filepath.ToSlash(relPath)

		if info.IsDir() {
			if path != w.root && w.isExcludedDir(relPathForward) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks, devices, sockets and pipes are not mirrored
		if !info.Mode().IsRegular() {
			return nil
		}

		if w.isExcluded(relPathForward) {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})

	return files, nil
}

// isExcludedDir reports whether a directory pattern (ending with /) prunes path
func (w *Walker) isExcludedDir(path string) bool {
	for _, pattern := range w.excludes {
		if !strings.HasSuffix(pattern, "/") {
			continue
		}
		if matched, _ := doublestar.Match(strings.TrimSuffix(pattern, "/"), path); matched {
			return true
		}
	}
	return false
}

// isExcluded checks if a file path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.excludes {
		if strings.HasSuffix(pattern, "/") {
			// Also check if any parent directory matches
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(path, "/")
			for i := 1; i < len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
		} else {
			if matched, _ := doublestar.Match(pattern, path); matched {
				return true
			}
		}
	}
	return false
}

// CounterpartPath joins a relative path found under one root onto the other root
func CounterpartPath(otherRoot, relPath string) string {
	return filepath.Join(otherRoot, relPath)
}
