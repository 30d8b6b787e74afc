package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrAmbiguous is returned by FindOne when more than one file matches.
var ErrAmbiguous = errors.New("more than one file matches")

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Glob is a shell pattern matched against each file's base name
	Glob string
	// Extensions lists file extensions to include, with or without the dot (e.g., "cbin", ".wav")
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// ExcludeDirs is a list of directory names to skip
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = root only, 2 = immediate subdirectories)
	MaxDepth int
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the absolute paths of all matched files, sorted
	Files []string
	// Errors contains any errors encountered during scanning
	Errors []error
}

// ScanDirectory scans a directory for files matching the provided options
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}
	if opts.Glob != "" {
		if _, err := filepath.Match(opts.Glob, ""); err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", opts.Glob, err)
		}
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	excludeMap := make(map[string]bool)
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	result := &ScanResult{Files: make([]string, 0)}
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if excludeMap[name] || strings.HasPrefix(name, ".") || !opts.Recursive {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && depth(root, path) >= opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		if opts.Glob != "" {
			if ok, _ := filepath.Match(opts.Glob, name); !ok {
				return nil
			}
		}
		result.Files = append(result.Files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)
	return result, nil
}

// depth counts path components of path below root.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// FindOne returns the single file directly in dir whose base name matches
// glob. It returns "" and no error when nothing matches, and ErrAmbiguous
// listing the candidates when several do.
func FindOne(dir, glob string) (string, error) {
	result, err := ScanDirectory(dir, ScanOptions{Glob: glob})
	if err != nil {
		return "", err
	}
	switch len(result.Files) {
	case 0:
		return "", nil
	case 1:
		return result.Files[0], nil
	default:
		return "", fmt.Errorf("%w %q in %s: %s", ErrAmbiguous, glob, dir, strings.Join(result.Files, ", "))
	}
}

// HasFiles reports whether a scan found anything.
func (r *ScanResult) HasFiles() bool {
	return r != nil && len(r.Files) > 0
}
