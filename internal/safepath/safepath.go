// Package safepath confines file placement to a fixed set of category
// directories under a single safe root. Every file the backend writes
// (logs, cached scan output, exports, capture files) must resolve its path
// through this package so a caller-supplied filename can never escape the
// root via directory traversal.
package safepath

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Category identifies one of the whitelisted directories under the root.
type Category string

// Known path categories.
const (
	CategoryLogs     Category = "logs"
	CategoryCache    Category = "cache"
	CategoryExports  Category = "exports"
	CategoryCaptures Category = "captures"
	CategoryConfig   Category = "config"
)

// Error definitions
var (
	ErrInvalidCategory = errors.New("invalid path category")
	ErrInvalidFilename = errors.New("invalid filename")
)

// Resolver maps (category, filename) pairs to absolute paths under a root.
type Resolver struct {
	root       string
	categories map[Category]string
}

// NewResolver creates a resolver rooted at root. The category directories
// are fixed; config files live directly under the root, matching the
// layout the deck ships with.
func NewResolver(root string) *Resolver {
	return &Resolver{
		root: root,
		categories: map[Category]string{
			CategoryLogs:     filepath.Join(root, "logs"),
			CategoryCache:    filepath.Join(root, "cache"),
			CategoryExports:  filepath.Join(root, "exports"),
			CategoryCaptures: filepath.Join(root, "captures"),
			CategoryConfig:   root,
		},
	}
}

// Root returns the safe root directory.
func (r *Resolver) Root() string {
	return r.root
}

// CategoryDir returns the directory for a category.
func (r *Resolver) CategoryDir(category Category) (string, error) {
	dir, ok := r.categories[category]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}
	return dir, nil
}

// Join returns the absolute path for filename within the category
// directory. Any directory components in filename are stripped, so
// "../../etc/passwd" resolves to "<root>/<category>/passwd".
func (r *Resolver) Join(category Category, filename string) (string, error) {
	dir, err := r.CategoryDir(category)
	if err != nil {
		return "", err
	}

	base := filepath.Base(filepath.Clean(filename))
	if base == "" || base == "." || base == string(filepath.Separator) || base == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	return filepath.Join(dir, base), nil
}
