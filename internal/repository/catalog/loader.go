// Package catalog provides a JSON file-backed catalog source. The catalog
// store proper is an external system; this adapter reads a snapshot it
// exported, resolved reviews included.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domcat "github.com/shoppilot/prosearch/internal/domain/catalog"
)

// FileSource loads a product snapshot from a JSON file.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Products reads and validates the snapshot. Review lists are truncated to
// the resolver's limit.
func (s *FileSource) Products(_ context.Context) ([]domcat.Product, error) {
	data, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}

	var products []domcat.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}

	for i := range products {
		if products[i].ID == "" {
			return nil, fmt.Errorf("catalog %s: record %d has no id", s.path, i)
		}
		if len(products[i].Reviews) > domcat.MaxResolvedReviews {
			products[i].Reviews = products[i].Reviews[:domcat.MaxResolvedReviews]
		}
	}

	return products, nil
}
