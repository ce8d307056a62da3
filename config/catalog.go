package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"estatehub/server/internal/models"
)

// Catalog is the seed content loaded into an empty database
type Catalog struct {
	Properties []models.Property `json:"properties"`
	Projects   []models.Project  `json:"projects"`
	BlogPosts  []models.BlogPost `json:"blog_posts"`
}

// LoadCatalog reads the seed catalog from path. A missing file yields an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return &Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &catalog, nil
}

// Size is the number of seedable records
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Properties) + len(c.Projects) + len(c.BlogPosts)
}
