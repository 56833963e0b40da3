package pipeline

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// DefaultCatalog parses the embedded component catalog. It panics only if
// the embedded file is malformed, which the package tests rule out.
func DefaultCatalog() []layout.ComponentCandidate {
	cat, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded component catalog: %v", err))
	}
	return cat
}

// LoadCatalog reads a catalog file from disk. An empty path returns the
// embedded catalog.
func LoadCatalog(path string) ([]layout.ComponentCandidate, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML list of components. Ids must be unique and
// every entry needs a type and a genre.
func ParseCatalog(raw []byte) ([]layout.ComponentCandidate, error) {
	var cat []layout.ComponentCandidate
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %v: %w", err, pkgerrors.ErrInvalidArgument)
	}
	seen := make(map[string]struct{}, len(cat))
	for i, c := range cat {
		if c.ID == "" || c.Type == "" || c.Genre == "" {
			return nil, fmt.Errorf("catalog entry %d: id, type and genre required: %w", i, pkgerrors.ErrInvalidArgument)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q: %w", i, c.ID, pkgerrors.ErrInvalidArgument)
		}
		seen[c.ID] = struct{}{}
	}
	return cat, nil
}
