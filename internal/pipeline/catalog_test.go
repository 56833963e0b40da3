package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	if len(cat) != 12 {
		t.Fatalf("catalog size: want=12 got=%d", len(cat))
	}
	perSlot := map[string]int{}
	for _, c := range cat {
		perSlot[c.Type]++
		if c.ID == "grid_glassmorphism_v1" && c.SupportsMobile {
			t.Fatalf("grid_glassmorphism_v1 should not support mobile")
		}
	}
	if perSlot["hero"] != 5 || perSlot["product-grid"] != 4 || perSlot["cta"] != 3 {
		t.Fatalf("slot counts: got=%v", perSlot)
	}
}

func TestParseCatalogRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"duplicate": "- {id: a, type: hero, genre: base}\n- {id: a, type: cta, genre: base}\n",
		"no type":   "- {id: a, genre: base}\n",
		"not yaml":  "- {id: [",
	}
	for name, raw := range cases {
		if _, err := ParseCatalog([]byte(raw)); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("%s: want invalid argument got=%v", name, err)
		}
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	raw := "- id: hero_x\n  type: hero\n  genre: cyber\n  variant: v2\n  supports_mobile: true\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat) != 1 || cat[0].Genre != "cyber" || !cat[0].SupportsMobile || cat[0].SupportsDarkMode {
		t.Fatalf("loaded: got=%+v", cat)
	}

	def, err := LoadCatalog("")
	if err != nil || len(def) != 12 {
		t.Fatalf("empty path should give default catalog: %d %v", len(def), err)
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}
