package vector

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

const tol = 1e-9

func TestEncodeKnownAndUnknown(t *testing.T) {
	if got := Encode("color_scheme", "dark"); got != 1.0 {
		t.Fatalf("dark: want=1 got=%v", got)
	}
	if got := Encode("decision_confidence", "high"); got != 0.2 {
		t.Fatalf("confidence high: want=0.2 got=%v", got)
	}
	if got := Encode("color_scheme", "sepia"); got != Neutral {
		t.Fatalf("unknown value: want=%v got=%v", Neutral, got)
	}
	if got := Encode("mood", "happy"); got != Neutral {
		t.Fatalf("unknown category: want=%v got=%v", Neutral, got)
	}
}

func TestNormalizeUnitNorm(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		var v FeatureVector
		for d := range v {
			v[d] = r.Float64()
		}
		if Norm(v) == 0 {
			continue
		}
		if got := Norm(Normalize(v)); math.Abs(got-1) > tol {
			t.Fatalf("iteration %d: norm want=1 got=%v", i, got)
		}
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	var zero FeatureVector
	if got := Normalize(zero); got != zero {
		t.Fatalf("zero vector changed: %v", got)
	}
}

func TestProfileVectorIsUnitAndDeterministic(t *testing.T) {
	p := layout.DefaultPreferenceRecord()
	a, b := ProfileVector(p), ProfileVector(p)
	if a != b {
		t.Fatalf("profile vector not deterministic")
	}
	if math.Abs(Norm(a)-1) > tol {
		t.Fatalf("profile norm: want=1 got=%v", Norm(a))
	}
}

func TestProfileVectorGenreDimensionsClamped(t *testing.T) {
	p := layout.DefaultPreferenceRecord()
	p.Visual.ColorScheme = layout.ColorSchemeVibrant
	p.Visual.ButtonSize = layout.SizeLarge
	p.Visual.TypographyWeight = layout.WeightBold
	p.Interaction.ExplorationTolerance = layout.LevelHigh

	raw := ProfileVector(p)
	for _, d := range []int{DimMinimalism, DimBrutalism, DimGlass, DimLoudness} {
		if raw[d] < 0 || raw[d] > 1 {
			t.Fatalf("dim %d out of range: %v", d, raw[d])
		}
	}
	// vibrant + large + high tolerance should lean loud over minimal
	if raw[DimLoudness] <= raw[DimMinimalism] {
		t.Fatalf("loudness=%v should exceed minimalism=%v", raw[DimLoudness], raw[DimMinimalism])
	}
}

func TestModuleIDRoundTrip(t *testing.T) {
	for _, g := range Genres {
		for _, l := range Layouts {
			id := EncodeModuleID(g, l)
			gg, ll := DecodeModuleID(id)
			if gg != g || ll != l {
				t.Fatalf("round trip %s/%s -> %d -> %s/%s", g, l, id, gg, ll)
			}
		}
	}
	if id := EncodeModuleID(layout.GenreLoud, LayoutFeatured); id != 26 {
		t.Fatalf("loud/featured: want=26 got=%d", id)
	}
}

func TestCatalogShape(t *testing.T) {
	cat := Catalog()
	if len(cat) != 36 {
		t.Fatalf("catalog size: want=36 got=%d", len(cat))
	}
	for i, m := range cat {
		if m.ID != i {
			t.Fatalf("catalog order: index %d has id %d", i, m.ID)
		}
		if math.Abs(Norm(m.Vector)-1) > tol {
			t.Fatalf("module %d not normalized", m.ID)
		}
	}
}

func TestLayoutModifiersClamp(t *testing.T) {
	// neobrutalist density 0.8 + compact 0.8 must clamp to 1 before normalizing
	m := NewModule(layout.GenreNeobrutalist, LayoutCompact)
	ref := NewModule(layout.GenreNeobrutalist, LayoutStandard)
	ratio := m.Vector[DimDensity] / m.Vector[DimTypographyWeight]
	if math.Abs(ratio-1.0) > 1e-9 {
		t.Fatalf("clamped density should equal typography weight (both 1.0), ratio=%v", ratio)
	}
	if ref.Vector[DimDensity] >= ref.Vector[DimTypographyWeight] {
		t.Fatalf("standard layout density should stay below typography weight")
	}
}

func TestStoreSearchOrderingAndTies(t *testing.T) {
	s := NewStore()
	s.Add("a", FeatureVector{1}, nil)
	s.Add("b", FeatureVector{0, 1}, nil)
	s.Add("c", FeatureVector{2}, nil) // same direction as "a"

	got := s.Search(FeatureVector{1}, 3, nil)
	if len(got) != 3 {
		t.Fatalf("results: want=3 got=%d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" || got[2].ID != "b" {
		t.Fatalf("order: got=%s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
	}
	if math.Abs(got[0].Score-1) > tol || math.Abs(got[2].Score) > tol {
		t.Fatalf("scores: got=%v,%v", got[0].Score, got[2].Score)
	}
}

func TestStoreSearchFilterAndTopK(t *testing.T) {
	s := NewCatalogStore()
	if s.Len() != 36 {
		t.Fatalf("store size: want=36 got=%d", s.Len())
	}
	q := ProfileVector(layout.DefaultPreferenceRecord())
	hero := s.SearchByLayout(q, layout.SlotHero, 0)
	if len(hero) != len(Genres) {
		t.Fatalf("hero results: want=%d got=%d", len(Genres), len(hero))
	}
	for i, r := range hero {
		if r.Metadata[MetaLayout] != LayoutFeatured {
			t.Fatalf("filter leaked layout %q", r.Metadata[MetaLayout])
		}
		if i > 0 && r.Score > hero[i-1].Score {
			t.Fatalf("results not descending at %d", i)
		}
	}
	if got := s.Search(q, 5, nil); len(got) != 5 {
		t.Fatalf("topK: want=5 got=%d", len(got))
	}
}

func TestStoreAddReplaceAndRemove(t *testing.T) {
	s := NewStore()
	s.Add("x", FeatureVector{1}, map[string]string{"k": "v1"})
	s.Add("y", FeatureVector{0, 1}, nil)
	s.Add("x", FeatureVector{0, 0, 1}, map[string]string{"k": "v2"})
	if s.Len() != 2 {
		t.Fatalf("replace should not grow store, len=%d", s.Len())
	}
	v, meta, ok := s.Get("x")
	if !ok || v[2] != 1 || meta["k"] != "v2" {
		t.Fatalf("replace not applied: %v %v %v", v, meta, ok)
	}
	s.Remove("x")
	if _, _, ok := s.Get("x"); ok {
		t.Fatalf("x should be removed")
	}
	if got := s.Search(FeatureVector{0, 1}, 1, nil); len(got) != 1 || got[0].ID != "y" {
		t.Fatalf("search after remove: %+v", got)
	}
}

func TestRecommendPicksBestModule(t *testing.T) {
	s := NewCatalogStore()
	p := layout.DefaultPreferenceRecord()
	best, ranked, ok := Recommend(s, p, 3)
	if !ok || len(ranked) != 3 {
		t.Fatalf("recommend: ok=%v ranked=%d", ok, len(ranked))
	}
	if best != ranked[0] {
		t.Fatalf("best should be first ranked")
	}
	g, l := DecodeModuleID(best.ModuleID)
	if g != best.Genre || l != best.Layout {
		t.Fatalf("metadata mismatch: %+v vs %s/%s", best, g, l)
	}
	if _, _, ok := Recommend(NewStore(), p, 3); ok {
		t.Fatalf("empty store should not recommend")
	}
}
