package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/vector"
)

func TestCandidateSetScoresKeepsBestPerGenre(t *testing.T) {
	set := CandidateSet{Slots: map[string][]SemanticCandidate{
		"hero": {
			{ModuleID: 2, Genre: "base", Score: 0.4},
			{ModuleID: 8, Genre: "base", Score: 0.7},
			{ModuleID: 14, Genre: "minimalist", Score: 0.5},
		},
		"cta": {{ModuleID: 5, Genre: "base", Score: 0.3}},
	}}
	want := map[SlotGenre]float64{
		{Slot: "hero", Genre: "base"}:       0.7,
		{Slot: "hero", Genre: "minimalist"}: 0.5,
		{Slot: "cta", Genre: "base"}:        0.3,
	}
	if diff := cmp.Diff(want, set.Scores()); diff != "" {
		t.Fatalf("scores (-want +got):\n%s", diff)
	}
}

func TestVectorSearcherMapsSlotsToLayouts(t *testing.T) {
	s := NewVectorSearcher(vector.NewCatalogStore(), 2)
	set, err := s.SearchCandidates(context.Background(), layout.DefaultPreferenceRecord(), layout.DefaultSlots)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, slot := range layout.DefaultSlots {
		cands := set.Slots[slot]
		if len(cands) != 2 {
			t.Fatalf("%s: want=2 candidates got=%d", slot, len(cands))
		}
		for _, c := range cands {
			if c.Layout != vector.LayoutForSlot(slot) {
				t.Fatalf("%s: layout want=%s got=%s", slot, vector.LayoutForSlot(slot), c.Layout)
			}
		}
		if cands[0].Score < cands[1].Score {
			t.Fatalf("%s: candidates not ranked: %+v", slot, cands)
		}
	}

	best, ok := s.Recommend(context.Background(), layout.DefaultPreferenceRecord())
	if !ok || best.Score <= 0 {
		t.Fatalf("recommend: ok=%v best=%+v", ok, best)
	}
}

func TestVectorSearcherHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewVectorSearcher(vector.NewCatalogStore(), 0).SearchCandidates(ctx, layout.DefaultPreferenceRecord(), layout.DefaultSlots)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}
