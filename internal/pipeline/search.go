package pipeline

import (
	"context"
	"strconv"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/vector"
)

// SemanticCandidate is one catalog module matched to a slot.
type SemanticCandidate struct {
	ModuleID int     `json:"module_id"`
	Genre    string  `json:"genre"`
	Layout   string  `json:"layout"`
	Score    float64 `json:"score"`
}

// CandidateSet is the cached result of a candidate search, per slot.
type CandidateSet struct {
	Slots map[string][]SemanticCandidate `json:"slots"`
}

// Scores flattens the set into selector input, keeping the best score per
// (slot, genre).
func (c CandidateSet) Scores() map[SlotGenre]float64 {
	out := make(map[SlotGenre]float64)
	for slot, cands := range c.Slots {
		for _, cand := range cands {
			k := SlotGenre{Slot: slot, Genre: cand.Genre}
			if prev, ok := out[k]; !ok || cand.Score > prev {
				out[k] = cand.Score
			}
		}
	}
	return out
}

// CandidateSearcher ranks catalog modules against a profile.
type CandidateSearcher interface {
	SearchCandidates(ctx context.Context, p layout.PreferenceRecord, slots []string) (CandidateSet, error)
	Recommend(ctx context.Context, p layout.PreferenceRecord) (vector.Recommendation, bool)
}

// VectorSearcher implements CandidateSearcher over an in-memory store.
type VectorSearcher struct {
	store *vector.Store
	topK  int
}

func NewVectorSearcher(store *vector.Store, topK int) *VectorSearcher {
	if topK <= 0 {
		topK = 3
	}
	return &VectorSearcher{store: store, topK: topK}
}

func (v *VectorSearcher) SearchCandidates(ctx context.Context, p layout.PreferenceRecord, slots []string) (CandidateSet, error) {
	set := CandidateSet{Slots: make(map[string][]SemanticCandidate, len(slots))}
	query := vector.ProfileVector(p)
	for _, slot := range slots {
		if err := ctx.Err(); err != nil {
			return CandidateSet{}, err
		}
		results := v.store.SearchByLayout(query, slot, v.topK)
		cands := make([]SemanticCandidate, 0, len(results))
		for _, r := range results {
			id, err := strconv.Atoi(r.ID)
			if err != nil {
				continue
			}
			cands = append(cands, SemanticCandidate{
				ModuleID: id,
				Genre:    r.Metadata[vector.MetaGenre],
				Layout:   r.Metadata[vector.MetaLayout],
				Score:    r.Score,
			})
		}
		set.Slots[slot] = cands
	}
	return set, nil
}

func (v *VectorSearcher) Recommend(_ context.Context, p layout.PreferenceRecord) (vector.Recommendation, bool) {
	best, _, ok := vector.Recommend(v.store, p, 1)
	return best, ok
}
