package vector

import (
	"strconv"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

// Recommendation is the single best catalog module for a profile.
type Recommendation struct {
	ModuleID int     `json:"module_id"`
	Genre    string  `json:"genre"`
	Layout   string  `json:"layout"`
	Score    float64 `json:"score"`
}

// Recommend ranks the whole store against the profile. ok is false when the
// store is empty or holds ids that are not module ids.
func Recommend(s *Store, p layout.PreferenceRecord, topK int) (best Recommendation, ranked []Recommendation, ok bool) {
	if s == nil {
		return Recommendation{}, nil, false
	}
	for _, r := range s.Search(ProfileVector(p), topK, nil) {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			continue
		}
		ranked = append(ranked, Recommendation{
			ModuleID: id,
			Genre:    r.Metadata[MetaGenre],
			Layout:   r.Metadata[MetaLayout],
			Score:    r.Score,
		})
	}
	if len(ranked) == 0 {
		return Recommendation{}, nil, false
	}
	return ranked[0], ranked, true
}
