package pipeline

import (
	"math/rand/v2"
	"sort"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
)

// defaultPreferenceScore is used for genres absent from the weight table.
const defaultPreferenceScore = 0.1

// SlotGenre keys semantic scores produced by the vector search.
type SlotGenre struct {
	Slot  string
	Genre string
}

type SelectOptions struct {
	RecentlyUsed  []string
	RequiredSlots []string
	// SemanticScores is optional; missing pairs score 0.
	SemanticScores map[SlotGenre]float64
}

// Selector picks one component per slot from a fixed catalog. The catalog
// is copied on construction and never mutated, so one Selector may serve
// any number of concurrent calls.
type Selector struct {
	log     *logger.Logger
	catalog []layout.ComponentCandidate
	// Rand returns a value in [0,1) and drives exploration. Tests pin it.
	Rand func() float64
}

func NewSelector(log *logger.Logger, catalog []layout.ComponentCandidate) *Selector {
	if log == nil {
		log = logger.NewNop()
	}
	cat := make([]layout.ComponentCandidate, len(catalog))
	copy(cat, catalog)
	return &Selector{
		log:     log.With("component", "ComponentSelector"),
		catalog: cat,
		Rand:    rand.Float64,
	}
}

func (s *Selector) CatalogSize() int { return len(s.catalog) }

// Select filters, scores and picks components. A slot with no eligible
// candidate is skipped and reported in SkippedSlots; it never fails the
// selection.
func (s *Selector) Select(c layout.Constraints, opts SelectOptions) layout.SelectionResult {
	slots := opts.RequiredSlots
	if len(slots) == 0 {
		slots = layout.DefaultSlots
	}
	recent := make(map[string]struct{}, len(opts.RecentlyUsed))
	for _, id := range opts.RecentlyUsed {
		recent[id] = struct{}{}
	}

	scored := make([]layout.ComponentCandidate, 0, len(s.catalog))
	for _, cand := range s.catalog {
		if _, used := recent[cand.ID]; used {
			continue
		}
		if c.Hard.Excludes(cand.ID) {
			continue
		}
		if c.Hard.DeviceType == layout.DeviceMobile && !cand.SupportsMobile {
			continue
		}
		cand.Tags = append([]string(nil), cand.Tags...)
		cand.ConstraintScore = 1
		cand.PreferenceScore = defaultPreferenceScore
		if w, ok := c.Soft.GenreWeights[cand.Genre]; ok {
			cand.PreferenceScore = w
		}
		cand.SemanticScore = opts.SemanticScores[SlotGenre{Slot: cand.Type, Genre: cand.Genre}]
		scored = append(scored, cand)
	}

	res := layout.SelectionResult{
		Selected:                  []layout.ComponentCandidate{},
		Exploration:               []layout.ComponentCandidate{},
		TotalCandidatesConsidered: len(s.catalog),
	}
	for _, slot := range slots {
		var pool []layout.ComponentCandidate
		for _, cand := range scored {
			if cand.Type == slot {
				pool = append(pool, cand)
			}
		}
		if len(pool) == 0 {
			s.log.Warn("no candidates for slot", "slot", slot)
			res.SkippedSlots = append(res.SkippedSlots, slot)
			continue
		}
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].PreferenceScore+pool[i].SemanticScore > pool[j].PreferenceScore+pool[j].SemanticScore
		})

		if c.ExplorationBudget > 0 && s.Rand() < c.ExplorationBudget {
			if loud, ok := firstOfGenre(pool, layout.GenreLoud); ok {
				res.Exploration = append(res.Exploration, loud)
				continue
			}
		}
		res.Selected = append(res.Selected, pool[0])
	}
	return res
}

func firstOfGenre(pool []layout.ComponentCandidate, genre string) (layout.ComponentCandidate, bool) {
	for _, c := range pool {
		if c.Genre == genre {
			return c, true
		}
	}
	return layout.ComponentCandidate{}, false
}
