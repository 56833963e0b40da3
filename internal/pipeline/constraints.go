package pipeline

import (
	"math"
	"sort"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

const (
	ownValueWeight   = 0.6
	otherValueWeight = 0.2
)

var (
	cornerValues     = []string{layout.CornerSharp, layout.CornerRounded, layout.CornerPill}
	typographyValues = []string{layout.WeightLight, layout.WeightRegular, layout.WeightBold}
	buttonSizeValues = []string{layout.SizeSmall, layout.SizeMedium, layout.SizeLarge}
)

var baseGenreWeights = map[string]float64{
	layout.GenreBase:          0.25,
	layout.GenreMinimalist:    0.25,
	layout.GenreNeobrutalist:  0.15,
	layout.GenreGlassmorphism: 0.20,
	layout.GenreLoud:          0.15,
}

var explorationBudgets = map[string]float64{
	layout.LevelLow:    0.1,
	layout.LevelMedium: 0.25,
	layout.LevelHigh:   0.4,
}

const defaultExplorationBudget = 0.25

// BuildConstraints derives hard filters, soft ranking weights and the
// exploration budget from one preference record. It performs no I/O and
// uses no randomness. ExcludedIDs is left empty for the caller to fill.
func BuildConstraints(p layout.PreferenceRecord, sctx layout.SessionContext) layout.Constraints {
	return layout.Constraints{
		Hard: layout.HardConstraints{
			ColorScheme: p.Visual.ColorScheme,
			Density:     p.Visual.Density,
			DeviceType:  sctx.DeviceType,
			PageType:    sctx.PageType,
			ExcludedIDs: []string{},
		},
		Soft: layout.SoftPreferences{
			CornerRadiusWeights: valueWeights(cornerValues, p.Visual.CornerRadius),
			TypographyWeights:   valueWeights(typographyValues, p.Visual.TypographyWeight),
			ButtonSizeWeights:   valueWeights(buttonSizeValues, p.Visual.ButtonSize),
			GenreWeights:        GenreWeights(p),
		},
		ExplorationBudget: ExplorationBudget(p.Interaction.ExplorationTolerance),
	}
}

func valueWeights(values []string, own string) map[string]float64 {
	out := make(map[string]float64, len(values))
	for _, v := range values {
		out[v] = otherValueWeight
	}
	out[own] = ownValueWeight
	return out
}

// GenreWeights adjusts the base genre distribution by density and
// engagement depth, then renormalizes to 1 with three-decimal weights.
func GenreWeights(p layout.PreferenceRecord) map[string]float64 {
	w := make(map[string]float64, len(baseGenreWeights))
	for g, v := range baseGenreWeights {
		w[g] = v
	}

	switch p.Visual.Density {
	case layout.LevelLow:
		w[layout.GenreMinimalist] += 0.15
		w[layout.GenreNeobrutalist] -= 0.10
	case layout.LevelHigh:
		w[layout.GenreNeobrutalist] += 0.10
		w[layout.GenreMinimalist] -= 0.10
	}

	switch p.Behavioral.EngagementDepth {
	case layout.DepthShallow:
		w[layout.GenreMinimalist] += 0.10
		w[layout.GenreGlassmorphism] -= 0.05
	case layout.DepthDeep:
		w[layout.GenreGlassmorphism] += 0.10
		w[layout.GenreLoud] += 0.05
	}

	return normalizeWeights(w)
}

// normalizeWeights scales w to sum 1 and rounds each entry to 3 decimals.
// The rounding residue is moved onto the largest weight so the result still
// sums to 1.
func normalizeWeights(w map[string]float64) map[string]float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 {
		return w
	}

	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]float64, len(w))
	var sum float64
	largest := keys[0]
	for _, k := range keys {
		out[k] = round3(w[k] / total)
		sum += out[k]
		if out[k] > out[largest] {
			largest = k
		}
	}
	if residue := round3(1 - sum); residue != 0 {
		out[largest] = round3(out[largest] + residue)
	}
	return out
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// ExplorationBudget maps exploration tolerance to the probability of
// trying a loud variant per slot. Unknown tolerances get the medium budget.
func ExplorationBudget(tolerance string) float64 {
	if b, ok := explorationBudgets[tolerance]; ok {
		return b
	}
	return defaultExplorationBudget
}
