package vector

import (
	"math"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

// ProfileVector projects a preference record into the module feature space
// and normalizes it. The genre-affinity dimensions are derived from the
// already-encoded visual dimensions with fixed weights so that every profile
// lands in the same coordinate system as the catalog.
func ProfileVector(p layout.PreferenceRecord) FeatureVector {
	var v FeatureVector

	switch p.Visual.ColorScheme {
	case layout.ColorSchemeDark:
		v[DimDarkness], v[DimVibrancy] = 1.0, 0.4
	case layout.ColorSchemeVibrant:
		v[DimDarkness], v[DimVibrancy] = 0.3, 1.0
	default:
		v[DimDarkness], v[DimVibrancy] = 0.0, 0.3
	}
	v[DimCornerRoundness] = Encode("corner_radius", p.Visual.CornerRadius)
	v[DimDensity] = Encode("density", p.Visual.Density)
	v[DimTypographyWeight] = Encode("typography_weight", p.Visual.TypographyWeight)
	v[DimButtonSize] = Encode("button_size", p.Visual.ButtonSize)

	exploration := Encode("exploration_tolerance", p.Interaction.ExplorationTolerance)

	minimalism := (1-v[DimDensity])*0.5 +
		(1-v[DimTypographyWeight])*0.3 +
		(1-v[DimCornerRoundness])*0.2
	brutalism := v[DimVibrancy]*0.4 +
		v[DimTypographyWeight]*0.4 +
		(1-v[DimCornerRoundness])*0.2
	glass := v[DimCornerRoundness]*0.5 +
		math.Max(0, 1-math.Abs(v[DimDensity]-0.5)*2)*0.3 +
		v[DimDarkness]*0.2
	loudness := v[DimVibrancy]*0.4 +
		v[DimButtonSize]*0.3 +
		exploration*0.3

	v[DimMinimalism] = clamp01(minimalism)
	v[DimBrutalism] = clamp01(brutalism)
	v[DimGlass] = clamp01(glass)
	v[DimLoudness] = clamp01(loudness)

	v[DimInteractivity] = Encode("engagement_depth", p.Behavioral.EngagementDepth)
	v[DimExploration] = exploration

	return Normalize(v)
}
