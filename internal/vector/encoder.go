// Package vector maps preference profiles and UI modules into one
// 12-dimension feature space and ranks modules by cosine similarity.
package vector

import "math"

// Dimensions is the length of every feature vector.
const Dimensions = 12

type FeatureVector [Dimensions]float64

// Feature indices.
const (
	DimDarkness = iota
	DimVibrancy
	DimCornerRoundness
	DimDensity
	DimTypographyWeight
	DimButtonSize
	DimMinimalism
	DimBrutalism
	DimGlass
	DimLoudness
	DimInteractivity
	DimExploration
)

// Neutral is returned for any category or value missing from the tables.
const Neutral = 0.5

var encodings = map[string]map[string]float64{
	"color_scheme": {
		"light":   0.0,
		"dark":    1.0,
		"vibrant": 0.5,
	},
	"corner_radius": {
		"sharp":   0.0,
		"rounded": 0.5,
		"pill":    1.0,
	},
	"density": {
		"low":    0.0,
		"medium": 0.5,
		"high":   1.0,
	},
	"typography_weight": {
		"light":   0.0,
		"regular": 0.5,
		"bold":    1.0,
	},
	"button_size": {
		"small":  0.0,
		"medium": 0.5,
		"large":  1.0,
	},
	// confident users explore less
	"decision_confidence": {
		"high":   0.2,
		"medium": 0.5,
		"low":    0.8,
	},
	"exploration_tolerance": {
		"low":    0.2,
		"medium": 0.5,
		"high":   0.8,
	},
	"engagement_depth": {
		"shallow":  0.2,
		"moderate": 0.5,
		"deep":     0.8,
	},
}

// Encode looks up the numeric value of a categorical preference. Unknown
// inputs map to Neutral so ranking never fails on unexpected data.
func Encode(category, value string) float64 {
	table, ok := encodings[category]
	if !ok {
		return Neutral
	}
	v, ok := table[value]
	if !ok {
		return Neutral
	}
	return v
}

// Normalize scales v to unit L2 norm. The zero vector is returned as is.
func Normalize(v FeatureVector) FeatureVector {
	n := Norm(v)
	if n == 0 {
		return v
	}
	var out FeatureVector
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func Norm(v FeatureVector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func Dot(a, b FeatureVector) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
