package vector

import (
	"strconv"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

// ModulesPerGenre is the number of layouts every genre ships.
const ModulesPerGenre = 6

const (
	LayoutStandard  = "standard"
	LayoutCompact   = "compact"
	LayoutFeatured  = "featured"
	LayoutGallery   = "gallery"
	LayoutTechnical = "technical"
	LayoutBold      = "bold"
)

// Genres and Layouts are ordered by their index in the module id.
var (
	Genres = []string{
		layout.GenreBase,
		layout.GenreMinimalist,
		layout.GenreNeobrutalist,
		layout.GenreGlassmorphism,
		layout.GenreLoud,
		layout.GenreCyber,
	}
	Layouts = []string{
		LayoutStandard,
		LayoutCompact,
		LayoutFeatured,
		LayoutGallery,
		LayoutTechnical,
		LayoutBold,
	}
)

// slotLayouts maps page slots onto the module layout that renders them.
var slotLayouts = map[string]string{
	layout.SlotHero:        LayoutFeatured,
	layout.SlotProductGrid: LayoutGallery,
	layout.SlotCTA:         LayoutBold,
}

// LayoutForSlot returns the module layout for a slot type. Layout names are
// accepted as-is.
func LayoutForSlot(slot string) string {
	if l, ok := slotLayouts[slot]; ok {
		return l
	}
	return slot
}

// visualProfile holds the hand-tuned visual and behavioral dimensions of a
// module before genre dimensions are attached.
type visualProfile struct {
	Darkness         float64
	Vibrancy         float64
	CornerRoundness  float64
	Density          float64
	TypographyWeight float64
	ButtonSize       float64
	Interactivity    float64
}

var genreProfiles = map[string]visualProfile{
	layout.GenreBase:          {0.3, 0.4, 0.5, 0.5, 0.5, 0.5, 0.4},
	layout.GenreMinimalist:    {0.0, 0.1, 0.0, 0.2, 0.3, 0.4, 0.2},
	layout.GenreNeobrutalist:  {0.1, 0.9, 0.0, 0.8, 1.0, 0.8, 0.6},
	layout.GenreGlassmorphism: {0.3, 0.5, 0.8, 0.4, 0.4, 0.5, 0.7},
	layout.GenreLoud:          {0.2, 1.0, 0.7, 0.6, 0.8, 0.7, 0.9},
	layout.GenreCyber:         {0.95, 0.7, 0.1, 0.5, 0.5, 0.5, 0.8},
}

// layoutModifiers are added to the genre profile and clamped to [0,1].
var layoutModifiers = map[string]visualProfile{
	LayoutStandard:  {},
	LayoutCompact:   {Density: 0.8, ButtonSize: 0.3},
	LayoutFeatured:  {Density: 0.3, ButtonSize: 0.7, Vibrancy: 0.1},
	LayoutGallery:   {Density: 0.2, Interactivity: 0.8},
	LayoutTechnical: {Density: 0.9, TypographyWeight: 0.2},
	LayoutBold:      {TypographyWeight: 0.9, Vibrancy: 0.1},
}

// genreAffinity is {minimalism, brutalism, glass, loudness} per genre.
var genreAffinity = map[string][4]float64{
	layout.GenreBase:          {0.0, 0.0, 0.0, 0.2},
	layout.GenreMinimalist:    {1.0, 0.0, 0.0, 0.0},
	layout.GenreNeobrutalist:  {0.0, 1.0, 0.0, 0.3},
	layout.GenreGlassmorphism: {0.3, 0.0, 1.0, 0.0},
	layout.GenreLoud:          {0.0, 0.2, 0.0, 1.0},
	layout.GenreCyber:         {0.2, 0.3, 0.2, 0.5},
}

var genreTags = map[string][]string{
	layout.GenreBase:          {"classic", "reliable", "clean"},
	layout.GenreMinimalist:    {"luxury", "premium", "stark"},
	layout.GenreNeobrutalist:  {"playful", "bold", "raw"},
	layout.GenreGlassmorphism: {"ethereal", "dreamy", "modern"},
	layout.GenreLoud:          {"energetic", "vibrant", "intense"},
	layout.GenreCyber:         {"technical", "dark", "hacker"},
}

var genreBlurbs = map[string]string{
	layout.GenreBase:          "Familiar white card with a soft shadow.",
	layout.GenreMinimalist:    "Borderless card with generous whitespace.",
	layout.GenreNeobrutalist:  "Thick black borders and hard offset shadows.",
	layout.GenreGlassmorphism: "Frosted translucent pane over a soft gradient.",
	layout.GenreLoud:          "Vibrant gradients with aggressive motion.",
	layout.GenreCyber:         "Dark terminal styling with monospaced type.",
}

var layoutBlurbs = map[string]string{
	LayoutStandard:  "Standard product card.",
	LayoutCompact:   "Condensed horizontal list entry.",
	LayoutFeatured:  "Oversized hero treatment for promotions.",
	LayoutGallery:   "Image-first tile with details on hover.",
	LayoutTechnical: "Spec-heavy grid of product data.",
	LayoutBold:      "Typography-led call to action.",
}

// Module is one entry of the genre x layout catalog.
type Module struct {
	ID          int
	Genre       string
	Layout      string
	Description string
	Tags        []string
	Vector      FeatureVector
}

// Key is the string id used in the vector store.
func (m Module) Key() string { return strconv.Itoa(m.ID) }

// EncodeModuleID returns genre*6 + layout. Unknown names map to index 0.
func EncodeModuleID(genre, layoutName string) int {
	return indexOf(Genres, genre)*ModulesPerGenre + indexOf(Layouts, layoutName)
}

// DecodeModuleID is the inverse of EncodeModuleID for ids in [0,36).
func DecodeModuleID(id int) (genre, layoutName string) {
	g, l := id/ModulesPerGenre, id%ModulesPerGenre
	if id < 0 || g >= len(Genres) {
		return layout.GenreBase, LayoutStandard
	}
	return Genres[g], Layouts[l]
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

// NewModule derives a module from the static tables. It is a pure function
// of (genre, layout).
func NewModule(genre, layoutName string) Module {
	p, ok := genreProfiles[genre]
	if !ok {
		p = genreProfiles[layout.GenreBase]
	}
	mod := layoutModifiers[layoutName]
	p = visualProfile{
		Darkness:         clamp01(p.Darkness + mod.Darkness),
		Vibrancy:         clamp01(p.Vibrancy + mod.Vibrancy),
		CornerRoundness:  clamp01(p.CornerRoundness + mod.CornerRoundness),
		Density:          clamp01(p.Density + mod.Density),
		TypographyWeight: clamp01(p.TypographyWeight + mod.TypographyWeight),
		ButtonSize:       clamp01(p.ButtonSize + mod.ButtonSize),
		Interactivity:    clamp01(p.Interactivity + mod.Interactivity),
	}

	affinity, ok := genreAffinity[genre]
	if !ok {
		affinity = genreAffinity[layout.GenreBase]
	}

	var v FeatureVector
	v[DimDarkness] = p.Darkness
	v[DimVibrancy] = p.Vibrancy
	v[DimCornerRoundness] = p.CornerRoundness
	v[DimDensity] = p.Density
	v[DimTypographyWeight] = p.TypographyWeight
	v[DimButtonSize] = p.ButtonSize
	v[DimMinimalism] = affinity[0]
	v[DimBrutalism] = affinity[1]
	v[DimGlass] = affinity[2]
	v[DimLoudness] = affinity[3]
	v[DimInteractivity] = p.Interactivity
	// loud modules double as the exploratory ones
	v[DimExploration] = affinity[3]

	tags := append(append([]string{}, genreTags[genre]...), layoutName)
	return Module{
		ID:          EncodeModuleID(genre, layoutName),
		Genre:       genre,
		Layout:      layoutName,
		Description: genreBlurbs[genre] + " " + layoutBlurbs[layoutName],
		Tags:        tags,
		Vector:      Normalize(v),
	}
}

// Catalog returns all genre x layout modules in id order.
func Catalog() []Module {
	out := make([]Module, 0, len(Genres)*len(Layouts))
	for _, g := range Genres {
		for _, l := range Layouts {
			out = append(out, NewModule(g, l))
		}
	}
	return out
}
