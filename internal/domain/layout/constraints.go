package layout

const (
	GenreBase          = "base"
	GenreMinimalist    = "minimalist"
	GenreNeobrutalist  = "neobrutalist"
	GenreGlassmorphism = "glassmorphism"
	GenreLoud          = "loud"
	GenreCyber         = "cyber"
)

const (
	SlotHero        = "hero"
	SlotProductGrid = "product-grid"
	SlotCTA         = "cta"
)

// DefaultSlots is the slot order a storefront page is assembled in.
var DefaultSlots = []string{SlotHero, SlotProductGrid, SlotCTA}

// HardConstraints filter candidates out entirely.
type HardConstraints struct {
	ColorScheme string   `json:"color_scheme,omitempty"`
	Density     string   `json:"density,omitempty"`
	DeviceType  string   `json:"device_type,omitempty"`
	PageType    string   `json:"page_type,omitempty"`
	ExcludedIDs []string `json:"excluded_component_ids"`
}

// Excludes reports whether id is in the exclusion list.
func (h HardConstraints) Excludes(id string) bool {
	for _, ex := range h.ExcludedIDs {
		if ex == id {
			return true
		}
	}
	return false
}

// SoftPreferences rank candidates. Every map is a distribution over its
// category's values.
type SoftPreferences struct {
	CornerRadiusWeights map[string]float64 `json:"corner_radius"`
	TypographyWeights   map[string]float64 `json:"typography_weight"`
	ButtonSizeWeights   map[string]float64 `json:"button_size"`
	GenreWeights        map[string]float64 `json:"genre_weights"`
}

type Constraints struct {
	Hard              HardConstraints `json:"hard"`
	Soft              SoftPreferences `json:"soft"`
	ExplorationBudget float64         `json:"exploration_budget"`
}

// ComponentCandidate is one catalog entry. Score fields are filled on
// per-call copies by the selector and never written back to the catalog.
type ComponentCandidate struct {
	ID               string   `json:"component_id" yaml:"id"`
	Type             string   `json:"component_type" yaml:"type"`
	Genre            string   `json:"genre" yaml:"genre"`
	Variant          string   `json:"variant" yaml:"variant"`
	ConstraintScore  float64  `json:"constraint_score" yaml:"-"`
	PreferenceScore  float64  `json:"preference_score" yaml:"-"`
	SemanticScore    float64  `json:"semantic_score" yaml:"-"`
	Tags             []string `json:"tags" yaml:"tags"`
	SupportsDarkMode bool     `json:"supports_dark_mode" yaml:"supports_dark_mode"`
	SupportsMobile   bool     `json:"supports_mobile" yaml:"supports_mobile"`
}

type SelectionResult struct {
	Selected                  []ComponentCandidate `json:"selected_components"`
	Exploration               []ComponentCandidate `json:"exploration_components"`
	TotalCandidatesConsidered int                  `json:"total_candidates_considered"`
	// SkippedSlots lists required slots that had no eligible candidate.
	SkippedSlots              []string             `json:"skipped_slots,omitempty"`
}

// SelectedIDs returns the ids of the non-exploration picks in slot order.
func (r SelectionResult) SelectedIDs() []string {
	out := make([]string, 0, len(r.Selected))
	for _, c := range r.Selected {
		out = append(out, c.ID)
	}
	return out
}
